package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akazarov/taskmanager/internal/models"
)

// PostgresStore handles user and task CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users and tasks tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			username      TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id           BIGSERIAL PRIMARY KEY,
			title        TEXT NOT NULL,
			description  TEXT,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			due_date     DATE,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			user_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, username, password_hash`,
		username, passwordHash,
	).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// GetUserByUsername looks up a user by exact, case-sensitive username.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateTask inserts a task and fills in the server-assigned fields.
func (s *PostgresStore) CreateTask(ctx context.Context, t *models.Task) (*models.Task, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (title, description, due_date, user_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, is_completed`,
		t.Title, t.Description, t.DueDate, t.UserID,
	).Scan(&t.ID, &t.CreatedAt, &t.IsCompleted)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// ListTasks returns the user's tasks ordered by due date ascending with
// undated tasks last.
func (s *PostgresStore) ListTasks(ctx context.Context, userID int64, status models.StatusFilter) ([]models.Task, error) {
	q := `SELECT id, title, description, created_at, due_date, is_completed, user_id
	      FROM tasks WHERE user_id = $1`
	switch status {
	case models.StatusOpen:
		q += ` AND is_completed = FALSE`
	case models.StatusDone:
		q += ` AND is_completed = TRUE`
	}
	q += ` ORDER BY due_date ASC NULLS LAST, id ASC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt,
			&t.DueDate, &t.IsCompleted, &t.UserID); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask loads a task by id restricted to its owner. A nonexistent id and
// someone else's task both yield models.ErrNotFound.
func (s *PostgresStore) GetTask(ctx context.Context, id, userID int64) (*models.Task, error) {
	var t models.Task
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description, created_at, due_date, is_completed, user_id
		 FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt, &t.DueDate, &t.IsCompleted, &t.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask overwrites the mutable columns, again filtered on owner.
func (s *PostgresStore) UpdateTask(ctx context.Context, t *models.Task) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET title = $1, description = $2, due_date = $3, is_completed = $4
		 WHERE id = $5 AND user_id = $6`,
		t.Title, t.Description, t.DueDate, t.IsCompleted, t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ToggleTask flips the completion flag in a single statement.
func (s *PostgresStore) ToggleTask(ctx context.Context, id, userID int64) (*models.Task, error) {
	var t models.Task
	err := s.pool.QueryRow(ctx,
		`UPDATE tasks SET is_completed = NOT is_completed
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, title, description, created_at, due_date, is_completed, user_id`,
		id, userID,
	).Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt, &t.DueDate, &t.IsCompleted, &t.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) DeleteTask(ctx context.Context, id, userID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
