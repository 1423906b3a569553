package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akazarov/taskmanager/internal/accounts"
	"github.com/akazarov/taskmanager/internal/auth"
	"github.com/akazarov/taskmanager/internal/config"
	"github.com/akazarov/taskmanager/internal/middleware"
	"github.com/akazarov/taskmanager/internal/store"
	"github.com/akazarov/taskmanager/internal/tasks"
	"github.com/akazarov/taskmanager/internal/web"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── Redis sessions ───────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	sessions := auth.NewRedisSessionStore(rdb)

	// ── Router ───────────────────────────────────────────────
	r, err := newRouter(sessions, pgStore, pgStore, cfg.SecretKey)
	if err != nil {
		log.Fatalf("router: %v", err)
	}

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Task manager listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}

// userStore is the union of what the router's consumers need from user
// persistence; *store.PostgresStore satisfies it.
type userStore interface {
	accounts.UserStore
	middleware.UserLoader
}

// newRouter wires middleware, handlers, and routes.
func newRouter(sessions auth.Sessions, users userStore, taskStore tasks.TaskStore, secret string) (chi.Router, error) {
	renderer, err := web.NewRenderer(sessions)
	if err != nil {
		return nil, err
	}

	accountsHandler := accounts.NewHandler(users, sessions, renderer, secret)
	tasksHandler := tasks.NewHandler(taskStore, sessions, renderer)

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.CurrentUser(sessions, users, secret))

	// Public routes
	r.Get("/register", accountsHandler.ShowRegister)
	r.Post("/register", accountsHandler.Register)
	r.Get("/login", accountsHandler.ShowLogin)
	r.Post("/login", accountsHandler.Login)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", tasksHandler.List)
		r.Get("/logout", accountsHandler.Logout)
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/new", tasksHandler.NewForm)
			r.Post("/new", tasksHandler.Create)
			r.Get("/{id}/edit", tasksHandler.EditForm)
			r.Post("/{id}/edit", tasksHandler.Edit)
			r.Post("/{id}/toggle", tasksHandler.Toggle)
			r.Post("/{id}/delete", tasksHandler.Delete)
		})
	})

	return r, nil
}
