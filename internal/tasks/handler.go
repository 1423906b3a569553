package tasks

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akazarov/taskmanager/internal/auth"
	"github.com/akazarov/taskmanager/internal/middleware"
	"github.com/akazarov/taskmanager/internal/models"
	"github.com/akazarov/taskmanager/internal/web"
)

const dateLayout = "2006-01-02"

// TaskStore defines the interface for task persistence. Single-task
// operations are filtered on (id, owner) so foreign and nonexistent ids
// are indistinguishable.
type TaskStore interface {
	CreateTask(ctx context.Context, t *models.Task) (*models.Task, error)
	ListTasks(ctx context.Context, userID int64, status models.StatusFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id, userID int64) (*models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task) error
	ToggleTask(ctx context.Context, id, userID int64) (*models.Task, error)
	DeleteTask(ctx context.Context, id, userID int64) error
}

// Handler holds the task HTTP handlers. All routes require an
// authenticated user in the request context.
type Handler struct {
	store    TaskStore
	sessions auth.Sessions
	renderer *web.Renderer
}

func NewHandler(store TaskStore, sessions auth.Sessions, renderer *web.Renderer) *Handler {
	return &Handler{store: store, sessions: sessions, renderer: renderer}
}

func (h *Handler) flash(r *http.Request, category, message string) {
	sid := middleware.SessionIDFromContext(r.Context())
	if sid == "" {
		return
	}
	if err := h.sessions.AddFlash(r.Context(), sid, auth.Flash{Category: category, Message: message}); err != nil {
		log.Printf("add flash: %v", err)
	}
}

// List renders the task list, optionally filtered by status. Today's date
// goes to the view so overdue tasks can be highlighted.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	status := models.ParseStatusFilter(r.URL.Query().Get("status"))

	taskList, err := h.store.ListTasks(r.Context(), user.ID, status)
	if err != nil {
		log.Printf("list tasks: %v", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "index.html", web.Page{
		Tasks:        taskList,
		StatusFilter: status,
		Today:        time.Now(),
	})
}

// NewForm renders an empty task form.
func (h *Handler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "task_form.html", web.Page{})
}

// Create processes the new-task form. Validation failures re-render the
// form with HTTP 200 and persist nothing.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	dueDateStr := strings.TrimSpace(r.FormValue("due_date"))

	if title == "" {
		h.flash(r, "error", "Title is required.")
		h.renderer.Render(w, r, http.StatusOK, "task_form.html", web.Page{})
		return
	}
	dueDate, ok := parseDueDate(dueDateStr)
	if !ok {
		h.flash(r, "error", "Invalid date format. Use YYYY-MM-DD.")
		h.renderer.Render(w, r, http.StatusOK, "task_form.html", web.Page{})
		return
	}

	t := &models.Task{
		Title:       title,
		Description: optional(description),
		DueDate:     dueDate,
		UserID:      user.ID,
	}
	if _, err := h.store.CreateTask(r.Context(), t); err != nil {
		log.Printf("create task: %v", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.flash(r, "success", "Task created.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// EditForm renders the edit form pre-filled with the task's saved state.
func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	h.renderer.Render(w, r, http.StatusOK, "task_form.html", web.Page{Task: t})
}

// Edit processes the edit form. The completion flag follows checkbox
// semantics: absent or empty means false. Validation failures re-render
// with the existing, unsaved task.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	dueDateStr := strings.TrimSpace(r.FormValue("due_date"))
	isCompleted := r.FormValue("is_completed") != ""

	if title == "" {
		h.flash(r, "error", "Title is required.")
		h.renderer.Render(w, r, http.StatusOK, "task_form.html", web.Page{Task: t})
		return
	}
	dueDate, ok := parseDueDate(dueDateStr)
	if !ok {
		h.flash(r, "error", "Invalid date format. Use YYYY-MM-DD.")
		h.renderer.Render(w, r, http.StatusOK, "task_form.html", web.Page{Task: t})
		return
	}

	t.Title = title
	t.Description = optional(description)
	t.DueDate = dueDate
	t.IsCompleted = isCompleted
	if err := h.store.UpdateTask(r.Context(), t); err != nil {
		log.Printf("update task: %v", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.flash(r, "success", "Task updated.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Toggle flips the completion flag unconditionally.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := taskID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if _, err := h.store.ToggleTask(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Printf("toggle task: %v", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.flash(r, "success", "Task status updated.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Delete permanently removes the task.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := taskID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := h.store.DeleteTask(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Printf("delete task: %v", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.flash(r, "success", "Task deleted.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// load resolves the task for the edit routes, writing a 404 or 500 itself
// when it can't.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	user := middleware.UserFromContext(r.Context())
	id, ok := taskID(r)
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}

	t, err := h.store.GetTask(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		log.Printf("get task: %v", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return nil, false
	}
	return t, true
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseDueDate treats an empty string as no due date; anything else must
// be an exact YYYY-MM-DD calendar date.
func parseDueDate(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, false
	}
	return &d, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
