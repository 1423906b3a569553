package accounts

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/akazarov/taskmanager/internal/auth"
	"github.com/akazarov/taskmanager/internal/middleware"
	"github.com/akazarov/taskmanager/internal/models"
	"github.com/akazarov/taskmanager/internal/web"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Handler holds the registration, login, and logout handlers.
type Handler struct {
	users    UserStore
	sessions auth.Sessions
	renderer *web.Renderer
	secret   string
}

func NewHandler(users UserStore, sessions auth.Sessions, renderer *web.Renderer, secret string) *Handler {
	return &Handler{users: users, sessions: sessions, renderer: renderer, secret: secret}
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

// ShowRegister renders the registration form.
func (h *Handler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "register.html", web.Page{})
}

// Register processes the registration form. Validation is
// first-failure-wins; any failure re-renders the form with HTTP 200 and no
// state change.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm")

	switch {
	case username == "" || password == "":
		h.flash(r, "error", "Username and password are required.")
	case password != confirm:
		h.flash(r, "error", "Passwords do not match.")
	default:
		_, err := h.users.GetUserByUsername(r.Context(), username)
		if err == nil {
			h.flash(r, "error", "Username is already taken.")
			break
		}
		if !errors.Is(err, models.ErrNotFound) {
			log.Printf("lookup user: %v", err)
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		var u models.User
		if err := u.SetPassword(password); err != nil {
			log.Printf("hash password: %v", err)
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		if _, err := h.users.CreateUser(r.Context(), username, u.PasswordHash); err != nil {
			log.Printf("create user: %v", err)
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		h.flash(r, "success", "Registration successful. Please log in.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "register.html", web.Page{})
}

// ShowLogin renders the login form, preserving the next parameter.
func (h *Handler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "login.html", web.Page{
		Next: r.URL.Query().Get("next"),
	})
}

// Login processes the login form. The failure message never reveals
// whether the username or the password was wrong.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	next := r.URL.Query().Get("next")

	user, err := h.users.GetUserByUsername(r.Context(), username)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		log.Printf("lookup user: %v", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if user == nil || !user.CheckPassword(password) {
		h.flash(r, "error", "Invalid username or password.")
		h.renderer.Render(w, r, http.StatusOK, "login.html", web.Page{Next: next})
		return
	}

	// Drop the pre-login session and bind a fresh id to the user so a
	// fixated session id never becomes authenticated.
	if sid := middleware.SessionIDFromContext(r.Context()); sid != "" {
		if err := h.sessions.Destroy(r.Context(), sid); err != nil {
			log.Printf("destroy session: %v", err)
		}
	}
	sid, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		log.Printf("create session: %v", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	auth.SetSessionCookie(w, h.secret, sid)
	if err := h.sessions.AddFlash(r.Context(), sid, auth.Flash{Category: "success", Message: "Logged in successfully."}); err != nil {
		log.Printf("add flash: %v", err)
	}

	if next == "" || !strings.HasPrefix(next, "/") {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout clears the session and always lands on the login page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sid := middleware.SessionIDFromContext(r.Context()); sid != "" {
		if err := h.sessions.Destroy(r.Context(), sid); err != nil {
			log.Printf("destroy session: %v", err)
		}
	}

	// A fresh anonymous session carries the goodbye flash across the
	// redirect.
	sid, err := h.sessions.Create(r.Context(), auth.AnonymousUser)
	if err != nil {
		log.Printf("create session: %v", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	auth.SetSessionCookie(w, h.secret, sid)
	if err := h.sessions.AddFlash(r.Context(), sid, auth.Flash{Category: "success", Message: "You have been logged out."}); err != nil {
		log.Printf("add flash: %v", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
