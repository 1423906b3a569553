package web

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/akazarov/taskmanager/internal/auth"
	"github.com/akazarov/taskmanager/internal/middleware"
	"github.com/akazarov/taskmanager/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"index.html", "login.html", "register.html", "task_form.html"}

// Renderer turns page data into HTML. Handlers decide status codes and
// data; templates decide markup.
type Renderer struct {
	pages    map[string]*template.Template
	sessions auth.Sessions
}

func NewRenderer(sessions auth.Sessions) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages, sessions: sessions}, nil
}

// Page is the data handed to every template.
type Page struct {
	User         *models.User
	Flashes      []auth.Flash
	Tasks        []models.Task
	Task         *models.Task
	StatusFilter models.StatusFilter
	Today        time.Time
	Next         string
}

// Render fills the request-scoped fields (current user, queued flashes)
// and writes the page.
func (rn *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, p Page) {
	p.User = middleware.UserFromContext(r.Context())
	if sid := middleware.SessionIDFromContext(r.Context()); sid != "" {
		flashes, err := rn.sessions.PopFlashes(r.Context(), sid)
		if err != nil {
			log.Printf("pop flashes: %v", err)
		}
		p.Flashes = flashes
	}

	t, ok := rn.pages[name]
	if !ok {
		log.Printf("render: unknown template %q", name)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout", p); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}
