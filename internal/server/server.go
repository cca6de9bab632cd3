package server

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/auth"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/schedule"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/session"
	"github.com/mnsunilreddy131-sketch/linkedin-post/internal/settings"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for the posting workflow UI.
type Server struct {
	sess  *session.Session
	store *settings.Store
	auth  *auth.Handler
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// PostView is one post card prepared for rendering.
type PostView struct {
	Index     int
	Headline  string
	Summary   string
	Source    string
	URL       string
	ImageURL  string
	Caption   string
	State     session.RenderState
	Scheduled string
	ErrorMsg  string
}

// New creates a new Server.
func New(sess *session.Session, store *settings.Store, authHandler *auth.Handler) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "settings.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{sess: sess, store: store, auth: authHandler, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/fetch", s.handleFetch)
	s.mux.HandleFunc("/generate", s.handleGenerate)
	s.mux.HandleFunc("/posts/", s.handlePostAction)
	s.mux.HandleFunc("/thinking", s.handleThinking)
	s.mux.HandleFunc("/reset", s.handleReset)
	s.mux.HandleFunc("/settings", s.handleSettings)
	s.mux.HandleFunc("/settings/save", s.handleSettingsSave)
	s.mux.HandleFunc("/settings/disconnect", s.handleSettingsDisconnect)
	s.mux.HandleFunc("/auth/linkedin", s.auth.HandleBegin)
	s.mux.HandleFunc("/auth/callback", s.auth.HandleCallback)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	posts := s.sess.Posts()
	statuses := s.sess.PostStatuses()
	news := s.sess.News()

	views := make([]PostView, len(posts))
	for i, p := range posts {
		status, ok := statuses[i]
		view := PostView{
			Index:    i,
			Headline: p.News.Headline,
			Summary:  p.News.Summary,
			Source:   p.News.Source,
			URL:      p.News.URL,
			ImageURL: p.ImageURL,
			Caption:  p.Caption,
			State:    session.ProjectPost(p, status, ok),
		}
		if ok {
			if status.Status == schedule.StatusScheduled {
				view.Scheduled = status.ScheduledTime.Format("Jan 2, 2006 15:04")
			}
			view.ErrorMsg = status.ErrorMessage
		}
		views[i] = view
	}

	st, err := s.store.Load()
	if err != nil {
		log.Printf("Loading settings: %v", err)
		st = settings.Settings{}
	}

	s.render(w, "index.html", map[string]any{
		"Steps":      s.sess.Steps(),
		"ActiveStep": string(s.sess.Active()),
		"News":       news,
		"Posts":      views,
		"Thinking":   s.sess.ThinkingMode(),
		"Generating": s.sess.Generating(),
		"LastError":  s.sess.LastError(),
		"Connected":  st.IsConnected,
	})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if err := s.sess.FetchNews(r.Context()); err != nil {
		log.Printf("Fetching news: %v", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	// Run in the background so refreshes show posts appearing one by one.
	go func() {
		if err := s.sess.GenerateContent(context.Background()); err != nil {
			log.Printf("Generating content: %v", err)
		}
	}()

	http.Redirect(w, r, "/", http.StatusFound)
}

// handlePostAction dispatches /posts/{index}/{action}.
func (s *Server) handlePostAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/posts/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	index, err := strconv.Atoi(parts[0])
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	switch parts[1] {
	case "caption":
		if err := s.sess.UpdateCaption(index, r.FormValue("caption")); err != nil {
			log.Printf("Updating caption for post %d: %v", index, err)
		}
	case "fire":
		if err := s.sess.FireNow(index); err != nil {
			log.Printf("Posting %d: %v", index, err)
		}
	case "schedule":
		target, err := time.ParseInLocation("2006-01-02T15:04", r.FormValue("time"), time.Local)
		if err != nil {
			http.Redirect(w, r, "/?err="+errQuery("Invalid date/time."), http.StatusFound)
			return
		}
		if err := s.sess.Schedule(index, target); err != nil {
			msg := "Could not schedule post."
			if err == schedule.ErrPastTime {
				msg = "Scheduled time must be in the future."
			}
			http.Redirect(w, r, "/?err="+errQuery(msg), http.StatusFound)
			return
		}
	case "cancel":
		s.sess.CancelSchedule(index)
	case "retry":
		if err := s.sess.RetryPost(index); err != nil {
			log.Printf("Retrying post %d: %v", index, err)
		}
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleThinking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.sess.SetThinkingMode(r.FormValue("thinking") == "on")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.sess.Reset()
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Load()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "settings.html", map[string]any{
		"Settings":   st,
		"HasSecret":  st.ClientSecret != "",
		"HasAPIKey":  st.APIKey != "",
		"Error":      r.URL.Query().Get("err"),
		"JustLinked": r.URL.Query().Get("connected") == "1",
	})
}

func (s *Server) handleSettingsSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/settings", http.StatusFound)
		return
	}

	clientID := strings.TrimSpace(r.FormValue("client_id"))
	clientSecret := strings.TrimSpace(r.FormValue("client_secret"))
	apiKey := strings.TrimSpace(r.FormValue("api_key"))

	if err := s.store.SaveCredentials(clientID, clientSecret, apiKey); err != nil {
		log.Printf("Saving credentials: %v", err)
		http.Redirect(w, r, "/settings?err="+errQuery("Could not save settings."), http.StatusFound)
		return
	}
	http.Redirect(w, r, "/settings", http.StatusFound)
}

func (s *Server) handleSettingsDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/settings", http.StatusFound)
		return
	}
	if err := s.store.Disconnect(); err != nil {
		log.Printf("Disconnecting: %v", err)
	}
	http.Redirect(w, r, "/settings", http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func errQuery(msg string) string {
	return template.URLQueryEscaper(msg)
}

// Serve starts the HTTP server on the given port.
func Serve(sess *session.Session, store *settings.Store, authHandler *auth.Handler, port int) error {
	srv, err := New(sess, store, authHandler)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
