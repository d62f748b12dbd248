package web

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"

	"urltracker/db"
	"urltracker/internal/config"
)

const sessionName = "session"

type WebHandler struct {
	repository   db.TrackingRepository
	templates    *template.Template
	sessionStore *sessions.CookieStore
	config       *config.Config
}

type PageData struct {
	URLs []string
	URL  string
}

func NewWebHandler(repository db.TrackingRepository, cfg *config.Config, templatesDir string) (*WebHandler, error) {
	tmpl, err := template.ParseGlob(filepath.Join(templatesDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	store := sessions.NewCookieStore(cfg.SecretKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600, // 1 hour frontend session
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}

	return &WebHandler{
		repository:   repository,
		templates:    tmpl,
		sessionStore: store,
		config:       cfg,
	}, nil
}

// Home renders the landing page with the tracked URL list and marks the
// session as a trusted frontend, which unlocks the map and API routes.
func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionStore.Get(r, sessionName)
	session.Values["authenticated"] = true
	if err := session.Save(r, w); err != nil {
		log.Errorf("Error saving session: %v", err)
	}

	data := PageData{URLs: h.config.URLs}
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// MapTrace renders the location trail map for a single tracked URL.
func (h *WebHandler) MapTrace(w http.ResponseWriter, r *http.Request) {
	if !h.verifyFrontendRequest(r) {
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	}

	data := PageData{URL: r.URL.Query().Get("url")}
	if err := h.templates.ExecuteTemplate(w, "map-trace.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// APILocations returns the chronological location trail for a URL as JSON.
func (h *WebHandler) APILocations(w http.ResponseWriter, r *http.Request) {
	if !h.verifyFrontendRequest(r) {
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	}

	url := pathURL(r)
	observations, err := h.repository.FindByURL(r.Context(), url)
	if err != nil {
		log.Errorf("Error listing locations for %s: %v", url, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(observations); err != nil {
		log.Errorf("Error encoding locations for %s: %v", url, err)
	}
}

// verifyFrontendRequest checks the session flag set by the home page. There
// is no user identity behind it, only a boolean "came from our frontend".
func (h *WebHandler) verifyFrontendRequest(r *http.Request) bool {
	session, _ := h.sessionStore.Get(r, sessionName)
	authenticated, ok := session.Values["authenticated"].(bool)
	return ok && authenticated
}
