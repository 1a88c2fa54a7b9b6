// Package web provides the live preview server. It serves an embedded
// reader page, a small JSON API and a WebSocket endpoint that re-renders
// text as the client adjusts the emphasis ratio.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/machenxing/bionic/core/bionic"
	"github.com/machenxing/bionic/core/cache"
	"github.com/machenxing/bionic/core/encoding"
	"github.com/machenxing/bionic/internal/library"
	"github.com/machenxing/bionic/internal/logging"
	"github.com/machenxing/bionic/internal/settings"
	"github.com/machenxing/bionic/internal/sources"
)

//go:embed templates/*.html
var templatesFS embed.FS

// previewMarkup is the markup convention used for browser output.
var previewMarkup = bionic.Markup{
	Open:   "<b>",
	Close:  "</b>",
	Escape: encoding.EscapeHTML,
}

// Config holds preview server configuration.
type Config struct {
	Port     int
	Settings settings.Settings
	Library  *library.Store // optional; recent documents disabled when nil
}

// Server is the preview server.
type Server struct {
	cfg       Config
	hub       *Hub
	cache     *cache.RenderCache
	templates *template.Template
}

// NewServer builds a preview server. The hub loop is started by Start; tests
// driving handlers directly should call StartHub themselves.
func NewServer(cfg Config) (*Server, error) {
	cfg.Settings.Clamp()
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Server{
		cfg:       cfg,
		hub:       NewHub(),
		cache:     cache.NewDefaultRenderCache(),
		templates: tmpl,
	}, nil
}

// StartHub launches the hub's dispatch loop.
func (s *Server) StartHub() {
	go s.hub.Run()
}

// Routes returns the server's handler with logging and request IDs applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/recent", s.handleRecent)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return logging.CombinedMiddleware(mux)
}

// Start runs the server until it fails.
func (s *Server) Start() error {
	s.StartHub()
	logging.ServerStartup("preview", "http", s.cfg.Port)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

type indexData struct {
	Settings settings.Settings
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "reader.html", indexData{Settings: s.cfg.Settings}); err != nil {
		logging.Error("rendering reader page", "error", err)
	}
}

type renderRequest struct {
	Text  string   `json:"text"`
	Ratio *float64 `json:"ratio,omitempty"`
}

type renderResponse struct {
	HTML  string  `json:"html"`
	Ratio float64 `json:"ratio"`
}

// handleRender transforms posted text. The ratio falls back to the server's
// configured settings when the request omits it.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	ratio := s.cfg.Settings.Ratio()
	if req.Ratio != nil {
		ratio = bionic.ClampRatio(*req.Ratio)
	}

	start := time.Now()
	html := s.cache.Render(req.Text, ratio, previewMarkup, "html")
	logging.RenderEvent("html", ratio, len(req.Text), time.Since(start))

	writeJSON(w, http.StatusOK, renderResponse{HTML: html, Ratio: ratio})
}

type recentEntry struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Path       string `json:"path"`
	Format     string `json:"format"`
	SizeBytes  int64  `json:"size_bytes"`
	LastOpened string `json:"last_opened"`
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	if s.cfg.Library == nil {
		writeJSON(w, http.StatusOK, []recentEntry{})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.cfg.Library.Recent(limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]recentEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, recentEntry{
			ID:         e.ID,
			Title:      e.Title,
			Path:       e.Path,
			Format:     e.Format,
			SizeBytes:  e.SizeBytes,
			LastOpened: e.LastOpened.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// extract re-reads a document from disk with whatever extractors the binary
// has registered.
func (s *Server) extract(path string) (*sources.Document, error) {
	return sources.Extract(path, sources.Options{})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("encoding response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
