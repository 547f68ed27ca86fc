// Package web serves the storefront pages, the admin console, and the JSON
// API that backs both.
package web

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/c360studio/tienditas/admin"
	"github.com/c360studio/tienditas/chat"
	"github.com/c360studio/tienditas/media"
	"github.com/c360studio/tienditas/render"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// maxUploadSize limits media upload bodies.
const maxUploadSize = 10 << 20 // 10 MB

//go:embed static
var staticFiles embed.FS

// Server wires the editor, renderer, chat manager and media uploader behind
// an HTTP mux.
type Server struct {
	editor   *admin.Editor
	engine   *render.Engine
	chats    *chat.Manager
	palette  admin.Completer
	uploader media.Uploader
	metrics  *Metrics
	logger   *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithChatManager enables the storefront chat endpoints.
func WithChatManager(m *chat.Manager) ServerOption {
	return func(s *Server) { s.chats = m }
}

// WithPaletteClient enables AI palette derivation in the admin console.
func WithPaletteClient(c admin.Completer) ServerOption {
	return func(s *Server) { s.palette = c }
}

// WithUploader enables media uploads.
func WithUploader(u media.Uploader) ServerOption {
	return func(s *Server) { s.uploader = u }
}

// WithMetrics sets the metrics collection for the server.
func WithMetrics(m *Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates a Server around an editor and a render engine.
func NewServer(editor *admin.Editor, engine *render.Engine, opts ...ServerOption) *Server {
	s := &Server{
		editor:  editor,
		engine:  engine,
		metrics: NewMetrics(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the fully wired request mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Storefront
	mux.HandleFunc("/", s.handleStorefront)
	static, _ := fs.Sub(staticFiles, "static")
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(static))))

	// Admin console and API
	mux.HandleFunc("/admin", s.handleAdminPage)
	mux.HandleFunc("/api/admin/state", s.handleAdminState)
	mux.HandleFunc("/api/admin/select", s.handleSelectStore)
	mux.HandleFunc("/api/admin/field", s.handleSetField)
	mux.HandleFunc("/api/admin/product", s.handleUpsertProduct)
	mux.HandleFunc("/api/admin/product/delete", s.handleDeleteProduct)
	mux.HandleFunc("/api/admin/product/template", s.handleProductTemplate)
	mux.HandleFunc("/api/admin/store", s.handleCreateStore)
	mux.HandleFunc("/api/admin/commit", s.handleCommit)
	mux.HandleFunc("/api/admin/palette", s.handlePalette)
	mux.HandleFunc("/api/admin/notification", s.handleNotification)

	// Storefront API
	mux.HandleFunc("/api/chat/", s.handleChat)
	mux.HandleFunc("/api/cart/message", s.handleCartMessage)
	mux.HandleFunc("/api/media/upload", s.handleMediaUpload)

	// Operational
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON marshals v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response is already partially written; nothing to recover.
		_ = err
	}
}
