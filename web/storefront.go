package web

import (
	"net/http"
	"strings"

	"github.com/c360studio/tienditas/render"
	"github.com/c360studio/tienditas/store"
)

// handleStorefront serves GET /{storeId}. The bare root redirects to the
// default store so the landing URL always shows a storefront.
func (s *Server) handleStorefront(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path == "/" {
		http.Redirect(w, r, "/"+store.DefaultStoreID, http.StatusFound)
		return
	}

	storeID := strings.Trim(r.URL.Path, "/")
	if strings.Contains(storeID, "/") {
		http.NotFound(w, r)
		return
	}

	// Visitors only ever see committed data.
	collection := s.editor.Committed()
	resolvedID, rec, ok := render.ResolveStore(collection, storeID)
	if !ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		if err := s.engine.RenderNotFound(w, storeID); err != nil {
			s.logger.Error("Failed to render not-found page", "store", storeID, "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.engine.Render(w, resolvedID, rec); err != nil {
		s.logger.Error("Failed to render storefront", "store", resolvedID, "error", err)
		return
	}
	s.metrics.PageRenders.WithLabelValues(resolvedID, string(rec.TemplateID)).Inc()
}
