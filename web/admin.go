package web

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/c360studio/tienditas/admin"
	"github.com/c360studio/tienditas/llm"
	"github.com/c360studio/tienditas/store"
)

// handleAdminPage serves the console shell; everything dynamic goes through
// the JSON API below.
func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	page, err := staticFiles.ReadFile("static/admin.html")
	if err != nil {
		http.Error(w, "console page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// ----------------------------------------------------------------------------
// GET /api/admin/state
// ----------------------------------------------------------------------------

// AdminState is the response body for GET /api/admin/state.
type AdminState struct {
	// Selected is the store currently open in the console.
	Selected string `json:"selected"`

	// Draft is the working copy with uncommitted edits.
	Draft store.Collection `json:"draft"`

	// Committed is the snapshot visitors currently see.
	Committed store.Collection `json:"committed"`

	// Notification is the transient save confirmation, empty when none.
	Notification string `json:"notification"`
}

// handleAdminState returns the full editor state for the console.
func (s *Server) handleAdminState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, AdminState{
		Selected:     s.editor.Selected(),
		Draft:        s.editor.Draft(),
		Committed:    s.editor.Committed(),
		Notification: s.editor.Notification(),
	})
}

// ----------------------------------------------------------------------------
// POST /api/admin/select
// ----------------------------------------------------------------------------

// SelectRequest is the request body for POST /api/admin/select.
type SelectRequest struct {
	StoreID string `json:"storeId"`
}

func (s *Server) handleSelectStore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := s.editor.SelectStore(req.StoreID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ----------------------------------------------------------------------------
// POST /api/admin/field
// ----------------------------------------------------------------------------

// SetFieldRequest is the request body for POST /api/admin/field. Path is a
// dotted path rooted at a store identifier, e.g. "sachacacao.heroBanner.title"
// or "sachacacao.products.0.price".
type SetFieldRequest struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req SetFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	path, err := admin.ParsePath(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	value, err := decodeFieldValue(req.Value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.editor.SetField(path, value); err != nil {
		var perr *admin.PathError
		if errors.As(err, &perr) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// decodeFieldValue maps a raw JSON value onto the types the draft engine
// accepts. Shape decides: scalars stay scalars, an all-string object is a
// palette, any other object is a product, an array is a product list.
func decodeFieldValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, errors.New("value is required")
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, nil
	}
	var palette map[string]string
	if err := json.Unmarshal(raw, &palette); err == nil {
		return palette, nil
	}
	var product store.Product
	if err := json.Unmarshal(raw, &product); err == nil && raw[0] == '{' {
		return product, nil
	}
	var list []store.Product
	if err := json.Unmarshal(raw, &list); err == nil && raw[0] == '[' {
		return list, nil
	}
	return nil, errors.New("unsupported value shape")
}

// ----------------------------------------------------------------------------
// POST /api/admin/product and friends
// ----------------------------------------------------------------------------

// ProductRequest is the request body for POST /api/admin/product. StoreID
// defaults to the selected store.
type ProductRequest struct {
	StoreID string        `json:"storeId"`
	Product store.Product `json:"product"`
}

func (s *Server) handleUpsertProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.StoreID == "" {
		req.StoreID = s.editor.Selected()
	}
	if req.Product.Price < 0 {
		http.Error(w, "product price must not be negative", http.StatusBadRequest)
		return
	}

	saved, err := s.editor.UpsertProduct(req.StoreID, req.Product)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeleteProductRequest is the request body for POST /api/admin/product/delete.
type DeleteProductRequest struct {
	StoreID   string `json:"storeId"`
	ProductID int64  `json:"productId"`
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req DeleteProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.StoreID == "" {
		req.StoreID = s.editor.Selected()
	}

	if err := s.editor.DeleteProduct(req.StoreID, req.ProductID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleProductTemplate returns a placeholder product for the console's
// "add product" form.
func (s *Server) handleProductTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, admin.NewProductTemplate())
}

// ----------------------------------------------------------------------------
// POST /api/admin/store
// ----------------------------------------------------------------------------

// CreateStoreRequest is the request body for POST /api/admin/store. Record
// is optional; absent fields are backfilled with defaults.
type CreateStoreRequest struct {
	StoreID string        `json:"storeId"`
	Record  *store.Record `json:"record,omitempty"`
}

// CreateStoreResponse is the response from POST /api/admin/store.
type CreateStoreResponse struct {
	StoreID string `json:"storeId"`
	// VisitURL is the public path the new storefront will live at once
	// committed.
	VisitURL string `json:"visitUrl"`
}

func (s *Server) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req CreateStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.editor.CreateStore(req.StoreID, req.Record); err != nil {
		switch {
		case errors.Is(err, admin.ErrStoreExists):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, admin.ErrInvalidStoreID):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, CreateStoreResponse{
		StoreID:  req.StoreID,
		VisitURL: "/" + req.StoreID,
	})
}

// ----------------------------------------------------------------------------
// POST /api/admin/commit
// ----------------------------------------------------------------------------

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.editor.Commit(r.Context())
	s.metrics.Commits.Inc()
	writeJSON(w, http.StatusOK, map[string]string{
		"notification": s.editor.Notification(),
	})
}

// ----------------------------------------------------------------------------
// GET /api/admin/notification
// ----------------------------------------------------------------------------

func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"notification": s.editor.Notification(),
	})
}

// ----------------------------------------------------------------------------
// POST /api/admin/palette
// ----------------------------------------------------------------------------

// PaletteRequest is the request body for POST /api/admin/palette. Image is
// the logo encoded as base64; the derived palette is applied to the draft
// theme of StoreID (selected store when empty).
type PaletteRequest struct {
	StoreID string `json:"storeId"`
	MIME    string `json:"mime"`
	Image   string `json:"image"`
}

// PaletteResponse is the response from POST /api/admin/palette.
type PaletteResponse struct {
	Theme map[string]string `json:"theme"`
}

// handlePalette derives a theme from a logo image and applies it to the
// draft. The committed collection is untouched until the next commit; a
// model failure leaves the draft theme as it was.
func (s *Server) handlePalette(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.palette == nil {
		http.Error(w, "palette derivation is not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	var req PaletteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.StoreID == "" {
		req.StoreID = s.editor.Selected()
	}

	data, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		http.Error(w, "image must be base64 encoded", http.StatusBadRequest)
		return
	}

	theme, err := admin.DerivePalette(r.Context(), s.palette, llm.Image{MIME: req.MIME, Data: data})
	if err != nil {
		s.metrics.PaletteRequests.WithLabelValues("error").Inc()
		s.logger.Error("Palette derivation failed", "store", req.StoreID, "error", err)
		http.Error(w, "palette derivation failed", http.StatusBadGateway)
		return
	}

	if err := s.editor.SetField(admin.Path{admin.Key(req.StoreID), admin.Key("theme")}, theme); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.metrics.PaletteRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, PaletteResponse{Theme: theme})
}
