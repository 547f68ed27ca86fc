package web

import (
	"errors"
	"net/http"

	"github.com/c360studio/tienditas/media"
)

// UploadResponse is the response from POST /api/media/upload.
type UploadResponse struct {
	URL string `json:"url"`
}

// handleMediaUpload receives a multipart image under the "image" field and
// returns its hosted URL for use in product or banner fields.
func (s *Server) handleMediaUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.uploader == nil || !s.uploader.Enabled() {
		http.Error(w, "media uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := s.uploader.Upload(r.Context(), file)
	if err != nil {
		if errors.Is(err, media.ErrDisabled) {
			http.Error(w, "media uploads are not configured", http.StatusServiceUnavailable)
			return
		}
		s.metrics.Uploads.WithLabelValues("error").Inc()
		s.logger.Error("Media upload failed", "error", err)
		http.Error(w, "upload failed", http.StatusBadGateway)
		return
	}

	s.metrics.Uploads.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, UploadResponse{URL: url})
}
