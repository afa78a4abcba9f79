package handler

import (
	"errors"
	"net/http"
)

// maxUploadMemory is how much of a multipart upload is held in memory
// before spilling to temporary files.
const maxUploadMemory = 4 << 20

// Upload handles POST /uploads. The document is sent as the multipart field
// "file"; the response is the {url, name} reference to store on an entry.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return
		}
		requestError(w, "multipart form with a file field is required")
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		requestError(w, "file is required")
		return
	}
	defer f.Close()

	ref, err := s.Uploads.Upload(r.Context(), hdr.Filename, f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ref)
}
