package handler

import "net/http"

// GetCatalog handles GET /catalog: the timeline categories with their
// options and the trip types clients build their forms from.
func (s *Server) GetCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog)
}
