package handler

import (
	"net/http"

	"github.com/inkwell-cms/backend/spec"
)

// OpenAPI serves the embedded API specification.
func (s *Server) OpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}
