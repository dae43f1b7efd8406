package handler

import (
	"encoding/json"
	"net/http"

	"github.com/inkwell-cms/backend/internal/middleware"
	"github.com/inkwell-cms/backend/internal/service"
)

// bulkRequest is the JSON body for POST /posts/bulk.
type bulkRequest struct {
	IDs    []string `json:"ids"`
	Action string   `json:"action"`
}

// BulkTransition handles POST /posts/bulk.
//
// The call fails as a whole on missing auth or malformed input; after that,
// items are isolated — the response reports count of successes plus a
// per-item result, never a batch-wide 500 for one bad item.
func (s *Server) BulkTransition(w http.ResponseWriter, r *http.Request) {
	var body bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	result, err := s.posts.BulkTransition(r.Context(), middleware.ActorFrom(r.Context()),
		body.IDs, service.BulkAction(body.Action))
	if err != nil {
		s.writeDomainError(w, err, "post not found")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
