package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/inkwell-cms/backend/internal/metrics"
)

// revalidateRequest is the JSON body for POST /api/revalidate.
// Path and Paths are merged; Tag is applied after the paths.
type revalidateRequest struct {
	Secret string   `json:"secret"`
	Path   string   `json:"path,omitempty"`
	Paths  []string `json:"paths,omitempty"`
	Tag    string   `json:"tag,omitempty"`
}

// revalidateResponse mirrors the render tier's contract: ok reflects only the
// secret check, never per-path outcomes — the caller is fire-and-forget and
// could not act on partial failure anyway.
type revalidateResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Revalidate handles POST /api/revalidate — the trust boundary of the
// invalidation pipeline.
//
// The secret must match exactly; an empty inbound or configured secret never
// matches anything. Past the secret check, path and tag invalidations are
// collect-and-continue: one failure is logged and the rest still run.
func (s *Server) Revalidate(w http.ResponseWriter, r *http.Request) {
	var body revalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, revalidateResponse{OK: false, Message: "invalid JSON body"})
		return
	}

	if !secretMatches(body.Secret, s.secret) {
		metrics.RevalidateRejected.WithLabelValues("secret").Inc()
		writeJSON(w, http.StatusUnauthorized, revalidateResponse{OK: false, Message: "invalid secret"})
		return
	}

	paths := body.Paths
	if body.Path != "" {
		paths = append([]string{body.Path}, paths...)
	}

	for _, p := range paths {
		if err := s.invalidator.InvalidatePath(r.Context(), p); err != nil {
			s.log.Warn("path invalidation failed", "path", p, "error", err)
		}
	}

	if body.Tag != "" {
		if err := s.invalidator.InvalidateTag(r.Context(), body.Tag); err != nil {
			s.log.Warn("tag invalidation failed", "tag", body.Tag, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, revalidateResponse{OK: true})
}

// secretMatches compares the inbound secret against the configured one.
// Both must be non-empty: a blank configured secret must never turn into an
// accidental match with a blank request field.
func secretMatches(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
