package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkwell-cms/backend/internal/domain"
	"github.com/inkwell-cms/backend/internal/middleware"
	"github.com/inkwell-cms/backend/internal/service"
)

// postRequest is the JSON body for POST /posts and PUT /posts/{id}.
type postRequest struct {
	Title    string        `json:"title"`
	Slug     string        `json:"slug"`
	Excerpt  string        `json:"excerpt"`
	Body     string        `json:"body"`
	Status   domain.Status `json:"status"`
	AutoSlug *bool         `json:"auto_slug"`
	// SkipRevalidation suppresses the invalidation cascade for this write.
	SkipRevalidation bool       `json:"skip_revalidation,omitempty"`
	PublishAt        *time.Time `json:"publish_at,omitempty"`
	Tags             []string   `json:"tags"`
	Categories       []string   `json:"categories"`
}

// toInput converts the request body to a service input.
// Missing status defaults to draft. A missing auto_slug stays nil so the
// service can tell "field omitted" apart from an explicit choice: create
// defaults to generating, update keeps the stored flag.
func (b postRequest) toInput() service.PostInput {
	in := service.PostInput{
		Title:      b.Title,
		Slug:       b.Slug,
		Excerpt:    b.Excerpt,
		Body:       b.Body,
		Status:     b.Status,
		AutoSlug:   b.AutoSlug,
		PublishAt:  b.PublishAt,
		Tags:       b.Tags,
		Categories: b.Categories,
	}
	if in.Status == "" {
		in.Status = domain.StatusDraft
	}
	return in
}

// listResponse is the envelope for paginated listings.
type listResponse struct {
	Data       []domain.Post `json:"data"`
	Pagination pagination    `json:"pagination"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// CreatePost handles POST /posts.
func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	var body postRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	created, err := s.posts.Create(r.Context(), middleware.ActorFrom(r.Context()), body.toInput(),
		service.WriteOptions{SkipRevalidation: body.SkipRevalidation})
	if err != nil {
		s.writeDomainError(w, err, "post not found")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// UpdatePost handles PUT /posts/{id}.
func (s *Server) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid post id")
		return
	}

	var body postRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	updated, err := s.posts.Update(r.Context(), middleware.ActorFrom(r.Context()), id, body.toInput(),
		service.WriteOptions{SkipRevalidation: body.SkipRevalidation})
	if err != nil {
		s.writeDomainError(w, err, "post not found")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeletePost handles DELETE /posts/{id}.
func (s *Server) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid post id")
		return
	}

	if err := s.posts.Delete(r.Context(), middleware.ActorFrom(r.Context()), id); err != nil {
		s.writeDomainError(w, err, "post not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPost handles GET /posts/{id} — the admin read model, drafts included.
func (s *Server) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid post id")
		return
	}

	post, err := s.posts.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err, "post not found")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// GetPublishedPost handles GET /blog/{slug} — the public read model.
// Drafts are indistinguishable from missing posts here.
func (s *Server) GetPublishedPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.GetPublishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeDomainError(w, err, "post not found")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// SearchPosts handles GET /posts.
// Filters: ?status=, ?q= (keyword), ?tag=, ?category=.
// Pagination: ?page= and ?limit= (defaults: page=1, limit=20, max=100).
func (s *Server) SearchPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := domain.SearchParams{
		Status:   domain.Status(query.Get("status")),
		Keyword:  query.Get("q"),
		Tag:      query.Get("tag"),
		Category: query.Get("category"),
	}
	if q.Status != "" && !q.Status.Valid() {
		writeError(w, http.StatusBadRequest, "validation_error", "status must be draft or published")
		return
	}

	p := domain.NewPaginationParams(intQuery(query.Get("page")), intQuery(query.Get("limit")))

	posts, total, err := s.posts.Search(r.Context(), q, p)
	if err != nil {
		s.writeDomainError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Data: posts,
		Pagination: pagination{
			Page:  p.Page,
			Limit: p.Limit,
			Total: int(total),
		},
	})
}

// intQuery parses an optional integer query parameter.
// Invalid or absent values yield nil, letting the defaults apply.
func intQuery(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
