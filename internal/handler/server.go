// Package handler implements the HTTP surface of the CMS backend.
// Handlers decode requests, call the service layer, and map domain errors to
// HTTP status codes. Methods are split into endpoint-specific files but all
// share the same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkwell-cms/backend/internal/domain"
	"github.com/inkwell-cms/backend/internal/revalidate"
	"github.com/inkwell-cms/backend/internal/service"
)

// PostServicer defines the business operations the post handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type PostServicer interface {
	Create(ctx context.Context, actor *domain.Actor, in service.PostInput, opts service.WriteOptions) (domain.Post, error)
	Update(ctx context.Context, actor *domain.Actor, id uuid.UUID, in service.PostInput, opts service.WriteOptions) (domain.Post, error)
	Delete(ctx context.Context, actor *domain.Actor, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (domain.Post, error)
	GetPublishedBySlug(ctx context.Context, slug string) (domain.Post, error)
	Search(ctx context.Context, q domain.SearchParams, p domain.PaginationParams) ([]domain.Post, int64, error)
	BulkTransition(ctx context.Context, actor *domain.Actor, ids []string, action service.BulkAction) (service.BulkResult, error)
}

// Server holds the dependencies shared by every handler method.
type Server struct {
	posts       PostServicer
	invalidator revalidate.CacheInvalidator
	secret      string
	log         *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// secret is the shared revalidation secret, loaded once at process start.
func NewServer(posts PostServicer, invalidator revalidate.CacheInvalidator, secret string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{posts: posts, invalidator: invalidator, secret: secret, log: log}
}

// Routes mounts every endpoint on a fresh chi router.
// Global middleware (logging, CORS, body limits) is applied by main; only
// routing lives here. revalidateMW is applied to /api/revalidate alone —
// main passes the rate limiter, tests pass nothing.
func (s *Server) Routes(revalidateMW ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.Health)
	r.Get("/openapi.yaml", s.OpenAPI)

	r.With(revalidateMW...).Post("/api/revalidate", s.Revalidate)

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", s.SearchPosts)
		r.Post("/", s.CreatePost)
		r.Post("/bulk", s.BulkTransition)
		r.Get("/{id}", s.GetPost)
		r.Put("/{id}", s.UpdatePost)
		r.Delete("/{id}", s.DeletePost)
	})

	r.Get("/blog/{slug}", s.GetPublishedPost)

	return r
}
