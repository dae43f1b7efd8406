// Package service contains the business logic for the CMS backend.
// Services gate capabilities, validate inputs, run the publication state
// machine, and orchestrate repo calls. No SQL and no HTTP lives here.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/inkwell-cms/backend/internal/domain"
	"github.com/inkwell-cms/backend/internal/publish"
	"github.com/inkwell-cms/backend/internal/repo"
	"github.com/inkwell-cms/backend/internal/slug"
)

// Dispatcher is the invalidation capability the service depends on.
// Defining the interface here (in the consumer package) lets tests inject a
// recording double instead of a real HTTP cascade.
type Dispatcher interface {
	// Dispatch is fire-and-forget; it must return without waiting for delivery.
	Dispatch(next domain.Post, prev *domain.Post)
}

// PostInput carries the writable fields of a post through Create and Update.
type PostInput struct {
	Title   string
	Slug    string
	Excerpt string
	Body    string
	Status  domain.Status
	// AutoSlug is three-valued: nil means the caller did not touch the
	// generate-slug flag, so Create enables it and Update keeps the stored
	// value. Only an explicit true re-enables generation after a manual edit
	// switched it off.
	AutoSlug *bool
	// PublishAt optionally schedules a future publish; it has no effect on
	// the current write beyond being stored.
	PublishAt  *time.Time
	Tags       []string
	Categories []string
}

// Validate checks the input against the business rules.
func (in PostInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&in.Status, validation.Required, validation.In(domain.StatusDraft, domain.StatusPublished)),
		validation.Field(&in.Slug, validation.By(slugURLSafe)),
	)
}

// slugURLSafe accepts empty (no manual slug) or an already-derived value:
// a manual slug is persisted verbatim, so it must hold the same invariant a
// derived one does or /blog/{slug} routing breaks.
func slugURLSafe(value any) error {
	s, _ := value.(string)
	if s == "" || slug.Derive(s) == s {
		return nil
	}
	return errors.New("must contain only lowercase letters, digits, and single hyphens")
}

// WriteOptions tunes a single write call.
type WriteOptions struct {
	// SkipRevalidation suppresses the invalidation cascade for this write.
	// Used by bulk imports and migrations that revalidate once at the end.
	SkipRevalidation bool
}

// BulkAction is a recognized bulk transition verb.
type BulkAction string

const (
	ActionPublish   BulkAction = "publish"
	ActionUnpublish BulkAction = "unpublish"
)

// BulkItem is the per-post outcome of a bulk transition.
// Failures are isolated: one item's error never aborts the rest.
type BulkItem struct {
	ID    string       `json:"id"`
	OK    bool         `json:"ok"`
	Error string       `json:"error,omitempty"`
	Post  *domain.Post `json:"post,omitempty"`
}

// BulkResult is the aggregate outcome of a bulk transition.
type BulkResult struct {
	Count int           `json:"count"`
	Items []BulkItem    `json:"results"`
	Docs  []domain.Post `json:"docs"`
}

// PostService implements the publication pipeline around posts: slug
// resolution, the draft/published state machine, persistence, and the
// cache-invalidation cascade triggered after each committed write.
type PostService struct {
	posts   repo.PostRepo
	cascade Dispatcher

	// now is swapped out by tests to pin the publish stamp.
	now func() time.Time
}

// NewPostService constructs a PostService.
func NewPostService(posts repo.PostRepo, cascade Dispatcher) *PostService {
	return &PostService{posts: posts, cascade: cascade, now: time.Now}
}

// WithClock overrides the service clock. Test hook.
func (s *PostService) WithClock(now func() time.Time) *PostService {
	s.now = now
	return s
}

// Create validates and persists a new post, then dispatches invalidation.
// The actor needs posts:write, plus posts:publish when creating directly
// into the published state. Authorization fails before any mutation.
func (s *PostService) Create(ctx context.Context, actor *domain.Actor, in PostInput, opts WriteOptions) (domain.Post, error) {
	if err := s.gate(actor, in.Status != domain.StatusDraft); err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Create: %w", err)
	}
	if err := in.Validate(); err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Create: %w: %s", domain.ErrValidation, err)
	}

	post := postFromInput(in)
	post.Slug, post.AutoSlug = slug.Resolve(slug.Input{
		Title:    in.Title,
		Slug:     in.Slug,
		AutoSlug: in.AutoSlug == nil || *in.AutoSlug,
	})
	if post.Slug == "" {
		return domain.Post{}, fmt.Errorf("service.PostService.Create: %w: slug cannot be derived from title", domain.ErrValidation)
	}

	publish.Apply(nil, &post, s.now())

	created, err := s.posts.Create(ctx, post)
	if err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Create: %w", err)
	}

	if !opts.SkipRevalidation {
		s.cascade.Dispatch(created, nil)
	}
	return created, nil
}

// Update validates and persists changes to an existing post, then dispatches
// invalidation against the (previous, next) snapshot captured here — the
// cascade never re-reads storage, so a concurrent writer cannot leak state
// into this write's invalidation decision.
func (s *PostService) Update(ctx context.Context, actor *domain.Actor, id uuid.UUID, in PostInput, opts WriteOptions) (domain.Post, error) {
	if err := s.gate(actor, false); err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Update: %w", err)
	}

	prev, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Update: %w", err)
	}

	// Changing publication state needs the publish capability on top of write.
	if in.Status != prev.Status {
		if err := s.gate(actor, true); err != nil {
			return domain.Post{}, fmt.Errorf("service.PostService.Update: %w", err)
		}
	}
	if err := in.Validate(); err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Update: %w: %s", domain.ErrValidation, err)
	}

	// An omitted auto_slug keeps the stored flag: once a manual edit turned
	// generation off, only an explicit true turns it back on.
	autoSlug := prev.AutoSlug
	if in.AutoSlug != nil {
		autoSlug = *in.AutoSlug
	}

	next := postFromInput(in)
	next.ID = prev.ID
	next.CreatedAt = prev.CreatedAt
	next.Slug, next.AutoSlug = slug.Resolve(slug.Input{
		Title:    in.Title,
		Slug:     in.Slug,
		PrevSlug: prev.Slug,
		AutoSlug: autoSlug,
	})
	if next.Slug == "" {
		return domain.Post{}, fmt.Errorf("service.PostService.Update: %w: slug cannot be derived from title", domain.ErrValidation)
	}

	publish.Apply(&prev, &next, s.now())

	updated, err := s.posts.Update(ctx, next)
	if err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Update: %w", err)
	}

	if !opts.SkipRevalidation {
		s.cascade.Dispatch(updated, &prev)
	}
	return updated, nil
}

// BulkTransition publishes or unpublishes a batch of posts.
//
// The whole call fails fast with ErrUnauthorized/ErrForbidden/ErrValidation
// before touching any post. After that, items are applied independently:
// a missing id or failed persist marks that item failed and the batch moves
// on. Items run sequentially so results keep the request order; nothing in
// the admin UI sends batches big enough to need concurrency here.
func (s *PostService) BulkTransition(ctx context.Context, actor *domain.Actor, ids []string, action BulkAction) (BulkResult, error) {
	if err := s.gate(actor, true); err != nil {
		return BulkResult{}, fmt.Errorf("service.PostService.BulkTransition: %w", err)
	}
	if len(ids) == 0 {
		return BulkResult{}, fmt.Errorf("service.PostService.BulkTransition: %w: ids must be a non-empty array", domain.ErrValidation)
	}
	if action != ActionPublish && action != ActionUnpublish {
		return BulkResult{}, fmt.Errorf("service.PostService.BulkTransition: %w: action must be publish or unpublish", domain.ErrValidation)
	}

	status := domain.StatusPublished
	if action == ActionUnpublish {
		status = domain.StatusDraft
	}

	result := BulkResult{Items: make([]BulkItem, 0, len(ids))}
	for _, raw := range ids {
		item := BulkItem{ID: raw}

		updated, err := s.transitionOne(ctx, raw, status)
		if err != nil {
			item.Error = err.Error()
			result.Items = append(result.Items, item)
			continue
		}

		item.OK = true
		item.Post = &updated
		result.Items = append(result.Items, item)
		result.Docs = append(result.Docs, updated)
		result.Count++
	}
	return result, nil
}

// transitionOne applies the state machine to a single post identified by its
// raw id string and persists the result. Used only by BulkTransition.
func (s *PostService) transitionOne(ctx context.Context, raw string, status domain.Status) (domain.Post, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return domain.Post{}, fmt.Errorf("invalid id: %w", err)
	}

	prev, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return domain.Post{}, err
	}

	next := prev
	next.Status = status
	publish.Apply(&prev, &next, s.now())

	updated, err := s.posts.Update(ctx, next)
	if err != nil {
		return domain.Post{}, err
	}

	s.cascade.Dispatch(updated, &prev)
	return updated, nil
}

// Get returns a single post by ID, drafts included (admin read model).
func (s *PostService) Get(ctx context.Context, id uuid.UUID) (domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.Get: %w", err)
	}
	return post, nil
}

// GetPublishedBySlug returns a post by slug only if it is published.
// Drafts are indistinguishable from missing posts on the public read model.
func (s *PostService) GetPublishedBySlug(ctx context.Context, sl string) (domain.Post, error) {
	post, err := s.posts.GetBySlug(ctx, sl)
	if err != nil {
		return domain.Post{}, fmt.Errorf("service.PostService.GetPublishedBySlug: %w", err)
	}
	if !post.IsPublished() {
		return domain.Post{}, fmt.Errorf("service.PostService.GetPublishedBySlug: %w", domain.ErrNotFound)
	}
	return post, nil
}

// Search runs the filtered, paginated listing query.
func (s *PostService) Search(ctx context.Context, q domain.SearchParams, p domain.PaginationParams) ([]domain.Post, int64, error) {
	posts, total, err := s.posts.Search(ctx, q, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.PostService.Search: %w", err)
	}
	return posts, total, nil
}

// Delete removes a post and invalidates whatever it had cached.
func (s *PostService) Delete(ctx context.Context, actor *domain.Actor, id uuid.UUID) error {
	if err := s.gate(actor, false); err != nil {
		return fmt.Errorf("service.PostService.Delete: %w", err)
	}

	prev, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service.PostService.Delete: %w", err)
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.PostService.Delete: %w", err)
	}

	// A deleted post is an unpublish as far as the cache is concerned.
	gone := prev
	gone.Status = domain.StatusDraft
	s.cascade.Dispatch(gone, &prev)
	return nil
}

// gate enforces the capability checks shared by every mutating operation.
// publishing=true additionally requires posts:publish.
func (s *PostService) gate(actor *domain.Actor, publishing bool) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	if !actor.Can(domain.CapWritePosts) {
		return domain.ErrForbidden
	}
	if publishing && !actor.Can(domain.CapPublishPosts) {
		return domain.ErrForbidden
	}
	return nil
}

// postFromInput copies the writable fields into a fresh domain.Post.
// Slug and AutoSlug are overwritten by slug.Resolve before the post persists.
func postFromInput(in PostInput) domain.Post {
	return domain.Post{
		Title:      in.Title,
		Slug:       in.Slug,
		Excerpt:    in.Excerpt,
		Body:       in.Body,
		Status:     in.Status,
		PublishAt:  in.PublishAt,
		Tags:       in.Tags,
		Categories: in.Categories,
	}
}
