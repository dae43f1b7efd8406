// Package repo contains all database access logic for the CMS backend.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/inkwell-cms/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner abstracts pgx.Row and pgx.Rows for the shared scan helper.
type scanner interface {
	Scan(dest ...any) error
}

// PostRepo defines the persistence operations for posts.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type PostRepo interface {
	// Create inserts a new post and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, post domain.Post) (domain.Post, error)

	// GetByID retrieves a single post by its UUID primary key.
	// Returns domain.ErrNotFound if no post with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Post, error)

	// GetBySlug retrieves a single post by slug.
	// Returns domain.ErrNotFound if no post with that slug exists.
	GetBySlug(ctx context.Context, slug string) (domain.Post, error)

	// Update overwrites the mutable fields of an existing post and returns
	// the updated record. Returns domain.ErrNotFound if the ID is unknown.
	Update(ctx context.Context, post domain.Post) (domain.Post, error)

	// Delete removes a post by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Search returns one page of posts matching the filters plus the total
	// match count, ordered by published_at descending (unpublished posts
	// last), then created_at descending.
	Search(ctx context.Context, q domain.SearchParams, p domain.PaginationParams) ([]domain.Post, int64, error)

	// ListDuePublish returns drafts whose publish_at is at or before now,
	// oldest first. Consumed by an external scheduler.
	ListDuePublish(ctx context.Context, now time.Time) ([]domain.Post, error)
}

// pgPostRepo is the Postgres implementation of PostRepo.
type pgPostRepo struct {
	db db
}

// NewPostRepo constructs a PostRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewPostRepo(db db) PostRepo {
	return &pgPostRepo{db: db}
}

const postColumns = `id, title, slug, excerpt, body, status, auto_slug,
	published_at, publish_at, tags, categories, created_at, updated_at`

// Create inserts a new post row and returns the full persisted record.
func (r *pgPostRepo) Create(ctx context.Context, post domain.Post) (domain.Post, error) {
	q := `
		INSERT INTO posts (title, slug, excerpt, body, status, auto_slug,
			published_at, publish_at, tags, categories)
		VALUES (@title, @slug, @excerpt, @body, @status, @auto_slug,
			@published_at, @publish_at, @tags, @categories)
		RETURNING ` + postColumns

	row := r.db.QueryRow(ctx, q, postArgs(post))
	result, err := scanPost(row)
	if err != nil {
		return domain.Post{}, fmt.Errorf("repo.PostRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a single post by primary key.
func (r *pgPostRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanPost(row)
	if err != nil {
		return domain.Post{}, fmt.Errorf("repo.PostRepo.GetByID: %w", err)
	}
	return result, nil
}

// GetBySlug retrieves a single post by slug.
func (r *pgPostRepo) GetBySlug(ctx context.Context, slug string) (domain.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts WHERE slug = @slug`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"slug": slug})
	result, err := scanPost(row)
	if err != nil {
		return domain.Post{}, fmt.Errorf("repo.PostRepo.GetBySlug: %w", err)
	}
	return result, nil
}

// Update overwrites the mutable fields of an existing post.
func (r *pgPostRepo) Update(ctx context.Context, post domain.Post) (domain.Post, error) {
	q := `
		UPDATE posts
		SET title = @title,
			slug = @slug,
			excerpt = @excerpt,
			body = @body,
			status = @status,
			auto_slug = @auto_slug,
			published_at = @published_at,
			publish_at = @publish_at,
			tags = @tags,
			categories = @categories,
			updated_at = now()
		WHERE id = @id
		RETURNING ` + postColumns

	args := postArgs(post)
	args["id"] = post.ID

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanPost(row)
	if err != nil {
		return domain.Post{}, fmt.Errorf("repo.PostRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes a post by ID.
func (r *pgPostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM posts WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.PostRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.PostRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// Search composes the WHERE clause from the optional filters, then runs a
// count query and a page query over the same predicate set.
func (r *pgPostRepo) Search(ctx context.Context, q domain.SearchParams, p domain.PaginationParams) ([]domain.Post, int64, error) {
	where, args := searchPredicates(q)

	countQ := `SELECT count(*) FROM posts WHERE ` + where

	var total int64
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.PostRepo.Search: count: %w", err)
	}

	pageQ := `SELECT ` + postColumns + `
		FROM posts
		WHERE ` + where + `
		ORDER BY published_at DESC NULLS LAST, created_at DESC
		LIMIT @limit OFFSET @offset`
	args["limit"] = p.Limit
	args["offset"] = p.Offset()

	rows, err := r.db.Query(ctx, pageQ, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.PostRepo.Search: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.PostRepo.Search: scan: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.PostRepo.Search: rows: %w", err)
	}
	return posts, total, nil
}

// ListDuePublish returns scheduled drafts whose publish time has arrived.
func (r *pgPostRepo) ListDuePublish(ctx context.Context, now time.Time) ([]domain.Post, error) {
	q := `SELECT ` + postColumns + `
		FROM posts
		WHERE status = 'draft' AND publish_at IS NOT NULL AND publish_at <= @now
		ORDER BY publish_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"now": now})
	if err != nil {
		return nil, fmt.Errorf("repo.PostRepo.ListDuePublish: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.PostRepo.ListDuePublish: scan: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PostRepo.ListDuePublish: rows: %w", err)
	}
	return posts, nil
}

// searchPredicates builds the WHERE clause and named args for Search.
// Filters are ANDed; absent filters contribute nothing.
func searchPredicates(q domain.SearchParams) (string, pgx.NamedArgs) {
	preds := []string{"TRUE"}
	args := pgx.NamedArgs{}

	if q.Status != "" {
		preds = append(preds, "status = @status")
		args["status"] = string(q.Status)
	}
	if q.Keyword != "" {
		preds = append(preds, "(title ILIKE '%' || @keyword || '%' OR excerpt ILIKE '%' || @keyword || '%')")
		args["keyword"] = q.Keyword
	}
	if q.Tag != "" {
		preds = append(preds, "@tag = ANY(tags)")
		args["tag"] = q.Tag
	}
	if q.Category != "" {
		preds = append(preds, "@category = ANY(categories)")
		args["category"] = q.Category
	}

	return strings.Join(preds, " AND "), args
}

// postArgs maps the writable columns of a post into named args.
func postArgs(p domain.Post) pgx.NamedArgs {
	return pgx.NamedArgs{
		"title":        p.Title,
		"slug":         p.Slug,
		"excerpt":      p.Excerpt,
		"body":         p.Body,
		"status":       string(p.Status),
		"auto_slug":    p.AutoSlug,
		"published_at": p.PublishedAt, // nil becomes NULL
		"publish_at":   p.PublishAt,
		"tags":         p.Tags,
		"categories":   p.Categories,
	}
}

// scanPost maps a single database row into a domain.Post.
func scanPost(s scanner) (domain.Post, error) {
	var (
		p      domain.Post
		id     pgtype.UUID
		status string
	)
	err := s.Scan(
		&id, &p.Title, &p.Slug, &p.Excerpt, &p.Body, &status, &p.AutoSlug,
		&p.PublishedAt, &p.PublishAt, &p.Tags, &p.Categories,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Post{}, domain.ErrNotFound
		}
		return domain.Post{}, err
	}
	p.ID = uuid.UUID(id.Bytes)
	p.Status = domain.Status(status)
	return p, nil
}
