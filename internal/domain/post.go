// Package domain contains the core data types for the Inkwell CMS backend.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler, revalidate).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the publication state of a post.
// Only two states exist; scheduled publishing is expressed by a draft post
// carrying a future PublishAt, not by a third status value.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is one of the recognized status values.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Post represents a single blog post — the content document the publication
// pipeline operates on. The rendered body is stored opaque; layout and HTML
// rendering belong to the frontend tier.
type Post struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Slug    string    `json:"slug"`
	Excerpt string    `json:"excerpt,omitempty"`
	Body    string    `json:"body,omitempty"`
	Status  Status    `json:"status"`

	// AutoSlug is true while the slug tracks the title. The first manual
	// edit to the slug turns it off, and it stays off until a user
	// explicitly re-enables it.
	AutoSlug bool `json:"auto_slug"`

	// PublishedAt is stamped on the draft→published transition and retained
	// when the post is later unpublished, as a historical record.
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// PublishAt optionally schedules a future publish. The service never
	// polls it; an external scheduler queries due posts and publishes them.
	PublishAt *time.Time `json:"publish_at,omitempty"`

	Tags       []string `json:"tags,omitempty"`
	Categories []string `json:"categories,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPublished reports whether the post is currently publicly visible.
func (p Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// PublicPath returns the public URL path of the post, e.g. "/blog/hello-world".
// Meaningful only when the post has a slug.
func (p Post) PublicPath() string {
	return "/blog/" + p.Slug
}
