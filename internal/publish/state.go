// Package publish implements the draft/published lifecycle of a post.
// Everything here is a pure transform over an incoming write; authorization
// is checked by the service layer before these functions run, and persistence
// failures are the repo's to report. The state machine itself cannot fail.
package publish

import (
	"time"

	"github.com/inkwell-cms/backend/internal/domain"
)

// Apply computes the publication side effects of writing next over prev and
// mutates next in place. prev is nil on create.
//
// Transition table:
//
//	draft     → published   stamp PublishedAt = now
//	published → published   keep the existing stamp
//	published → draft       keep the existing stamp (historical record)
//	draft     → draft       no-op
//
// The stamp condition is "previous status was not published", so a
// published→draft→published round trip re-stamps with the later time.
func Apply(prev *domain.Post, next *domain.Post, now time.Time) {
	if next.Status != domain.StatusPublished {
		if prev != nil && next.PublishedAt == nil {
			next.PublishedAt = prev.PublishedAt
		}
		return
	}

	if prev != nil && prev.Status == domain.StatusPublished {
		next.PublishedAt = prev.PublishedAt
		return
	}

	t := now.UTC()
	next.PublishedAt = &t
}

// ShouldAutoPublish reports whether a scheduled draft is due for publication.
// The service never polls; an external scheduler calls this (or the repo's
// due-posts query) periodically and performs the publish through the normal
// write path.
func ShouldAutoPublish(p domain.Post, now time.Time) bool {
	return p.Status == domain.StatusDraft &&
		p.PublishAt != nil &&
		!p.PublishAt.After(now)
}
