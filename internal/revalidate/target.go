// Package revalidate implements the cache-invalidation cascade: given a
// committed post write, it computes which cached paths and tags are now stale
// and notifies the render tier's revalidation endpoint, fire-and-forget.
package revalidate

import (
	"github.com/inkwell-cms/backend/internal/domain"
)

// TargetKind distinguishes path invalidation from tag invalidation.
type TargetKind string

const (
	KindPath TargetKind = "path"
	KindTag  TargetKind = "tag"
)

// Target is one stale cache entry to signal. Targets are value objects:
// computed from a single (prev, next) snapshot, dispatched, and discarded.
type Target struct {
	Kind  TargetKind
	Value string
}

// PostsTag groups every cached fragment derived from post data.
const PostsTag = "posts"

// listingPaths are invalidated on every post change: the index and search
// pages render from post listings regardless of which post changed.
var listingPaths = []string{"/blog", "/search"}

// Targets computes the invalidation set for writing next over prev.
// prev is the pre-write snapshot captured at commit time (nil on create);
// it must never be re-read from storage, or a concurrent writer's state
// could leak into this cascade's decision.
//
// Beyond the listing paths and collection tag, the set contains:
//   - the post's own path, when it is now published;
//   - the post's old path, when it was published under prev and is now
//     unpublished or published under a different slug. Missing the old path
//     would leave a stale cached page alive indefinitely.
func Targets(next domain.Post, prev *domain.Post) []Target {
	targets := make([]Target, 0, len(listingPaths)+3)
	for _, p := range listingPaths {
		targets = append(targets, Target{Kind: KindPath, Value: p})
	}
	targets = append(targets, Target{Kind: KindTag, Value: PostsTag})

	if next.IsPublished() && next.Slug != "" {
		targets = append(targets, Target{Kind: KindPath, Value: next.PublicPath()})
	}

	if prev != nil && prev.IsPublished() && prev.Slug != "" {
		if !next.IsPublished() || next.Slug != prev.Slug {
			targets = append(targets, Target{Kind: KindPath, Value: prev.PublicPath()})
		}
	}

	return targets
}
