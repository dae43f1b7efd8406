// Package slug derives URL-safe identifiers from display titles and applies
// the auto-generation precedence rule: a slug tracks its source title until
// the first manual edit, after which the manual value wins permanently.
package slug

import "strings"

// Derive converts a display string into a URL-safe slug: ASCII lowercase,
// any run of non-alphanumeric characters collapsed into a single hyphen,
// leading and trailing hyphens trimmed.
//
// Derive is pure and idempotent: Derive(Derive(s)) == Derive(s).
// An empty or all-punctuation input yields the empty slug; callers that
// require a slug must treat "" as "no slug assigned" and reject the save.
func Derive(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingHyphen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r + ('a' - 'A'))
		default:
			// Non-alphanumeric: collapse the whole run into one hyphen,
			// emitted only if more alphanumerics follow.
			pendingHyphen = true
		}
	}
	return b.String()
}

// Input is the slug-relevant state of a document at save time.
type Input struct {
	// Title is the incoming display title.
	Title string
	// Slug is the incoming slug value, possibly hand-edited by the user.
	Slug string
	// PrevSlug is the slug as stored before this save ("" on create).
	PrevSlug string
	// AutoSlug is the stored auto-generate flag before this save.
	AutoSlug bool
}

// Resolve applies the auto/manual precedence rule and returns the slug to
// persist along with the new value of the auto-generate flag.
//
// While auto-generation is on, the slug is recomputed from the title on every
// save — unless the user hand-edited the slug field this save, which both
// keeps the manual value and switches auto-generation off for all future
// saves. A hand edit is an incoming slug that differs from the stored slug
// and from what derivation would produce.
func Resolve(in Input) (string, bool) {
	if !in.AutoSlug {
		if in.Slug == "" {
			return in.PrevSlug, false
		}
		return in.Slug, false
	}

	derived := Derive(in.Title)
	if in.Slug != "" && in.Slug != in.PrevSlug && in.Slug != derived {
		// Manual edit wins, permanently.
		return in.Slug, false
	}
	return derived, true
}
