package domain

// SearchParams carries the optional filter predicates for post search and
// listing queries. Zero values mean "no filter on this field".
// The repo layer composes these into a WHERE clause; no query logic lives
// anywhere else.
type SearchParams struct {
	// Status restricts results to a single publication state.
	Status Status
	// Keyword matches case-insensitively against title and excerpt.
	Keyword string
	// Tag restricts results to posts carrying the tag slug.
	Tag string
	// Category restricts results to posts in the category slug.
	Category string
}

// PublishedOnly returns a SearchParams pre-filtered to published posts,
// the read model the public site consumes.
func PublishedOnly() SearchParams {
	return SearchParams{Status: StatusPublished}
}
