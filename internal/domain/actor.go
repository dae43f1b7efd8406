package domain

// Capability is a named permission an actor may hold.
// The pipeline only ever asks a binary "may this actor do X" question;
// how actors are authenticated is the auth tier's problem, not ours.
type Capability string

const (
	// CapWritePosts allows creating, editing and deleting posts.
	CapWritePosts Capability = "posts:write"
	// CapPublishPosts allows the draft→published transition (and its reverse).
	CapPublishPosts Capability = "posts:publish"
)

// Actor is the authenticated principal behind a mutating request.
// A nil *Actor means the request is unauthenticated.
type Actor struct {
	ID           string
	Capabilities map[Capability]struct{}
}

// NewActor builds an Actor holding the given capabilities.
func NewActor(id string, caps ...Capability) *Actor {
	a := &Actor{ID: id, Capabilities: make(map[Capability]struct{}, len(caps))}
	for _, c := range caps {
		a.Capabilities[c] = struct{}{}
	}
	return a
}

// Can reports whether the actor holds the capability.
// Safe to call on a nil actor (always false).
func (a *Actor) Can(c Capability) bool {
	if a == nil {
		return false
	}
	_, ok := a.Capabilities[c]
	return ok
}
