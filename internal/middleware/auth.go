package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/inkwell-cms/backend/internal/domain"
)

type actorKey struct{}

// NewActorResolver returns a middleware that resolves the Authorization
// bearer token to a domain.Actor and stores it on the request context.
//
// tokens maps raw bearer tokens to the actors they authenticate. How those
// tokens are issued is the auth tier's concern; this service only needs the
// resulting actor and its capabilities. Requests without a recognized token
// proceed with no actor — the service layer rejects mutations from them.
func NewActorResolver(tokens map[string]*domain.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
				if actor, known := tokens[token]; known {
					r = r.WithContext(context.WithValue(r.Context(), actorKey{}, actor))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorFrom returns the actor resolved for this request, or nil when the
// request is unauthenticated.
func ActorFrom(ctx context.Context) *domain.Actor {
	actor, _ := ctx.Value(actorKey{}).(*domain.Actor)
	return actor
}
