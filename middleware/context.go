package middleware

import "context"

// Context key type to avoid collisions
type contextKey string

// ActorKey is the context key for the authenticated actor id
const ActorKey contextKey = "actor"

// GetActorFromContext retrieves the authenticated actor id from context.
// Empty when the request was not authenticated.
func GetActorFromContext(ctx context.Context) string {
	if val := ctx.Value(ActorKey); val != nil {
		if actor, ok := val.(string); ok {
			return actor
		}
	}
	return ""
}

// WithActor adds the authenticated actor id to the context
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}
