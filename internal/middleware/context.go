package middleware

import "context"

type ctxKey string

const actorKey ctxKey = "actor"

// WithActor stores the authenticated actor identity (e.g. "user:42") on the
// request context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the authenticated actor identity, if any.
func ActorFromContext(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey).(string)
	return actor, ok && actor != ""
}
