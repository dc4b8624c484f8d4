package actorctx

import "context"

type ctxKey string

const keyActor ctxKey = "actor"

// Actor is the identity a request authenticated as.
type Actor struct {
	Email string
	Role  string
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, keyActor, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	v, ok := ctx.Value(keyActor).(Actor)

	return v, ok && v.Email != ""
}

// EmailOr returns the actor email, or fallback for unauthenticated requests.
func EmailOr(ctx context.Context, fallback string) string {
	if a, ok := ActorFrom(ctx); ok {
		return a.Email
	}
	return fallback
}
