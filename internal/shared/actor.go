package shared

import "context"

// Actor identifies who performs a core operation. Identity is supplied by the
// session collaborator and is opaque to the core beyond being recorded on
// movements; Admin gates receiving and audit access.
type Actor struct {
	ID    string
	Name  string
	Admin bool
}

// Known reports whether the actor has been resolved from a session.
func (a Actor) Known() bool {
	return a.ID != ""
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context. The actor is always passed
// explicitly through context rather than read from a global.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context; the zero Actor means
// nobody is signed in.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}
