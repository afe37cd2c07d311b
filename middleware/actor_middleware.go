package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// Actor headers set by the upstream application that fronts this agent.
// The agent trusts them as-is; it performs no authentication of its own.
const (
	actorRoleHeader  = "X-Actor-Role"
	actorIDHeader    = "X-Actor-Id"
	actorEmailHeader = "X-Actor-Email"
)

// ActorMiddleware resolves the acting principal from request headers so that
// every handler and audit event sees the same actor block.
type ActorMiddleware struct {
	logger *zap.Logger
}

// NewActorMiddleware creates a new ActorMiddleware
func NewActorMiddleware(logger *zap.Logger) *ActorMiddleware {
	return &ActorMiddleware{logger: logger}
}

// ExtractActor reads the actor headers and the client address into the
// request context. Missing headers leave empty fields rather than rejecting
// the request: attribution is best-effort, authorization is not done here.
func (m *ActorMiddleware) ExtractActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := &Actor{
			Role:  r.Header.Get(actorRoleHeader),
			ID:    r.Header.Get(actorIDHeader),
			Email: r.Header.Get(actorEmailHeader),
			IP:    r.RemoteAddr,
		}
		if actor.Role == "" {
			actor.Role = "unknown"
		}

		ctx := WithActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
