package middleware

import (
	"context"
)

// Context key type to avoid collisions
type contextKey string

const (
	// TenantIDKey is the context key for the tenant identifier
	TenantIDKey contextKey = "tenant_id"

	// ActorKey is the context key for the resolved actor
	ActorKey contextKey = "actor"
)

// Actor describes who performed a request, as asserted by the trusted proxy
// in front of this service. The fields mirror the audit trail's actor block.
type Actor struct {
	Role  string
	ID    string
	Email string
	IP    string
}

// GetTenantIDFromContext retrieves the tenant identifier from context
func GetTenantIDFromContext(ctx context.Context) string {
	if val := ctx.Value(TenantIDKey); val != nil {
		if tenantID, ok := val.(string); ok {
			return tenantID
		}
	}
	return ""
}

// WithTenantID adds a tenant identifier to the context
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// GetActorFromContext retrieves the actor from context
func GetActorFromContext(ctx context.Context) *Actor {
	if val := ctx.Value(ActorKey); val != nil {
		if actor, ok := val.(*Actor); ok {
			return actor
		}
	}
	return nil
}

// WithActor adds an actor to the context
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}
