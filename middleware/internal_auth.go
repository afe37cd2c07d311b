package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/upb/compliance-data-agent/utils"
	"go.uber.org/zap"
)

const (
	internalSecretHeader = "X-Internal-Secret"
	tenantHeader         = "X-Tenant-Id"
)

// InternalAuthMiddleware guards the service-to-service surface with a static
// shared secret. Callers on this surface are other backend services, not end
// users.
type InternalAuthMiddleware struct {
	secret string
	logger *zap.Logger
}

// NewInternalAuthMiddleware creates a new InternalAuthMiddleware
func NewInternalAuthMiddleware(secret string, logger *zap.Logger) *InternalAuthMiddleware {
	return &InternalAuthMiddleware{
		secret: secret,
		logger: logger,
	}
}

// RequireSecret rejects requests without the shared secret header (401) or
// with a wrong value (403). The comparison is constant-time.
func (m *InternalAuthMiddleware) RequireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())

		provided := r.Header.Get(internalSecretHeader)
		if provided == "" {
			m.logger.Warn("missing internal secret",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, "Missing internal credentials")
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(m.secret)) != 1 {
			m.logger.Warn("invalid internal secret",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path))
			_ = utils.WriteForbidden(w, "Invalid internal credentials")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireTenantHeader resolves the tenant from the X-Tenant-Id header into
// the request context. Used on the internal surface, where the tenant is
// asserted by the calling service rather than passed as a query parameter.
func (m *InternalAuthMiddleware) RequireTenantHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(tenantHeader)
		if tenantID == "" {
			_ = utils.WriteBadRequest(w, "missing_tenant", "X-Tenant-Id header is required")
			return
		}

		ctx := WithTenantID(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
