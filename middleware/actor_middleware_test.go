package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestActorMiddleware_ExtractActor(t *testing.T) {
	mw := NewActorMiddleware(zap.NewNop())

	var seenActor *Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenActor = GetActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := mw.ExtractActor(next)

	t.Run("reads actor headers into the context", func(t *testing.T) {
		seenActor = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
		req.Header.Set("X-Actor-Role", "hr_admin")
		req.Header.Set("X-Actor-Id", "user-1")
		req.Header.Set("X-Actor-Email", "ana@example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.NotNil(t, seenActor)
		assert.Equal(t, "hr_admin", seenActor.Role)
		assert.Equal(t, "user-1", seenActor.ID)
		assert.Equal(t, "ana@example.com", seenActor.Email)
		assert.Equal(t, req.RemoteAddr, seenActor.IP)
	})

	t.Run("missing headers never reject the request", func(t *testing.T) {
		seenActor = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, seenActor)
		assert.Equal(t, "unknown", seenActor.Role)
		assert.Empty(t, seenActor.ID)
	})
}

func TestContextHelpers(t *testing.T) {
	t.Run("tenant round trip", func(t *testing.T) {
		ctx := WithTenantID(t.Context(), "tenant-a")
		assert.Equal(t, "tenant-a", GetTenantIDFromContext(ctx))
	})

	t.Run("absent tenant is empty", func(t *testing.T) {
		assert.Empty(t, GetTenantIDFromContext(t.Context()))
	})

	t.Run("absent actor is nil", func(t *testing.T) {
		assert.Nil(t, GetActorFromContext(t.Context()))
	})
}
