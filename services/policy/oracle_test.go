package policy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/compliance-data-agent/models"
	"go.uber.org/zap"
)

func TestOracle_Check(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("unconfigured oracle allows", func(t *testing.T) {
		oracle := NewOracle("", time.Second, logger)

		assert.False(t, oracle.Configured())
		decision := oracle.Check(ctx, "delete", "employees", "hr_admin")
		assert.True(t, decision.Allowed)
		assert.Equal(t, models.DecisionAllow, decision.Decision)
		assert.Equal(t, "oracle_not_configured", decision.Reason)
	})

	t.Run("allow response with reason", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "delete", req["action"])
			assert.Equal(t, "employees", req["resource"])
			assert.Equal(t, map[string]any{"role": "hr_admin"}, req["user"])

			json.NewEncoder(w).Encode(checkResponse{Allowed: true, Reason: "role_has_delete"})
		}))
		defer server.Close()

		oracle := NewOracle(server.URL, time.Second, logger)
		decision := oracle.Check(ctx, "delete", "employees", "hr_admin")

		assert.True(t, decision.Allowed)
		assert.Equal(t, models.DecisionAllow, decision.Decision)
		assert.Equal(t, "role_has_delete", decision.Reason)
	})

	t.Run("deny response keeps the oracle's reason", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(checkResponse{Allowed: false, Reason: "role_lacks_delete"})
		}))
		defer server.Close()

		oracle := NewOracle(server.URL, time.Second, logger)
		decision := oracle.Check(ctx, "delete", "employees", "hr_viewer")

		assert.False(t, decision.Allowed)
		assert.Equal(t, models.DecisionDeny, decision.Decision)
		assert.Equal(t, "role_lacks_delete", decision.Reason)
	})

	t.Run("deny without reason gets a default", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(checkResponse{Allowed: false})
		}))
		defer server.Close()

		oracle := NewOracle(server.URL, time.Second, logger)
		decision := oracle.Check(ctx, "delete", "employees", "hr_viewer")

		assert.False(t, decision.Allowed)
		assert.Equal(t, "denied_by_policy", decision.Reason)
	})

	t.Run("non-200 status fails closed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		oracle := NewOracle(server.URL, time.Second, logger)
		decision := oracle.Check(ctx, "delete", "employees", "hr_admin")

		assert.False(t, decision.Allowed)
		assert.Equal(t, models.DecisionDeny, decision.Decision)
		assert.Equal(t, "oracle_bad_status", decision.Reason)
	})

	t.Run("malformed response body fails closed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		oracle := NewOracle(server.URL, time.Second, logger)
		decision := oracle.Check(ctx, "delete", "employees", "hr_admin")

		assert.False(t, decision.Allowed)
		assert.Equal(t, "oracle_response_invalid", decision.Reason)
	})

	t.Run("unreachable oracle fails closed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		oracle := NewOracle(server.URL, time.Second, logger)
		decision := oracle.Check(ctx, "delete", "employees", "hr_admin")

		assert.False(t, decision.Allowed)
		assert.Equal(t, models.DecisionDeny, decision.Decision)
		assert.Equal(t, "oracle_unreachable", decision.Reason)
	})

	t.Run("slow oracle times out and fails closed", func(t *testing.T) {
		block := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-block
		}))
		defer func() {
			close(block)
			server.Close()
		}()

		oracle := NewOracle(server.URL, 50*time.Millisecond, logger)
		decision := oracle.Check(ctx, "delete", "employees", "hr_admin")

		assert.False(t, decision.Allowed)
		assert.Equal(t, "oracle_unreachable", decision.Reason)
	})
}
