package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/compliance-data-agent/models"
	"go.uber.org/zap"
)

// MockAuditReader is a mock implementation of AuditReader
type MockAuditReader struct {
	mock.Mock
}

func (m *MockAuditReader) Recent(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditEvent), args.Error(1)
}

func TestAuditHandler_HandleRecent(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns events with a count", func(t *testing.T) {
		reader := new(MockAuditReader)
		handler := NewAuditHandler(reader, logger)

		events := []*models.AuditEvent{
			models.NewAuditEvent("tenant-a", "update", "employees"),
			models.NewAuditEvent("tenant-b", "delete", "documents"),
		}
		reader.On("Recent", mock.Anything, 50).Return(events, nil)

		req := httptest.NewRequest(http.MethodGet, "/audit", nil)
		w := httptest.NewRecorder()
		handler.HandleRecent(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		envelope := decodeEnvelope(t, w)
		data := envelope["data"].(map[string]any)
		assert.Equal(t, float64(2), data["count"])
		require.Len(t, data["events"], 2)
		reader.AssertExpectations(t)
	})

	t.Run("caps the requested limit", func(t *testing.T) {
		reader := new(MockAuditReader)
		handler := NewAuditHandler(reader, logger)

		reader.On("Recent", mock.Anything, 200).Return([]*models.AuditEvent{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/audit?limit=9999", nil)
		w := httptest.NewRecorder()
		handler.HandleRecent(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		reader.AssertExpectations(t)
	})

	t.Run("invalid limit falls back to the default", func(t *testing.T) {
		reader := new(MockAuditReader)
		handler := NewAuditHandler(reader, logger)

		reader.On("Recent", mock.Anything, 50).Return([]*models.AuditEvent{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/audit?limit=abc", nil)
		w := httptest.NewRecorder()
		handler.HandleRecent(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		reader.AssertExpectations(t)
	})

	t.Run("reader failure is an internal error", func(t *testing.T) {
		reader := new(MockAuditReader)
		handler := NewAuditHandler(reader, logger)

		reader.On("Recent", mock.Anything, 50).Return(nil, assert.AnError)

		req := httptest.NewRequest(http.MethodGet, "/audit", nil)
		w := httptest.NewRecorder()
		handler.HandleRecent(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		envelope := decodeEnvelope(t, w)
		assert.Equal(t, "internal_error", envelope["error"])
	})
}
