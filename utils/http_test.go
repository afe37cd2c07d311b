package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		w := httptest.NewRecorder()
		data := map[string]string{"message": "test"}

		err := WriteJSON(w, http.StatusOK, data)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response map[string]string
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)
		assert.Equal(t, "test", response["message"])
	})

	t.Run("nil data", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusNoContent, nil)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"result": "success"}

	err := WriteOK(w, data)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, w.Code)

	var response Envelope
	err = json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.True(t, response.OK)
	dataMap := response.Data.(map[string]interface{})
	assert.Equal(t, "success", dataMap["result"])
}

func TestWriteCreated(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"id": "123"}

	err := WriteCreated(w, data)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response Envelope
	err = json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.True(t, response.OK)
	dataMap := response.Data.(map[string]interface{})
	assert.Equal(t, "123", dataMap["id"])
}

func TestWriteBadRequest(t *testing.T) {
	t.Run("with explicit code", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteBadRequest(w, "missing_version", "Body must include version")
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response Envelope
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)

		assert.False(t, response.OK)
		assert.Equal(t, "missing_version", response.Error)
		assert.Equal(t, "Body must include version", response.Message)
	})

	t.Run("empty code defaults to bad_request", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteBadRequest(w, "", "Invalid input")
		require.NoError(t, err)

		var response Envelope
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "bad_request", response.Error)
	})
}

func TestWriteValidationError(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteValidationError(w, "email is required")
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response Envelope
	err = json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.False(t, response.OK)
	assert.Equal(t, "validation_error", response.Error)
	assert.Equal(t, "email is required", response.Message)
}

func TestWriteValidationFailure(t *testing.T) {
	t.Run("includes field details for a ValidationError", func(t *testing.T) {
		w := httptest.NewRecorder()
		verr := &ValidationError{
			Message: "Validation failed",
			Fields:  map[string]string{"Email": "Email must be a valid email"},
		}

		err := WriteValidationFailure(w, verr)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response Envelope
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)

		assert.False(t, response.OK)
		assert.Equal(t, "validation_error", response.Error)
		assert.Equal(t, "Validation failed", response.Message)

		dataMap := response.Data.(map[string]interface{})
		fields := dataMap["fields"].(map[string]interface{})
		assert.Equal(t, "Email must be a valid email", fields["Email"])
	})

	t.Run("plain errors carry only the message", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteValidationFailure(w, assert.AnError)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response Envelope
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "validation_error", response.Error)
		assert.Nil(t, response.Data)
	})
}

func TestWriteUnauthorized(t *testing.T) {
	t.Run("with custom message", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteUnauthorized(w, "Missing internal credentials")
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var response Envelope
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "unauthorized", response.Error)
		assert.Equal(t, "Missing internal credentials", response.Message)
	})

	t.Run("with empty message", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteUnauthorized(w, "")
		require.NoError(t, err)

		var response Envelope
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "Authentication required", response.Message)
	})
}

func TestWriteForbidden(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteForbidden(w, "Delete denied by policy")
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var response Envelope
	err = json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.Equal(t, "forbidden", response.Error)
	assert.Equal(t, "Delete denied by policy", response.Message)
}

func TestWriteNotFound(t *testing.T) {
	t.Run("with custom message", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteNotFound(w, "Document not found")
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var response Envelope
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "not_found", response.Error)
		assert.Equal(t, "Document not found", response.Message)
	})

	t.Run("with empty message", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteNotFound(w, "")
		require.NoError(t, err)

		var response Envelope
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "Resource not found", response.Message)
	})
}

func TestWriteConflict(t *testing.T) {
	t.Run("with explicit code", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteConflict(w, "version_conflict_or_not_found", "Record was modified concurrently")
		require.NoError(t, err)

		assert.Equal(t, http.StatusConflict, w.Code)

		var response Envelope
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "version_conflict_or_not_found", response.Error)
		assert.Equal(t, "Record was modified concurrently", response.Message)
	})

	t.Run("empty code defaults to conflict", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteConflict(w, "", "Email already exists")
		require.NoError(t, err)

		var response Envelope
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "conflict", response.Error)
	})
}

func TestWriteInternalServerError(t *testing.T) {
	t.Run("with custom message", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteInternalServerError(w, "Database connection failed")
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var response Envelope
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "internal_error", response.Error)
		assert.Equal(t, "Database connection failed", response.Message)
	})

	t.Run("with empty message", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteInternalServerError(w, "")
		require.NoError(t, err)

		var response Envelope
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "Internal server error", response.Message)
	})
}
