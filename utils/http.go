package utils

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response shape for every endpoint. Success
// responses carry ok=true plus data; error responses carry ok=false plus a
// stable error code and a human-readable message.
type Envelope struct {
	OK      bool        `json:"ok"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK response with data
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, Envelope{OK: true, Data: data})
}

// WriteCreated writes a 201 Created response with data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, Envelope{OK: true, Data: data})
}

// WriteErrorCode writes an error envelope with an explicit status and code
func WriteErrorCode(w http.ResponseWriter, status int, errCode, message string) error {
	return WriteJSON(w, status, Envelope{
		OK:      false,
		Error:   errCode,
		Message: message,
	})
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, errCode, message string) error {
	if errCode == "" {
		errCode = "bad_request"
	}
	return WriteErrorCode(w, http.StatusBadRequest, errCode, message)
}

// WriteValidationError writes a 400 response for failed input validation
func WriteValidationError(w http.ResponseWriter, message string) error {
	return WriteErrorCode(w, http.StatusBadRequest, "validation_error", message)
}

// WriteValidationFailure writes a 400 validation_error envelope for err,
// including the per-field messages when err is a ValidationError.
func WriteValidationFailure(w http.ResponseWriter, err error) error {
	if IsValidationError(err) {
		return WriteJSON(w, http.StatusBadRequest, Envelope{
			OK:      false,
			Error:   "validation_error",
			Message: err.Error(),
			Data:    map[string]any{"fields": GetValidationFields(err)},
		})
	}
	return WriteValidationError(w, err.Error())
}

// WriteUnauthorized writes a 401 Unauthorized response
func WriteUnauthorized(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Authentication required"
	}
	return WriteErrorCode(w, http.StatusUnauthorized, "unauthorized", message)
}

// WriteForbidden writes a 403 Forbidden response
func WriteForbidden(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return WriteErrorCode(w, http.StatusForbidden, "forbidden", message)
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return WriteErrorCode(w, http.StatusNotFound, "not_found", message)
}

// WriteConflict writes a 409 Conflict response
func WriteConflict(w http.ResponseWriter, errCode, message string) error {
	if errCode == "" {
		errCode = "conflict"
	}
	return WriteErrorCode(w, http.StatusConflict, errCode, message)
}

// WriteInternalServerError writes a 500 Internal Server Error response
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return WriteErrorCode(w, http.StatusInternalServerError, "internal_error", message)
}
