package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Response is the JSON envelope returned by every endpoint.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const (
	msgValidationFailed   = "Validation failed"
	msgInvalidBody        = "Invalid request body"
	msgInternal           = "Internal server error"
	msgInvalidCredentials = "Invalid student ID or password"
	msgDuplicate          = "Student ID already registered"
	msgInvalidNoteID      = "Invalid note ID"
	msgNoteNotFound       = "Note not found"
	msgRouteNotFound      = "Route not found"
	msgAuthRequired       = "authentication required"
	msgTokenExpired       = "token expired"
	msgInvalidToken       = "invalid token"
	msgAuthInternal       = "internal server error"
)

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Message: message})
}

// writeValidation reports ozzo validation errors field by field.
func writeValidation(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, Response{
		Success: false,
		Message: msgValidationFailed,
		Errors:  fieldErrors(err),
	})
}

func fieldErrors(err error) []FieldError {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for field, ferr := range verrs {
		out = append(out, FieldError{Field: field, Message: ferr.Error()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
