// Package httpapi holds the HTTP plumbing shared by the catalog and order
// handlers: the JSON envelope, error mapping, metrics, auth and middlewares.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/logger"
)

// Response is the JSON envelope of every API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// RespondError maps err to its status code and sends the error envelope.
// Internal errors are logged and reported without detail.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(r.Context()).
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
	}

	RespondJSON(w, status, Response{
		Success: false,
		Error:   apperror.Message(err),
	})
}

// DecodeJSON reads the request body into dst, rejecting unknown fields
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.Wrap(apperror.KindBadRequest, err, "Invalid request body")
	}
	return nil
}
