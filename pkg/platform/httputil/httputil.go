// Package httputil holds the JSON response helpers shared by HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	dErrors "referearn/pkg/domain-errors"
)

// maxBodyBytes bounds request bodies decoded by DecodeJSON.
const maxBodyBytes = 1 << 20

// ErrorResponse is the envelope every failed request answers with.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the public message for err. Client-side failures expose
// the domain message; everything else is reported as an internal error so
// store or transport details never reach the caller.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(dErrors.CodeOf(err))
	msg := "Internal server error"
	var de *dErrors.Error
	if status < http.StatusInternalServerError && errors.As(err, &de) {
		msg = de.Message
	}
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

// WriteErrorMessage writes msg with the status derived from err's code.
// Handlers use it when the public wording is fixed by the API contract.
func WriteErrorMessage(w http.ResponseWriter, err error, msg string) {
	WriteJSON(w, StatusFor(dErrors.CodeOf(err)), ErrorResponse{Error: msg})
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes the request body into dst. Decoding failures come back
// as CodeBadRequest errors.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
