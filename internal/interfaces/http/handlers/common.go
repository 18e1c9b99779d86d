// Package handlers implements the HTTP handlers of the carverdict API.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/carverdict/pkg/errors"
)

// DefaultMaxBodySize bounds request bodies when the server config leaves it unset.
const DefaultMaxBodySize int64 = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeAppError maps err to a status through its error code.  Server-side
// failures are logged and masked.
func writeAppError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.CodeInternal
	}
	status := errors.HTTPStatusForCode(code)
	resp := ErrorResponse{
		Code:      string(code),
		Message:   err.Error(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}

	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		resp.Message = ae.Message
		resp.Detail = ae.Detail
	}
	if status >= http.StatusInternalServerError {
		log.WithContext(r.Context()).WithError(err).Error("request failed", logging.String("path", r.URL.Path))
		resp.Message = errors.DefaultMessageForCode(code)
		resp.Detail = ""
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a single JSON object of at most maxBytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.InvalidParam("request body too large")
		case stderrors.Is(err, io.EOF):
			return errors.InvalidParam("request body is empty")
		default:
			return errors.Wrap(err, errors.CodeInvalidParam, "malformed JSON body").WithDetail(err.Error())
		}
	}
	if dec.More() {
		return errors.InvalidParam("request body must contain a single JSON object")
	}
	return nil
}
