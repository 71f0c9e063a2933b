// internal/common/errors/responder.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// Responder translates engine errors into HTTP responses with standardized
// bodies, normalizing anything that is not already a StandardError.
type Responder struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewResponder(logger Logger) *Responder {
	return &Responder{logger: logger}
}

// Respond writes err as a JSON error response and logs it.
func (r *Responder) Respond(w http.ResponseWriter, err error) {
	stdErr := r.normalizeError(err)
	status := StatusFor(stdErr.Code)

	if status >= http.StatusInternalServerError {
		r.logger.Error("request failed", map[string]interface{}{
			"errorCode": stdErr.Code,
			"details":   stdErr.Details,
		})
	} else {
		r.logger.Warn("request rejected", map[string]interface{}{
			"errorCode": stdErr.Code,
			"details":   stdErr.Details,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": stdErr,
	})
}

// normalizeError ensures we always have a StandardError.
func (r *Responder) normalizeError(err error) *StandardError {
	if stdErr := AsStandard(err); stdErr != nil {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code ErrorCode) int {
	switch KindOf(code) {
	case KindValidation:
		return http.StatusBadRequest
	case KindPrecondition:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindStore:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
