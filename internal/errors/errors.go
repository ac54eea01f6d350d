// Package errors maps engine errors onto HTTP responses and recovers from
// handler panics.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/copyleftdev/hypertune/internal/optimization"
)

// Response is the JSON body written for failed requests.
type Response struct {
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
}

// StatusCode returns the HTTP status for err.
func StatusCode(err error) int {
	switch optimization.KindOf(err) {
	case optimization.KindNotFound:
		return http.StatusNotFound
	case optimization.KindInvalidSpec,
		optimization.KindUnknownStrategy,
		optimization.KindMalformedPoint,
		optimization.KindMalformedValue:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Write renders err as a JSON Response. Internal errors are not described to
// the client.
func Write(w http.ResponseWriter, err error) {
	code := StatusCode(err)
	body := Response{Status: err.Error(), Kind: string(optimization.KindOf(err))}
	if code == http.StatusInternalServerError {
		body = Response{Status: http.StatusText(code)}
	}
	if optimization.KindOf(err) == optimization.KindNotFound {
		var e *optimization.Error
		if stderrors.As(err, &e) {
			body.Status = e.Message
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
