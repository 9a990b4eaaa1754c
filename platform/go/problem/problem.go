// Package problem writes RFC 7807 problem details and JSON responses.
package problem

import (
	"net/http"

	"github.com/goccy/go-json"
)

const (
	TypeValidation   = "https://taippa.io/problems/validation-error"
	TypeUnauthorized = "https://taippa.io/problems/unauthorized"
	TypeForbidden    = "https://taippa.io/problems/forbidden"
	TypeNotFound     = "https://taippa.io/problems/not-found"
	TypeConflict     = "https://taippa.io/problems/conflict"
	TypeRateLimited  = "https://taippa.io/problems/rate-limited"
	TypeInternal     = "https://taippa.io/problems/internal-error"
)

// Details is the problem+json body.
type Details struct {
	Type   string              `json:"type,omitempty"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// New builds a problem, copying field errors so callers may keep mutating theirs.
func New(status int, problemType, title, detail string, fieldErrors map[string][]string) Details {
	d := Details{Type: problemType, Title: title, Status: status, Detail: detail}
	if len(fieldErrors) > 0 {
		d.Errors = make(map[string][]string, len(fieldErrors))
		for field, messages := range fieldErrors {
			d.Errors[field] = append([]string(nil), messages...)
		}
	}
	return d
}

// Write sends d with the application/problem+json content type.
func Write(w http.ResponseWriter, d Details) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(d.Status)
	_ = json.NewEncoder(w).Encode(d)
}

// WriteJSON sends v as a JSON body with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Unauthorized writes a 401 problem.
func Unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	Write(w, New(http.StatusUnauthorized, TypeUnauthorized, "Unauthorized", detail, nil))
}

// Forbidden writes a 403 problem.
func Forbidden(w http.ResponseWriter, detail string) {
	Write(w, New(http.StatusForbidden, TypeForbidden, "Forbidden", detail, nil))
}
