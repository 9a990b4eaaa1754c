package problem

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	t.Parallel()

	fields := map[string][]string{"top_n": {"must be between 1 and 50"}}
	d := New(http.StatusBadRequest, TypeValidation, "Validation failed", "one or more fields are invalid", fields)
	fields["top_n"][0] = "mutated"

	rec := httptest.NewRecorder()
	Write(rec, d)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var got Details
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "must be between 1 and 50", got.Errors["top_n"][0])
	require.Equal(t, TypeValidation, got.Type)
}

func TestUnauthorizedAndForbidden(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Unauthorized(rec, "missing bearer token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = httptest.NewRecorder()
	Forbidden(rec, "no")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWriteJSONEmptySlice(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, []string{})
	require.JSONEq(t, `[]`, rec.Body.String())
}
