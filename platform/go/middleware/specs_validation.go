package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	platformauth "github.com/taippa-io/taippa/platform/go/auth"
	"github.com/taippa-io/taippa/platform/go/problem"
)

// ValidateAuthenticationViaSwagger satisfies operations that declare bearerAuth in the contract.
// The JWT middleware runs first, so a verified caller is already on the request context.
func ValidateAuthenticationViaSwagger(_ context.Context, input *openapi3filter.AuthenticationInput) error {
	if input == nil || input.SecuritySchemeName != "bearerAuth" {
		return nil
	}

	r := input.RequestValidationInput.Request
	if r == nil {
		return errors.New("no request in validation input")
	}
	if creds, ok := platformauth.UserFromContext(r.Context()); !ok || creds == nil {
		return errors.New("missing or invalid bearer token")
	}
	return nil
}

// NewSpecValidator builds request validation middleware for the given contract.
// Failures are reported as problem+json.
func NewSpecValidator(spec *openapi3.T) func(http.Handler) http.Handler {
	return oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: ValidateAuthenticationViaSwagger,
		},
		ErrorHandler: writeValidationProblem,
	})
}

func writeValidationProblem(w http.ResponseWriter, message string, statusCode int) {
	switch statusCode {
	case http.StatusUnauthorized:
		problem.Unauthorized(w, message)
	case http.StatusForbidden:
		problem.Forbidden(w, message)
	case http.StatusNotFound:
		problem.Write(w, problem.New(statusCode, problem.TypeNotFound, "Not Found", message, nil))
	default:
		problem.Write(w, problem.New(statusCode, problem.TypeValidation, "Validation failed", message, nil))
	}
}
