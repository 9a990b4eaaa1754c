// Package contracts embeds the public OpenAPI document served by apps/api.
package contracts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed api.yaml
var apiYAML []byte

// Load parses and validates the embedded API contract.
func Load(ctx context.Context) (*openapi3.T, error) {
	spec, err := openapi3.NewLoader().LoadFromData(apiYAML)
	if err != nil {
		return nil, fmt.Errorf("load api contract: %w", err)
	}
	if err := spec.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate api contract: %w", err)
	}
	return spec, nil
}
