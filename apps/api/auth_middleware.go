package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	platformauth "github.com/taippa-io/taippa/platform/go/auth"
	"github.com/taippa-io/taippa/platform/go/authz"
	"github.com/taippa-io/taippa/platform/go/gcp"
)

// buildAuthMiddleware constructs the JWT middleware for the configured provider. Credentials
// must carry a tenant UUID and a known role.
func buildAuthMiddleware(ctx context.Context, cfg config, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	var verify platformauth.VerifyFunc
	switch cfg.AuthProvider {
	case "firebase":
		fbAuth, err := gcp.InitFirebaseAuth(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("init firebase auth: %w", err)
		}
		verify = platformauth.FirebaseTokenVerifier(fbAuth)
	case "dev":
		logger.Warn("using dev auth middleware; do not use in production")
		verify = platformauth.UnsignedTokenVerifier()
	default:
		return nil, fmt.Errorf("unsupported auth provider %q", cfg.AuthProvider)
	}

	return platformauth.JWT(verify, extractCredentials), nil
}

func extractCredentials(ctx context.Context, claims map[string]interface{}) (*platformauth.UserCredentials, error) {
	creds, err := platformauth.DefaultCredentialExtractor(ctx, claims)
	if err != nil {
		return nil, err
	}
	if creds.TenantID == nil || strings.TrimSpace(*creds.TenantID) == "" {
		return nil, errors.New("tenant claim required")
	}

	tid, err := uuid.Parse(*creds.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant claim must be a UUID: %w", err)
	}
	idStr := tid.String()
	creds.TenantID = &idStr

	role, ok := authz.ParseRole(creds.Role)
	if !ok {
		return nil, fmt.Errorf("unknown role %q", creds.Role)
	}
	creds.Role = string(role)

	return creds, nil
}
