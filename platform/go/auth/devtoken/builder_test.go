package devtoken

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	platformauth "github.com/taippa-io/taippa/platform/go/auth"
)

func validParams() Params {
	return Params{
		ProjectID:     "local-taippa",
		TenantID:      "6f1c1d1e-8a1b-4a55-9a0e-0d7f4f1c2b3a",
		UserID:        "admin-123",
		Email:         "admin@example.com",
		Role:          "Admin",
		Name:          "Dev Admin",
		EmailVerified: true,
		ExpiresIn:     time.Hour,
	}
}

func TestBuildUnsignedFirebaseToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()

	token, err := BuildUnsignedFirebaseToken(validParams(), now)
	require.NoError(t, err)

	header, payload := splitToken(t, token)
	require.Equal(t, "none", header["alg"])

	require.Equal(t, "https://securetoken.google.com/local-taippa", payload["iss"])
	require.Equal(t, "local-taippa", payload["aud"])
	require.Equal(t, "admin-123", payload["sub"])
	require.Equal(t, "admin", payload["role"])
	require.Equal(t, "6f1c1d1e-8a1b-4a55-9a0e-0d7f4f1c2b3a", payload["tenantId"])
	require.Equal(t, float64(now.Add(time.Hour).Unix()), payload["exp"])

	firebaseClaim, ok := payload["firebase"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "password", firebaseClaim["sign_in_provider"])
	require.NotContains(t, firebaseClaim, "tenant")
}

func TestBuildUnsignedFirebaseTokenRoundTripsThroughAuth(t *testing.T) {
	token, err := BuildUnsignedFirebaseToken(validParams(), time.Time{})
	require.NoError(t, err)

	claims, err := platformauth.UnsignedTokenVerifier()(context.Background(), token)
	require.NoError(t, err)

	creds, err := platformauth.DefaultCredentialExtractor(context.Background(), claims)
	require.NoError(t, err)
	require.Equal(t, "admin-123", creds.Id)
	require.Equal(t, "admin", creds.Role)
	require.Equal(t, "6f1c1d1e-8a1b-4a55-9a0e-0d7f4f1c2b3a", *creds.TenantID)
}

func TestBuildUnsignedFirebaseTokenRequiredFields(t *testing.T) {
	for _, mutate := range []func(*Params){
		func(p *Params) { p.ProjectID = "" },
		func(p *Params) { p.TenantID = " " },
		func(p *Params) { p.UserID = "" },
		func(p *Params) { p.Email = "" },
		func(p *Params) { p.Role = "" },
	} {
		p := validParams()
		mutate(&p)
		_, err := BuildUnsignedFirebaseToken(p, time.Time{})
		require.Error(t, err)
	}
}

func splitToken(t *testing.T, token string) (map[string]interface{}, map[string]interface{}) {
	t.Helper()
	parts := strings.Split(token, ".")
	require.GreaterOrEqual(t, len(parts), 2, "invalid token format: %q", token)

	return decodeSegment(t, parts[0]), decodeSegment(t, parts[1])
}

func decodeSegment(t *testing.T, segment string) map[string]interface{} {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
