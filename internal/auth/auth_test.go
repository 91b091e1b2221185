package auth_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oilfield-ai/drillquery/internal/auth"
	"github.com/oilfield-ai/drillquery/internal/model"
)

func TestJWTIssueAndValidate(t *testing.T) {
	mgr, err := auth.NewJWTManager("", "", 1*time.Hour)
	require.NoError(t, err)

	caller := model.Caller{Role: "Engineer", UserID: "u1001", Email: "zhang@oilfield.example"}
	token, expiresAt, err := mgr.IssueToken(caller, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "engineer", claims.Role)
	assert.Equal(t, "u1001", claims.Subject)
	assert.Equal(t, model.Caller{Role: "engineer", UserID: "u1001", Email: "zhang@oilfield.example"}, claims.Caller())
}

func TestIssueTokenTTL(t *testing.T) {
	mgr, err := auth.NewJWTManager("", "", 24*time.Hour)
	require.NoError(t, err)
	caller := model.Caller{Role: "viewer", UserID: "v1"}

	t.Run("explicit ttl", func(t *testing.T) {
		_, exp, err := mgr.IssueToken(caller, 5*time.Minute)
		require.NoError(t, err)
		assert.True(t, exp.Before(time.Now().Add(6*time.Minute)))
	})

	t.Run("ttl is capped at MaxTokenTTL", func(t *testing.T) {
		_, exp, err := mgr.IssueToken(caller, 365*24*time.Hour)
		require.NoError(t, err)
		assert.True(t, exp.Before(time.Now().Add(auth.MaxTokenTTL+time.Minute)))
	})

	t.Run("user id required", func(t *testing.T) {
		_, _, err := mgr.IssueToken(model.Caller{Role: "viewer"}, 0)
		require.Error(t, err)
	})
}

// newTestJWTManagerWithKey creates a JWTManager backed by a real Ed25519 key pair
// written to temp PEM files, and returns the raw private key for forging tokens.
func newTestJWTManagerWithKey(t *testing.T) (*auth.JWTManager, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	dir := t.TempDir()

	privBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes})
	privPath := filepath.Join(dir, "priv.pem")
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	pubPath := filepath.Join(dir, "pub.pem")
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	mgr, err := auth.NewJWTManager(privPath, pubPath, time.Hour)
	require.NoError(t, err)
	return mgr, priv
}

// forgeToken signs a JWT with the given private key and claims.
func forgeToken(t *testing.T, privKey ed25519.PrivateKey, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(privKey)
	require.NoError(t, err)
	return signed
}

func forgedClaims(issuer, subject string) *auth.Claims {
	now := time.Now().UTC()
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{"drillquery"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			ID:        uuid.New().String(),
		},
		Role: "admin",
	}
}

func TestValidateToken_FileKeys(t *testing.T) {
	mgr, privKey := newTestJWTManagerWithKey(t)
	claims, err := mgr.ValidateToken(forgeToken(t, privKey, forgedClaims("drillquery", "u7")))
	require.NoError(t, err)
	assert.Equal(t, "u7", claims.Caller().UserID)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	mgr, privKey := newTestJWTManagerWithKey(t)
	_, err := mgr.ValidateToken(forgeToken(t, privKey, forgedClaims("not-drillquery", "u7")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid issuer")
}

func TestValidateToken_EmptyIssuer(t *testing.T) {
	mgr, privKey := newTestJWTManagerWithKey(t)
	_, err := mgr.ValidateToken(forgeToken(t, privKey, forgedClaims("", "u7")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid issuer")
}

func TestValidateToken_EmptySubject(t *testing.T) {
	mgr, privKey := newTestJWTManagerWithKey(t)
	_, err := mgr.ValidateToken(forgeToken(t, privKey, forgedClaims("drillquery", "")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid subject")
}

func TestValidateToken_ForeignKey(t *testing.T) {
	mgr, _ := newTestJWTManagerWithKey(t)
	_, other, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	_, err = mgr.ValidateToken(forgeToken(t, other, forgedClaims("drillquery", "u7")))
	require.Error(t, err)
}

func TestNewJWTManager_MismatchedKeys(t *testing.T) {
	dir := t.TempDir()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	privBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	privPath := filepath.Join(dir, "priv.pem")
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes}), 0600))
	pubBytes, err := x509.MarshalPKIXPublicKey(otherPub)
	require.NoError(t, err)
	pubPath := filepath.Join(dir, "pub.pem")
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes}), 0600))

	_, err = auth.NewJWTManager(privPath, pubPath, time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestCallerFromHeaders(t *testing.T) {
	h := http.Header{}
	_, ok := auth.CallerFromHeaders(h)
	assert.False(t, ok)

	h.Set(auth.HeaderUserRole, "Viewer")
	h.Set(auth.HeaderUserID, "v9")
	c, ok := auth.CallerFromHeaders(h)
	require.True(t, ok)
	assert.Equal(t, model.Caller{Role: "Viewer", UserID: "v9", Email: "unknown"}, c)
}

func TestCallerFromEnv(t *testing.T) {
	env := map[string]string{auth.EnvUserRole: "engineer", auth.EnvUserID: "e1", auth.EnvUserEmail: "e1@oilfield.example"}
	assert.Equal(t, model.Caller{Role: "engineer", UserID: "e1", Email: "e1@oilfield.example"},
		auth.CallerFromEnv(func(k string) string { return env[k] }))

	assert.Equal(t, model.GuestCaller(), auth.CallerFromEnv(func(string) string { return "" }))
}

func TestBearerToken(t *testing.T) {
	h := http.Header{}
	_, ok := auth.BearerToken(h)
	assert.False(t, ok)

	h.Set("Authorization", "Basic abc")
	_, ok = auth.BearerToken(h)
	assert.False(t, ok)

	h.Set("Authorization", "bearer  tok.en ")
	tok, ok := auth.BearerToken(h)
	require.True(t, ok)
	assert.Equal(t, "tok.en", tok)
}
