package auth

import (
	"net/http"
	"strings"

	"github.com/oilfield-ai/drillquery/internal/model"
)

// Identity headers set by a trusted front end such as a chat gateway.
const (
	HeaderUserRole  = "X-User-Role"
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

// Environment variables read in stdio mode, where the launching client
// passes the user through the process environment.
const (
	EnvUserRole  = "LIBRECHAT_USER_ROLE"
	EnvUserID    = "LIBRECHAT_USER_ID"
	EnvUserEmail = "LIBRECHAT_USER_EMAIL"
)

// CallerFromHeaders builds a caller from identity headers. ok is false
// when no identity header is present.
func CallerFromHeaders(h http.Header) (model.Caller, bool) {
	role := strings.TrimSpace(h.Get(HeaderUserRole))
	id := strings.TrimSpace(h.Get(HeaderUserID))
	email := strings.TrimSpace(h.Get(HeaderUserEmail))
	if role == "" && id == "" && email == "" {
		return model.Caller{}, false
	}
	return newCaller(role, id, email), true
}

// CallerFromEnv builds a caller from the LIBRECHAT_USER_* variables using
// getenv (os.Getenv in production). Missing variables yield a guest.
func CallerFromEnv(getenv func(string) string) model.Caller {
	return newCaller(
		strings.TrimSpace(getenv(EnvUserRole)),
		strings.TrimSpace(getenv(EnvUserID)),
		strings.TrimSpace(getenv(EnvUserEmail)),
	)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(h http.Header) (string, bool) {
	scheme, token, ok := strings.Cut(h.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func newCaller(role, id, email string) model.Caller {
	g := model.GuestCaller()
	c := model.Caller{Role: role, UserID: id, Email: email}
	if c.Role == "" {
		c.Role = g.Role
	}
	if c.UserID == "" {
		c.UserID = g.UserID
	}
	if c.Email == "" {
		c.Email = g.Email
	}
	return c
}
