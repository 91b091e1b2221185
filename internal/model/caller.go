package model

import "strings"

// Role is the access role a caller presents. Role names are matched
// case-insensitively; NormalizeRole gives the canonical form.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEngineer Role = "engineer"
	RoleViewer   Role = "viewer"
	RoleUser     Role = "user"
	RoleGuest    Role = "guest"
)

// NormalizeRole lower-cases and trims a raw role string. The legacy name
// "default" is folded into guest, as is the empty string.
func NormalizeRole(raw string) Role {
	r := strings.ToLower(strings.TrimSpace(raw))
	switch r {
	case "", "default":
		return RoleGuest
	}
	return Role(r)
}

// Caller identifies who is making the current request. It is built per
// request from headers, a bearer token, or the process environment, and is
// passed explicitly into every access decision.
type Caller struct {
	Role   string `json:"role"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// GuestCaller is used when no identity is supplied at all.
func GuestCaller() Caller {
	return Caller{Role: string(RoleGuest), UserID: "anonymous", Email: "unknown"}
}

// Owns reports whether the caller is the owner recorded on a row.
// An anonymous caller owns nothing.
func (c Caller) Owns(ownerUserID *string) bool {
	if ownerUserID == nil || c.UserID == "" {
		return false
	}
	return *ownerUserID == c.UserID
}
