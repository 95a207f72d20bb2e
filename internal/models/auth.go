package models

import "github.com/golang-jwt/jwt/v5"

// Role names carried in session tokens.
const (
	RoleSystemAdmin = "system_admin"
	RoleTeamAdmin   = "team_admin"
	RoleUser        = "system_user"
)

// JWTClaims is the session token payload accepted by the gateway routes.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims include role.
func (c *JWTClaims) HasRole(role string) bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller may read attendance for everyone.
func (c *JWTClaims) IsAdmin() bool {
	return c.HasRole(RoleSystemAdmin) || c.HasRole(RoleTeamAdmin)
}
