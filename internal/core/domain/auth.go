package domain

// Role defines a caller's permission level
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// TokenClaims represents the JWT token payload. TenantID scopes every
// job and vector operation the caller performs.
type TokenClaims struct {
	TenantID  string `json:"tenant_id"`
	Subject   string `json:"sub"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// IsAdmin checks if the claims carry the admin role
func (c *TokenClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// AuthContext contains authenticated caller info for request context
type AuthContext struct {
	TenantID string `json:"tenant_id"`
	Subject  string `json:"subject"`
	Role     Role   `json:"role"`
}

// IsAdmin checks if the authenticated caller is an admin
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}
