package driven

import "github.com/gitvec-labs/gitvec-core/internal/core/domain"

// AuthAdapter handles authentication cryptographic operations.
// Tokens carry the tenant identity; API keys gate admin operations.
type AuthAdapter interface {
	// API key operations (admin surface)
	HashAPIKey(key string) (string, error)
	VerifyAPIKey(key, hash string) bool

	// Token operations
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
