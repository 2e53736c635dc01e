package ports

import (
	"context"

	"github.com/99minutos/account-system/internal/core/domain"
)

// AuthService verifies credentials and hands out bearer tokens.
type AuthService interface {
	Authenticate(ctx context.Context, login, password string) (*domain.CallerIdentity, error)
	Login(ctx context.Context, login, password string) (string, *domain.CallerIdentity, error)
}

// PasswordHasher is a one-way, cost-adaptive password hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer turns a verified identity into an opaque bearer token and back.
type TokenIssuer interface {
	Issue(identity domain.CallerIdentity) (string, error)
	Parse(token string) (*domain.CallerIdentity, error)
}
