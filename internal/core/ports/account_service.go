package ports

import (
	"context"

	"github.com/99minutos/account-system/internal/core/domain"
)

// CreateAccountInput carries everything needed to open an account.
type CreateAccountInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// ReplaceAccountInput overwrites every mutable field of an account. Password is
// always re-hashed, so callers must resend it.
type ReplaceAccountInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// PatchAccountInput holds optional fields; nil means "leave untouched".
type PatchAccountInput struct {
	Username  *string
	Password  *string
	Email     *string
	FirstName *string
	LastName  *string
}

// AccountService defines the account use cases. Every operation addressing a
// specific account is authorized against the requester first.
type AccountService interface {
	CreateAccount(ctx context.Context, in CreateAccountInput) (*domain.Profile, error)
	GetAccount(ctx context.Context, id string, requester domain.CallerIdentity) (*domain.Profile, error)
	ListAccounts(ctx context.Context) ([]*domain.Profile, error)
	ReplaceAccount(ctx context.Context, id string, in ReplaceAccountInput, requester domain.CallerIdentity) (*domain.Profile, error)
	PatchAccount(ctx context.Context, id string, in PatchAccountInput, requester domain.CallerIdentity) (*domain.Profile, error)
	DeleteAccount(ctx context.Context, id string, requester domain.CallerIdentity) error
}

// AccessGuard decides whether requester may act on the account identified by targetID.
type AccessGuard interface {
	Authorize(ctx context.Context, requester domain.CallerIdentity, targetID string) error
}
