package ports

import (
	"context"

	"github.com/99minutos/account-system/internal/core/domain"
)

// ProfileRepository persists profile records. Insert and Update must report
// unique violations as domain.ErrDuplicateUsername / domain.ErrDuplicateEmail.
type ProfileRepository interface {
	Insert(ctx context.Context, p *domain.Profile) error
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	FindByUsername(ctx context.Context, username string) (*domain.Profile, error)
	FindByEmail(ctx context.Context, email string) (*domain.Profile, error)
	FindAll(ctx context.Context) ([]*domain.Profile, error)
	Update(ctx context.Context, p *domain.Profile) error
	DeleteByID(ctx context.Context, id string) error
}

// CredentialRepository persists credential records. Lookups that match nothing
// return domain.ErrAccountNotFound.
type CredentialRepository interface {
	Insert(ctx context.Context, c *domain.Credential) error
	FindByID(ctx context.Context, id string) (*domain.Credential, error)
	FindByLogin(ctx context.Context, login string) (*domain.Credential, error)
	FindByProfileID(ctx context.Context, profileID string) (*domain.Credential, error)
	Update(ctx context.Context, c *domain.Credential) error
	DeleteByID(ctx context.Context, id string) error
}

// AccountRepositories exposes both stores bound to the same transaction
// (or to no transaction when obtained from the store directly).
type AccountRepositories interface {
	Profiles() ProfileRepository
	Credentials() CredentialRepository
}

// AccountStore is the unit of work spanning profiles and credentials.
//
// WithinTx runs fn inside a single transaction: if fn returns an error every
// write is rolled back, otherwise all of them are committed together. Reads
// performed through tx lock the rows they return where the engine supports it.
type AccountStore interface {
	AccountRepositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx AccountRepositories) error) error
}
