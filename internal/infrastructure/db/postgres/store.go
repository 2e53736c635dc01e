package postgres

import (
	"context"
	"database/sql"

	"github.com/99minutos/account-system/internal/core/ports"
)

// Store implements ports.AccountStore on a PostgreSQL database.
type Store struct {
	db          *sql.DB
	profiles    *ProfileRepository
	credentials *CredentialRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:          db,
		profiles:    NewProfileRepository(db),
		credentials: NewCredentialRepository(db),
	}
}

func (s *Store) Profiles() ports.ProfileRepository       { return s.profiles }
func (s *Store) Credentials() ports.CredentialRepository { return s.credentials }

type txRepositories struct {
	profiles    *ProfileRepository
	credentials *CredentialRepository
}

func (t txRepositories) Profiles() ports.ProfileRepository       { return t.profiles }
func (t txRepositories) Credentials() ports.CredentialRepository { return t.credentials }

// WithinTx runs fn in a READ COMMITTED transaction. Rows read through tx are
// locked with FOR UPDATE until commit, so writers of the same account queue
// up while other accounts proceed independently.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.AccountRepositories) error) error {
	return withTx(ctx, s.db, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, txRepositories{
			profiles:    newLockingProfileRepository(tx),
			credentials: newLockingCredentialRepository(tx),
		})
	})
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
