package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/99minutos/account-system/internal/core/ports"
)

// Store implements ports.AccountStore. Transactions run on a client session;
// repositories pick the session up from the context they are called with.
type Store struct {
	client      *mongo.Client
	db          *mongo.Database
	profiles    *ProfileRepository
	credentials *CredentialRepository
}

func NewStore(client *mongo.Client, db *mongo.Database, timeout time.Duration) *Store {
	return &Store{
		client:      client,
		db:          db,
		profiles:    NewProfileRepository(db, timeout),
		credentials: NewCredentialRepository(db, timeout),
	}
}

func (s *Store) Profiles() ports.ProfileRepository       { return s.profiles }
func (s *Store) Credentials() ports.CredentialRepository { return s.credentials }

// WithinTx runs fn in a snapshot transaction committed with majority write
// concern. Two transactions writing the same document conflict and the loser
// is retried by the driver, so concurrent updates of one account serialize.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.AccountRepositories) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	}, opts)
	return err
}

// EnsureIndexes creates the unique indexes of both collections.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if err := s.profiles.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("profiles indexes: %w", err)
	}
	if err := s.credentials.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("credentials indexes: %w", err)
	}
	return nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}
