package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/99minutos/account-system/internal/core/domain"
)

const credentialColumns = `id, login, password_hash, role, profile_id, created_at, updated_at`

// CredentialRepository implements ports.CredentialRepository on the
// credentials table.
type CredentialRepository struct {
	db   DBTX
	lock bool
}

func NewCredentialRepository(db DBTX) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func newLockingCredentialRepository(tx DBTX) *CredentialRepository {
	return &CredentialRepository{db: tx, lock: true}
}

func (r *CredentialRepository) Insert(ctx context.Context, c *domain.Credential) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO credentials (` + credentialColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Login, c.PasswordHash, c.Role, c.ProfileID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return translateWriteError("insert credential", err)
	}
	return nil
}

func (r *CredentialRepository) FindByID(ctx context.Context, id string) (*domain.Credential, error) {
	if !validID(id) {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, "id", id)
}

func (r *CredentialRepository) FindByLogin(ctx context.Context, login string) (*domain.Credential, error) {
	return r.findOne(ctx, "login", login)
}

func (r *CredentialRepository) FindByProfileID(ctx context.Context, profileID string) (*domain.Credential, error) {
	if !validID(profileID) {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, "profile_id", profileID)
}

func (r *CredentialRepository) Update(ctx context.Context, c *domain.Credential) error {
	if !validID(c.ID) {
		return domain.ErrAccountNotFound
	}

	query :=
		`UPDATE credentials
		 SET login = $2, password_hash = $3, role = $4, updated_at = $5
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, c.ID, c.Login, c.PasswordHash, c.Role, c.UpdatedAt)
	if err != nil {
		return translateWriteError("update credential", err)
	}
	return requireAffected(res)
}

func (r *CredentialRepository) DeleteByID(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrAccountNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete credential: db error: %w", err)
	}
	return requireAffected(res)
}

func (r *CredentialRepository) findOne(ctx context.Context, column, value string) (*domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE ` + column + ` = $1`
	if r.lock {
		query += ` FOR UPDATE`
	}

	c := &domain.Credential{}
	err := r.db.QueryRowContext(ctx, query, value).
		Scan(&c.ID, &c.Login, &c.PasswordHash, &c.Role, &c.ProfileID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find credential: db error: %w", err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}
