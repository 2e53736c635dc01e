package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/99minutos/account-system/internal/core/domain"
)

const profileColumns = `id, username, email, first_name, last_name, role, created_at, updated_at`

// ProfileRepository implements ports.ProfileRepository on the profiles table.
// A repository bound to a transaction locks every row it reads.
type ProfileRepository struct {
	db   DBTX
	lock bool
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func newLockingProfileRepository(tx DBTX) *ProfileRepository {
	return &ProfileRepository{db: tx, lock: true}
}

func (r *ProfileRepository) Insert(ctx context.Context, p *domain.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO profiles (` + profileColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Username, p.Email, p.FirstName, p.LastName, p.Role, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return translateWriteError("insert profile", err)
	}
	return nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	if !validID(id) {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, "id", id)
}

func (r *ProfileRepository) FindByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	return r.findOne(ctx, "username", username)
}

func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.findOne(ctx, "email", email)
}

// FindAll returns every profile ordered by creation time.
func (r *ProfileRepository) FindAll(ctx context.Context) ([]*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find profiles: db error: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find profiles: db error: %w", err)
	}
	return out, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *domain.Profile) error {
	if !validID(p.ID) {
		return domain.ErrAccountNotFound
	}

	query :=
		`UPDATE profiles
		 SET username = $2, email = $3, first_name = $4, last_name = $5, role = $6, updated_at = $7
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.Username, p.Email, p.FirstName, p.LastName, p.Role, p.UpdatedAt)
	if err != nil {
		return translateWriteError("update profile", err)
	}
	return requireAffected(res)
}

func (r *ProfileRepository) DeleteByID(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrAccountNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: db error: %w", err)
	}
	return requireAffected(res)
}

func (r *ProfileRepository) findOne(ctx context.Context, column, value string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE ` + column + ` = $1`
	if r.lock {
		query += ` FOR UPDATE`
	}

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find profile: db error: %w", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*domain.Profile, error) {
	p := &domain.Profile{}
	if err := row.Scan(&p.ID, &p.Username, &p.Email, &p.FirstName, &p.LastName, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
