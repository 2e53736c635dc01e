package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/99minutos/account-system/internal/core/domain"
)

const (
	codeUniqueViolation = "23505"

	constraintProfileUsername = "profiles_username_key"
	constraintProfileEmail    = "profiles_email_key"
	constraintCredentialLogin = "credentials_login_key"
)

// translateWriteError maps unique violations to domain conflicts and wraps
// anything else as a db error.
func translateWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		switch pgErr.ConstraintName {
		case constraintProfileUsername, constraintCredentialLogin:
			return domain.ErrDuplicateUsername
		case constraintProfileEmail:
			return domain.ErrDuplicateEmail
		}
	}
	return fmt.Errorf("%s: db error: %w", op, err)
}

// validID reports whether id can be a key in this store. Anything else cannot
// match a row, so callers treat it as not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
