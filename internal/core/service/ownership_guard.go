package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/account-system/internal/core/domain"
	"github.com/99minutos/account-system/internal/core/ports"
)

// OwnershipGuard allows a caller to act on an account only when the caller's
// login is the login of that account's credential.
type OwnershipGuard struct {
	repos ports.AccountRepositories
	log   zerolog.Logger
}

// NewOwnershipGuard returns a guard resolving owners through repos.
func NewOwnershipGuard(repos ports.AccountRepositories, log zerolog.Logger) *OwnershipGuard {
	return &OwnershipGuard{repos: repos, log: log}
}

// Authorize returns nil when requester owns targetID, domain.ErrAccountNotFound
// when there is no such account and domain.ErrForbidden otherwise. The denial
// carries no detail about the real owner; that only goes to the log.
func (g *OwnershipGuard) Authorize(ctx context.Context, requester domain.CallerIdentity, targetID string) error {
	cred, err := g.repos.Credentials().FindByProfileID(ctx, targetID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("authorize: %w", err)
	}

	if !ownedBy(cred, requester) {
		g.log.Warn().
			Str("requester", requester.Login).
			Str("owner", cred.Login).
			Str("target_id", targetID).
			Msg("access denied")
		return domain.ErrForbidden
	}
	return nil
}

func ownedBy(cred *domain.Credential, requester domain.CallerIdentity) bool {
	return requester.Login != "" && cred.Login == requester.Login
}
