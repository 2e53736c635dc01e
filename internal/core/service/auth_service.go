package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/account-system/internal/core/domain"
	"github.com/99minutos/account-system/internal/core/ports"
)

// AuthService authenticates logins against stored credentials and issues
// tokens for the resulting identity.
type AuthService struct {
	creds  ports.CredentialRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	log    zerolog.Logger

	// dummyHash is checked for unknown logins so they cost as much as a
	// real password mismatch.
	dummyHash string
}

func NewAuthService(creds ports.CredentialRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, log zerolog.Logger) (*AuthService, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("new auth service: %w", err)
	}
	return &AuthService{creds: creds, hasher: hasher, tokens: tokens, log: log, dummyHash: dummy}, nil
}

// Authenticate returns the identity behind login when password matches.
// Unknown login and wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*domain.CallerIdentity, error) {
	if login == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	cred, err := s.creds.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.log.Info().Str("login", login).Msg("authentication failed")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !s.hasher.Verify(password, cred.PasswordHash) {
		s.log.Info().Str("login", login).Msg("authentication failed")
		return nil, domain.ErrInvalidCredentials
	}

	s.log.Debug().Str("login", login).Msg("authenticated")
	return &domain.CallerIdentity{Login: cred.Login, Role: cred.Role}, nil
}

// Login authenticates and returns a bearer token for the identity.
func (s *AuthService) Login(ctx context.Context, login, password string) (string, *domain.CallerIdentity, error) {
	identity, err := s.Authenticate(ctx, login, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(*identity)
	if err != nil {
		return "", nil, fmt.Errorf("login: issue token: %w", err)
	}
	return token, identity, nil
}
