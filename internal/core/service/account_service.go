package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/99minutos/account-system/internal/core/domain"
	"github.com/99minutos/account-system/internal/core/ports"
)

const tracerName = "github.com/99minutos/account-system/internal/core/service"

const (
	subjectCreated = "A new user has been created"
	subjectUpdated = "User Updated"
	subjectDeleted = "User deleted"
)

// AccountService keeps profile and credential records in step. It is the only
// component that writes either of them.
type AccountService struct {
	store      ports.AccountStore
	hasher     ports.PasswordHasher
	guard      ports.AccessGuard
	notifier   ports.Notifier
	adminEmail string
	admins     map[string]struct{}
	validate   *validator.Validate
	tracer     trace.Tracer
	log        zerolog.Logger
	now        func() time.Time
}

// AccountOption customises an AccountService.
type AccountOption func(*AccountService)

// WithAdminLogins makes accounts registered under any of logins start with the
// admin role. Existing accounts keep the role they were created with.
func WithAdminLogins(logins ...string) AccountOption {
	return func(s *AccountService) {
		for _, l := range logins {
			if l != "" {
				s.admins[l] = struct{}{}
			}
		}
	}
}

// NewAccountService wires the service. Lifecycle notices are addressed to
// adminEmail; an empty address disables them.
func NewAccountService(
	store ports.AccountStore,
	hasher ports.PasswordHasher,
	guard ports.AccessGuard,
	notifier ports.Notifier,
	adminEmail string,
	log zerolog.Logger,
	opts ...AccountOption,
) *AccountService {
	s := &AccountService{
		store:      store,
		hasher:     hasher,
		guard:      guard,
		notifier:   notifier,
		adminEmail: adminEmail,
		admins:     map[string]struct{}{},
		validate:   validator.New(),
		tracer:     otel.Tracer(tracerName),
		log:        log,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount opens a profile and its credential as one unit. Username is
// checked before email so the caller sees a single conflict at a time.
func (s *AccountService) CreateAccount(ctx context.Context, in ports.CreateAccountInput) (_ *domain.Profile, err error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.CreateAccount")
	defer func() { endSpan(span, err) }()

	if err := s.checkFields(in.Username, in.Password, in.Email); err != nil {
		return nil, err
	}

	s.log.Info().Str("username", in.Username).Msg("creating account")

	profiles := s.store.Profiles()
	if err := ensureUsernameFree(ctx, profiles, in.Username, ""); err != nil {
		s.log.Info().Str("username", in.Username).Msg("username already taken")
		return nil, err
	}
	if err := ensureEmailFree(ctx, profiles, in.Email, ""); err != nil {
		s.log.Info().Str("username", in.Username).Msg("email already taken")
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create account: hash password: %w", err)
	}

	now := s.now()
	profile := &domain.Profile{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      s.initialRole(in.Username),
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The unique indexes behind Insert are the real guard; the lookups above
	// only produce a friendlier error in the common case.
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.AccountRepositories) error {
		if err := tx.Profiles().Insert(ctx, profile); err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		cred := &domain.Credential{
			Login:        profile.Username,
			PasswordHash: hash,
			Role:         profile.Role,
			ProfileID:    profile.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Credentials().Insert(ctx, cred); err != nil {
			return fmt.Errorf("insert credential: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("username", in.Username).Msg("failed to create account")
		return nil, fmt.Errorf("create account: %w", err)
	}

	span.SetAttributes(attribute.String("account.id", profile.ID))
	s.log.Info().Str("account_id", profile.ID).Str("username", profile.Username).Msg("account created")

	s.notify(ctx, domain.NotificationAccountCreated, eventID(domain.NotificationAccountCreated, profile.ID, profile.CreatedAt), subjectCreated,
		fmt.Sprintf("User %s was successfully created with email %s", profile.Username, profile.Email))

	return profile, nil
}

// GetAccount returns the profile behind id if requester owns it.
func (s *AccountService) GetAccount(ctx context.Context, id string, requester domain.CallerIdentity) (_ *domain.Profile, err error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.GetAccount", trace.WithAttributes(attribute.String("account.id", id)))
	defer func() { endSpan(span, err) }()

	if err := s.guard.Authorize(ctx, requester, id); err != nil {
		return nil, err
	}

	profile, err := s.store.Profiles().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return profile, nil
}

// ListAccounts returns a snapshot of every profile in store order.
func (s *AccountService) ListAccounts(ctx context.Context) (_ []*domain.Profile, err error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.ListAccounts")
	defer func() { endSpan(span, err) }()

	profiles, err := s.store.Profiles().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	s.log.Debug().Int("count", len(profiles)).Msg("accounts listed")
	return profiles, nil
}

// ReplaceAccount overwrites every mutable field of the account and re-hashes
// the password.
func (s *AccountService) ReplaceAccount(ctx context.Context, id string, in ports.ReplaceAccountInput, requester domain.CallerIdentity) (_ *domain.Profile, err error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.ReplaceAccount", trace.WithAttributes(attribute.String("account.id", id)))
	defer func() { endSpan(span, err) }()

	if err := s.guard.Authorize(ctx, requester, id); err != nil {
		return nil, err
	}
	if err := s.checkFields(in.Username, in.Password, in.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("replace account: hash password: %w", err)
	}

	var profile *domain.Profile
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.AccountRepositories) error {
		acc, err := s.loadOwnedAccount(ctx, tx, id, requester)
		if err != nil {
			return err
		}
		if err := ensureUsernameFree(ctx, tx.Profiles(), in.Username, id); err != nil {
			return err
		}
		if err := ensureEmailFree(ctx, tx.Profiles(), in.Email, id); err != nil {
			return err
		}

		now := s.now()
		p, c := acc.Profile, acc.Credential
		p.Username = in.Username
		p.Email = in.Email
		p.FirstName = in.FirstName
		p.LastName = in.LastName
		p.UpdatedAt = now

		c.Login = in.Username
		c.PasswordHash = hash
		c.UpdatedAt = now

		if err := tx.Profiles().Update(ctx, p); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		if err := tx.Credentials().Update(ctx, c); err != nil {
			return fmt.Errorf("update credential: %w", err)
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replace account: %w", err)
	}

	s.log.Info().Str("account_id", id).Str("username", profile.Username).Msg("account replaced")
	s.notify(ctx, domain.NotificationAccountUpdated, eventID(domain.NotificationAccountUpdated, profile.ID, profile.UpdatedAt), subjectUpdated,
		fmt.Sprintf("User with username: %s has been successfully updated.", profile.Username))

	return profile, nil
}

// PatchAccount applies only the fields present in in. A username change is
// written to both records; a password change only touches the credential.
func (s *AccountService) PatchAccount(ctx context.Context, id string, in ports.PatchAccountInput, requester domain.CallerIdentity) (_ *domain.Profile, err error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.PatchAccount", trace.WithAttributes(attribute.String("account.id", id)))
	defer func() { endSpan(span, err) }()

	if err := s.guard.Authorize(ctx, requester, id); err != nil {
		return nil, err
	}
	if err := s.checkPatch(in); err != nil {
		return nil, err
	}

	var hash string
	if in.Password != nil {
		if hash, err = s.hasher.Hash(*in.Password); err != nil {
			return nil, fmt.Errorf("patch account: hash password: %w", err)
		}
	}

	var profile *domain.Profile
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.AccountRepositories) error {
		acc, err := s.loadOwnedAccount(ctx, tx, id, requester)
		if err != nil {
			return err
		}

		p, c := acc.Profile, acc.Credential
		profileDirty, credentialDirty := false, false

		if in.Username != nil && *in.Username != c.Login {
			if err := ensureUsernameFree(ctx, tx.Profiles(), *in.Username, id); err != nil {
				return err
			}
			p.Username = *in.Username
			c.Login = *in.Username
			profileDirty, credentialDirty = true, true
		}
		if in.Password != nil {
			c.PasswordHash = hash
			credentialDirty = true
		}
		if in.Email != nil && *in.Email != p.Email {
			if err := ensureEmailFree(ctx, tx.Profiles(), *in.Email, id); err != nil {
				return err
			}
			p.Email = *in.Email
			profileDirty = true
		}
		if in.FirstName != nil && *in.FirstName != p.FirstName {
			p.FirstName = *in.FirstName
			profileDirty = true
		}
		if in.LastName != nil && *in.LastName != p.LastName {
			p.LastName = *in.LastName
			profileDirty = true
		}

		now := s.now()
		if profileDirty {
			p.UpdatedAt = now
			if err := tx.Profiles().Update(ctx, p); err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
		}
		if credentialDirty {
			c.UpdatedAt = now
			if err := tx.Credentials().Update(ctx, c); err != nil {
				return fmt.Errorf("update credential: %w", err)
			}
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("patch account: %w", err)
	}

	s.log.Info().Str("account_id", id).Str("username", profile.Username).Msg("account patched")
	s.notify(ctx, domain.NotificationAccountUpdated, eventID(domain.NotificationAccountUpdated, profile.ID, profile.UpdatedAt), subjectUpdated,
		fmt.Sprintf("User with username: %s has been successfully partially updated.", profile.Username))

	return profile, nil
}

// DeleteAccount removes the credential and then the profile in one
// transaction, so no credential can outlive its profile. Rows are read in the
// same order as loadAccount so concurrent writers lock them consistently.
func (s *AccountService) DeleteAccount(ctx context.Context, id string, requester domain.CallerIdentity) (err error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.DeleteAccount", trace.WithAttributes(attribute.String("account.id", id)))
	defer func() { endSpan(span, err) }()

	if err := s.guard.Authorize(ctx, requester, id); err != nil {
		return err
	}

	username := domain.UnknownUsername
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.AccountRepositories) error {
		profile, err := tx.Profiles().FindByID(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrAccountNotFound):
			profile = nil
		default:
			return fmt.Errorf("find profile: %w", err)
		}

		cred, err := tx.Credentials().FindByProfileID(ctx, id)
		if err != nil {
			return fmt.Errorf("find credential: %w", err)
		}
		if err := s.checkOwner(cred, requester, id); err != nil {
			return err
		}

		if profile != nil {
			username = profile.Username
		} else {
			s.log.Warn().Str("account_id", id).Msg("credential without profile, removing credential only")
		}

		if err := tx.Credentials().DeleteByID(ctx, cred.ID); err != nil {
			return fmt.Errorf("delete credential: %w", err)
		}
		if profile != nil {
			if err := tx.Profiles().DeleteByID(ctx, profile.ID); err != nil {
				return fmt.Errorf("delete profile: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.log.Info().Str("account_id", id).Str("username", username).Msg("account deleted")
	s.notify(ctx, domain.NotificationAccountDeleted, eventID(domain.NotificationAccountDeleted, id, time.Time{}), subjectDeleted,
		fmt.Sprintf("User %s was removed from the system.", username))

	return nil
}

// notify hands the event to the notifier after the transaction committed.
// Nothing it does can change the outcome of the operation.
func (s *AccountService) notify(ctx context.Context, kind domain.NotificationKind, id, subject, body string) {
	if s.notifier == nil || s.adminEmail == "" {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("kind", string(kind)).Msg("notifier panicked")
		}
	}()

	n := domain.Notification{
		ID:        id,
		Kind:      kind,
		Recipient: s.adminEmail,
		Subject:   subject,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.notifier.Notify(context.WithoutCancel(ctx), n); err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Str("notification_id", n.ID).Msg("notification dropped")
	}
}

func (s *AccountService) checkFields(username, password, email string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", domain.ErrInvalidAccountInput)
	}
	if len(password) > domain.MaxPasswordBytes {
		return fmt.Errorf("%w: password exceeds %d bytes", domain.ErrInvalidAccountInput, domain.MaxPasswordBytes)
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: email: %v", domain.ErrInvalidAccountInput, err)
	}
	return nil
}

func (s *AccountService) checkPatch(in ports.PatchAccountInput) error {
	if in.Username != nil && *in.Username == "" {
		return fmt.Errorf("%w: username cannot be blank", domain.ErrInvalidAccountInput)
	}
	if in.Password != nil && *in.Password == "" {
		return fmt.Errorf("%w: password cannot be blank", domain.ErrInvalidAccountInput)
	}
	if in.Password != nil && len(*in.Password) > domain.MaxPasswordBytes {
		return fmt.Errorf("%w: password exceeds %d bytes", domain.ErrInvalidAccountInput, domain.MaxPasswordBytes)
	}
	if in.Email != nil {
		if err := s.validate.Var(*in.Email, "required,email"); err != nil {
			return fmt.Errorf("%w: email: %v", domain.ErrInvalidAccountInput, err)
		}
	}
	return nil
}

// eventID names one state change of an account. Enqueuing the same change
// twice, from this process or another, yields the same id.
func eventID(kind domain.NotificationKind, profileID string, version time.Time) string {
	if version.IsZero() {
		return string(kind) + ":" + profileID
	}
	return fmt.Sprintf("%s:%s:%d", kind, profileID, version.UnixNano())
}

func (s *AccountService) initialRole(username string) string {
	if _, ok := s.admins[username]; ok {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

// loadOwnedAccount loads the account through tx and checks, against the
// locked credential, that requester still owns it.
func (s *AccountService) loadOwnedAccount(ctx context.Context, tx ports.AccountRepositories, id string, requester domain.CallerIdentity) (*domain.Account, error) {
	acc, err := loadAccount(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(acc.Credential, requester, id); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *AccountService) checkOwner(cred *domain.Credential, requester domain.CallerIdentity, id string) error {
	if ownedBy(cred, requester) {
		return nil
	}
	s.log.Warn().
		Str("requester", requester.Login).
		Str("owner", cred.Login).
		Str("target_id", id).
		Msg("ownership changed before write, access denied")
	return domain.ErrForbidden
}

// loadAccount reads both records of an account through tx.
func loadAccount(ctx context.Context, tx ports.AccountRepositories, id string) (*domain.Account, error) {
	profile, err := tx.Profiles().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	cred, err := tx.Credentials().FindByProfileID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &domain.Account{Profile: profile, Credential: cred}, nil
}

// ensureUsernameFree fails with ErrDuplicateUsername when username belongs to
// a profile other than exceptID.
func ensureUsernameFree(ctx context.Context, profiles ports.ProfileRepository, username, exceptID string) error {
	existing, err := profiles.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil
		}
		return fmt.Errorf("check username: %w", err)
	}
	if existing.ID != exceptID {
		return domain.ErrDuplicateUsername
	}
	return nil
}

func ensureEmailFree(ctx context.Context, profiles ports.ProfileRepository, email, exceptID string) error {
	existing, err := profiles.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil
		}
		return fmt.Errorf("check email: %w", err)
	}
	if existing.ID != exceptID {
		return domain.ErrDuplicateEmail
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
