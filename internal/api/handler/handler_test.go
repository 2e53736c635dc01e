package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/account-system/internal/core/domain"
	"github.com/99minutos/account-system/internal/core/ports"
)

// --- stubs ---

type stubAccountService struct {
	createFn  func(ctx context.Context, in ports.CreateAccountInput) (*domain.Profile, error)
	getFn     func(ctx context.Context, id string, requester domain.CallerIdentity) (*domain.Profile, error)
	listFn    func(ctx context.Context) ([]*domain.Profile, error)
	replaceFn func(ctx context.Context, id string, in ports.ReplaceAccountInput, requester domain.CallerIdentity) (*domain.Profile, error)
	patchFn   func(ctx context.Context, id string, in ports.PatchAccountInput, requester domain.CallerIdentity) (*domain.Profile, error)
	deleteFn  func(ctx context.Context, id string, requester domain.CallerIdentity) error
}

func (s *stubAccountService) CreateAccount(ctx context.Context, in ports.CreateAccountInput) (*domain.Profile, error) {
	return s.createFn(ctx, in)
}

func (s *stubAccountService) GetAccount(ctx context.Context, id string, requester domain.CallerIdentity) (*domain.Profile, error) {
	return s.getFn(ctx, id, requester)
}

func (s *stubAccountService) ListAccounts(ctx context.Context) ([]*domain.Profile, error) {
	return s.listFn(ctx)
}

func (s *stubAccountService) ReplaceAccount(ctx context.Context, id string, in ports.ReplaceAccountInput, requester domain.CallerIdentity) (*domain.Profile, error) {
	return s.replaceFn(ctx, id, in, requester)
}

func (s *stubAccountService) PatchAccount(ctx context.Context, id string, in ports.PatchAccountInput, requester domain.CallerIdentity) (*domain.Profile, error) {
	return s.patchFn(ctx, id, in, requester)
}

func (s *stubAccountService) DeleteAccount(ctx context.Context, id string, requester domain.CallerIdentity) error {
	return s.deleteFn(ctx, id, requester)
}

type stubAuthService struct {
	loginFn func(ctx context.Context, login, password string) (string, *domain.CallerIdentity, error)
}

func (s *stubAuthService) Authenticate(ctx context.Context, login, password string) (*domain.CallerIdentity, error) {
	_, id, err := s.loginFn(ctx, login, password)
	return id, err
}

func (s *stubAuthService) Login(ctx context.Context, login, password string) (string, *domain.CallerIdentity, error) {
	return s.loginFn(ctx, login, password)
}

// --- helpers ---

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withCaller(c echo.Context, login string) {
	c.Set(IdentityKey, domain.CallerIdentity{Login: login, Role: domain.RoleUser})
}

func alice() *domain.Profile {
	return &domain.Profile{ID: "p-1", Username: "alice", Email: "alice@example.com", Role: domain.RoleUser}
}

func assertHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}
