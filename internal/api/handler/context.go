package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/account-system/internal/core/domain"
)

// IdentityKey is the echo context key under which the Auth middleware stores
// the authenticated domain.CallerIdentity.
const IdentityKey = "identity"

// callerIdentity extracts the identity injected by the Auth middleware and
// fails fast before any service call when it is missing.
func callerIdentity(c echo.Context) (domain.CallerIdentity, error) {
	id, ok := c.Get(IdentityKey).(domain.CallerIdentity)
	if !ok || id.Login == "" {
		return domain.CallerIdentity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}
