package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/account-system/internal/core/domain"
)

func TestJWTIssuer_IssueAndParse(t *testing.T) {
	iss := NewJWTIssuer("secret", time.Hour)

	raw, err := iss.Issue(domain.CallerIdentity{Login: "alice", Role: domain.RoleUser})
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	id, err := iss.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Login)
	assert.Equal(t, domain.RoleUser, id.Role)
}

func TestJWTIssuer_WrongSecret(t *testing.T) {
	raw, err := NewJWTIssuer("secret", time.Hour).Issue(domain.CallerIdentity{Login: "alice"})
	require.NoError(t, err)

	_, err = NewJWTIssuer("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTIssuer_Expired(t *testing.T) {
	iss := NewJWTIssuer("secret", time.Minute)
	issuedAt := time.Now().Add(-time.Hour)
	iss.now = func() time.Time { return issuedAt }

	raw, err := iss.Issue(domain.CallerIdentity{Login: "alice"})
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTIssuer_RejectsOtherAlgorithms(t *testing.T) {
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"login": "alice",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tkn.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTIssuer("secret", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTIssuer_RequiresLogin(t *testing.T) {
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "user",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tkn.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTIssuer("secret", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTIssuer_DefaultTTL(t *testing.T) {
	assert.Equal(t, defaultTTL, NewJWTIssuer("secret", 0).ttl)
}
