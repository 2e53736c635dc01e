package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/account-system/internal/core/domain"
)

func dupKey(index string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: account_system.x index: " + index + " dup key: { k: \"v\" }",
	}}}
}

func TestTranslateWriteError_Duplicates(t *testing.T) {
	assert.ErrorIs(t, translateWriteError("insert profile", dupKey(indexProfileUsername)), domain.ErrDuplicateUsername)
	assert.ErrorIs(t, translateWriteError("insert profile", dupKey(indexProfileEmail)), domain.ErrDuplicateEmail)
	assert.ErrorIs(t, translateWriteError("insert credential", dupKey(indexCredentialLogin)), domain.ErrDuplicateUsername)
}

func TestTranslateWriteError_OtherDuplicateIsWrapped(t *testing.T) {
	err := translateWriteError("insert credential", dupKey(indexCredentialProfile))
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrDuplicateUsername))
	assert.False(t, errors.Is(err, domain.ErrDuplicateEmail))
	assert.Contains(t, err.Error(), "insert credential")
}

func TestTranslateWriteError_Generic(t *testing.T) {
	cause := errors.New("socket closed")
	err := translateWriteError("update profile", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "update profile: socket closed", err.Error())
}

func TestNewOrParseID(t *testing.T) {
	oid, err := newOrParseID("")
	require.NoError(t, err)
	assert.False(t, oid.IsZero())

	existing := primitive.NewObjectID()
	parsed, err := newOrParseID(existing.Hex())
	require.NoError(t, err)
	assert.Equal(t, existing, parsed)

	_, err = newOrParseID("not-hex")
	assert.Error(t, err)
}

func TestMongoProfile_ToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := mongoProfile{ID: oid, Username: "alice", Email: "a@x.com", Role: domain.RoleUser, CreatedAt: ts, UpdatedAt: ts}.toDomain()

	assert.Equal(t, oid.Hex(), p.ID)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, ts, p.CreatedAt)
}

func TestMongoCredential_ToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	c := mongoCredential{ID: oid, Login: "alice", PasswordHash: "h", Role: domain.RoleUser, ProfileID: "p1"}.toDomain()

	assert.Equal(t, oid.Hex(), c.ID)
	assert.Equal(t, "alice", c.Login)
	assert.Equal(t, "p1", c.ProfileID)
}
