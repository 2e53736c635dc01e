package mongo

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/account-system/internal/core/domain"
)

// translateWriteError maps unique index violations to the domain conflict
// they stand for and wraps everything else.
func translateWriteError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, indexProfileUsername), strings.Contains(msg, indexCredentialLogin):
			return domain.ErrDuplicateUsername
		case strings.Contains(msg, indexProfileEmail):
			return domain.ErrDuplicateEmail
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func newOrParseID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NewObjectID(), nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, err)
	}
	return oid, nil
}
