package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/account-system/internal/core/domain"
)

const (
	credentialsCollection  = "credentials"
	indexCredentialLogin   = "uniq_credentials_login"
	indexCredentialProfile = "uniq_credentials_profile_id"
)

// CredentialRepository implements ports.CredentialRepository on the
// credentials collection.
type CredentialRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewCredentialRepository(db *mongo.Database, timeout time.Duration) *CredentialRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &CredentialRepository{col: db.Collection(credentialsCollection), timeout: timeout}
}

type mongoCredential struct {
	ID           primitive.ObjectID `bson:"_id"`
	Login        string             `bson:"login"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	ProfileID    string             `bson:"profile_id"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (m mongoCredential) toDomain() *domain.Credential {
	return &domain.Credential{
		ID:           m.ID.Hex(),
		Login:        m.Login,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		ProfileID:    m.ProfileID,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func (r *CredentialRepository) Insert(ctx context.Context, c *domain.Credential) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	oid, err := newOrParseID(c.ID)
	if err != nil {
		return err
	}

	doc := mongoCredential{
		ID:           oid,
		Login:        c.Login,
		PasswordHash: c.PasswordHash,
		Role:         c.Role,
		ProfileID:    c.ProfileID,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return translateWriteError("insert credential", err)
	}
	c.ID = oid.Hex()
	return nil
}

func (r *CredentialRepository) FindByID(ctx context.Context, id string) (*domain.Credential, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *CredentialRepository) FindByLogin(ctx context.Context, login string) (*domain.Credential, error) {
	return r.findOne(ctx, bson.M{"login": login})
}

func (r *CredentialRepository) FindByProfileID(ctx context.Context, profileID string) (*domain.Credential, error) {
	return r.findOne(ctx, bson.M{"profile_id": profileID})
}

func (r *CredentialRepository) Update(ctx context.Context, c *domain.Credential) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(c.ID)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"login":         c.Login,
		"password_hash": c.PasswordHash,
		"role":          c.Role,
		"updated_at":    c.UpdatedAt,
	}})
	if err != nil {
		return translateWriteError("update credential", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *CredentialRepository) DeleteByID(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// EnsureIndexes makes login unique and allows at most one credential per profile.
func (r *CredentialRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "login", Value: 1}},
			Options: options.Index().SetName(indexCredentialLogin).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "profile_id", Value: 1}},
			Options: options.Index().SetName(indexCredentialProfile).SetUnique(true),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *CredentialRepository) findOne(ctx context.Context, filter bson.M) (*domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc mongoCredential
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return doc.toDomain(), nil
}
