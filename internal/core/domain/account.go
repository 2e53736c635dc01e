package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// MaxPasswordBytes is the longest password bcrypt accepts, counted in bytes.
const MaxPasswordBytes = 72

var ErrAccountNotFound = errors.New("account not found")
var ErrDuplicateUsername = errors.New("username already exists")
var ErrDuplicateEmail = errors.New("email already exists")
var ErrForbidden = errors.New("access forbidden")
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidAccountInput marks values that should have been rejected by the
// transport layer before reaching the service.
var ErrInvalidAccountInput = errors.New("invalid account input")

// Profile is the public identity of an account.
type Profile struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Username  string    `json:"username" bson:"username"`
	Email     string    `json:"email" bson:"email"`
	FirstName string    `json:"first_name" bson:"first_name"`
	LastName  string    `json:"last_name" bson:"last_name"`
	Role      string    `json:"role" bson:"role"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Credential holds what is needed to authenticate an account. ProfileID links
// back to the owning Profile; Login always mirrors Profile.Username.
type Credential struct {
	ID           string    `json:"-" bson:"_id,omitempty"`
	Login        string    `json:"-" bson:"login"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         string    `json:"-" bson:"role"`
	ProfileID    string    `json:"-" bson:"profile_id"`
	CreatedAt    time.Time `json:"-" bson:"created_at"`
	UpdatedAt    time.Time `json:"-" bson:"updated_at"`
}

// Account pairs the two records that make up one logical account.
type Account struct {
	Profile    *Profile
	Credential *Credential
}
