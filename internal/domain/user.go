package domain

import (
	"context"
	"time"
)

// User represents a registered account. A user is created inactive with a
// pending confirmation token and becomes active exactly once, when the token
// is consumed.
type User struct {
	ID                string
	Email             string
	Username          string
	PasswordHash      string
	IsActive          bool
	ConfirmationToken string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// UserUpdate is a merge-update: only non-nil fields are written, everything
// else is left untouched. Email and ID are immutable and deliberately absent.
type UserUpdate struct {
	Username          *string
	PasswordHash      *string
	IsActive          *bool
	ConfirmationToken *string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByConfirmationToken(ctx context.Context, token string) (*User, error)
	Update(ctx context.Context, id string, update UserUpdate) error
	Delete(ctx context.Context, id string) error
}
