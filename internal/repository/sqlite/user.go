package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmaia-dev/reelpick/internal/domain"
	"github.com/google/uuid"
)

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

const userColumns = `id, email, username, password_hash, is_active, confirmation_token, created_at, updated_at`

// Create inserts a new user and assigns it an opaque id. The email column
// carries a case-insensitive unique constraint; a collision surfaces as
// domain.ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, user.Email, user.Username, user.PasswordHash,
		user.IsActive, user.ConfirmationToken, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return storeErr("insert user", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "query user by id", `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail looks a user up by email. Matching is case-insensitive, in line
// with the unique constraint on the column.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "query user by email",
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
}

// GetByConfirmationToken finds the user holding an outstanding confirmation
// token. Consumed tokens are cleared, so a consumed token is a miss.
func (r *UserRepository) GetByConfirmationToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	return r.getOne(ctx, "query user by confirmation token",
		`SELECT `+userColumns+` FROM users WHERE confirmation_token = ?`, token)
}

// Update performs a merge-update: only fields set on the UserUpdate are
// written, everything else keeps its stored value.
func (r *UserRepository) Update(ctx context.Context, id string, update domain.UserUpdate) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)

	if update.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *update.Username)
	}
	if update.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *update.PasswordHash)
	}
	if update.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *update.IsActive)
	}
	if update.ConfirmationToken != nil {
		sets = append(sets, "confirmation_token = ?")
		args = append(args, *update.ConfirmationToken)
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return storeErr("update user", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storeErr("update user rows affected", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the user permanently. The id and email become free for a
// future registration.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete user", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storeErr("delete user rows affected", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash,
		&user.IsActive, &user.ConfirmationToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr(op, err)
	}
	return user, nil
}

// storeErr wraps driver failures so callers can distinguish "the store could
// not answer" from "the record is absent" and retry accordingly.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStoreUnavailable, err))
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
