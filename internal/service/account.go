package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/dmaia-dev/reelpick/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	credentialTTL     = 24 * time.Hour
	storeRetryBackoff = 200 * time.Millisecond
)

// AccountService owns the account lifecycle: registration, activation,
// authentication, profile mutation, and deletion. All reads and writes go
// through the user repository; mutations for the same user are serialized by
// an in-process lock.
type AccountService struct {
	users        domain.UserRepository
	mailer       domain.Mailer
	jwtSecret    []byte
	bcryptCost   int
	storeTimeout time.Duration
	locks        *keyedMutex
	dummyHash    []byte
}

// NewAccountService creates a new AccountService.
func NewAccountService(users domain.UserRepository, mailer domain.Mailer, jwtSecret string, bcryptCost int, storeTimeout time.Duration) *AccountService {
	// Hashed once at startup; compared against on lookups that miss so the
	// unknown-email path costs the same as a wrong password.
	dummy, err := bcrypt.GenerateFromPassword([]byte("reelpick.dummy.credential"), bcryptCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}

	return &AccountService{
		users:        users,
		mailer:       mailer,
		jwtSecret:    []byte(jwtSecret),
		bcryptCost:   bcryptCost,
		storeTimeout: storeTimeout,
		locks:        newKeyedMutex(),
		dummyHash:    dummy,
	}
}

// Register creates a new inactive account with a fresh confirmation token and
// asks the mailer to deliver the activation link. The returned bool reports
// whether the mail went out; a delivery failure leaves the account created
// but inactive, recoverable through ResendConfirmation.
func (s *AccountService) Register(ctx context.Context, email, username, password string) (*domain.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if email == "" || username == "" || password == "" {
		return nil, false, fmt.Errorf("%w: email, username, and password are required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, false, fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, false, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	// Pre-check for a friendlier conflict; the unique constraint on the
	// email column still backstops a concurrent insert.
	_, err := s.findUser(ctx, func(c context.Context) (*domain.User, error) {
		return s.users.GetByEmail(c, email)
	})
	if err == nil {
		return nil, false, domain.ErrDuplicateEmail
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	token, err := newConfirmationToken()
	if err != nil {
		return nil, false, err
	}

	user := &domain.User{
		Email:             email,
		Username:          username,
		PasswordHash:      string(hash),
		IsActive:          false,
		ConfirmationToken: token,
	}

	if err := s.store(ctx, func(c context.Context) error {
		return s.users.Create(c, user)
	}); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	if err := s.mailer.SendActivation(ctx, user.Email, token); err != nil {
		slog.Error("send activation mail", "email", user.Email, "error", err)
		return user, false, nil
	}

	return user, true, nil
}

// Authenticate verifies credentials and returns a signed bearer credential.
// Unknown email and wrong password are indistinguishable to the caller; the
// inactive state is only reported once the password has verified.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.findUser(ctx, func(c context.Context) (*domain.User, error) {
		return s.users.GetByEmail(c, email)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Burn the same hashing cost as the found path.
			bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		return "", domain.ErrNotActivated
	}

	credential, err := s.signCredential(user)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return credential, nil
}

// Activate consumes a confirmation token: the matching account becomes active
// and the token is cleared in the same merge-update. A token can only ever
// activate once.
func (s *AccountService) Activate(ctx context.Context, token string) (*domain.User, error) {
	user, err := s.findUser(ctx, func(c context.Context) (*domain.User, error) {
		return s.users.GetByConfirmationToken(c, token)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("get user by token: %w", err)
	}

	unlock := s.locks.lock(user.ID)
	defer unlock()

	// Re-read under the lock: the token may have been consumed or replaced
	// between the lookup and here.
	user, err = s.findUser(ctx, func(c context.Context) (*domain.User, error) {
		return s.users.GetByID(c, user.ID)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.IsActive || user.ConfirmationToken != token {
		return nil, domain.ErrInvalidToken
	}

	active := true
	cleared := ""
	if err := s.store(ctx, func(c context.Context) error {
		return s.users.Update(c, user.ID, domain.UserUpdate{IsActive: &active, ConfirmationToken: &cleared})
	}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("activate user: %w", err)
	}

	user.IsActive = true
	user.ConfirmationToken = ""
	return user, nil
}

// ResendConfirmation reissues the activation token for an inactive account
// and re-sends the mail. The new token replaces the old one. Unknown and
// already-active emails succeed silently so the endpoint cannot be used to
// probe for accounts.
func (s *AccountService) ResendConfirmation(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.findUser(ctx, func(c context.Context) (*domain.User, error) {
		return s.users.GetByEmail(c, email)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}
	if user.IsActive {
		return nil
	}

	unlock := s.locks.lock(user.ID)
	defer unlock()

	// Re-read under the lock: an activation may have completed between the
	// lookup and here, and a token must never be written onto an active
	// account.
	user, err = s.findUser(ctx, func(c context.Context) (*domain.User, error) {
		return s.users.GetByID(c, user.ID)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}
	if user.IsActive {
		return nil
	}

	token, err := newConfirmationToken()
	if err != nil {
		return err
	}

	if err := s.store(ctx, func(c context.Context) error {
		return s.users.Update(c, user.ID, domain.UserUpdate{ConfirmationToken: &token})
	}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("replace confirmation token: %w", err)
	}

	if err := s.mailer.SendActivation(ctx, user.Email, token); err != nil {
		return fmt.Errorf("send activation mail: %w", err)
	}
	return nil
}

// UpdateName changes the display name.
func (s *AccountService) UpdateName(ctx context.Context, userID, newName string) (*domain.User, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, fmt.Errorf("%w: name must not be blank", domain.ErrInvalidInput)
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	if err := s.store(ctx, func(c context.Context) error {
		return s.users.Update(c, userID, domain.UserUpdate{Username: &newName})
	}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update name: %w", err)
	}

	return s.findUser(ctx, func(c context.Context) (*domain.User, error) {
		return s.users.GetByID(c, userID)
	})
}

// UpdatePassword verifies the current password before storing the hash of the
// new one. The new password must meet the strength check and differ from the
// current one.
func (s *AccountService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	user, err := s.findUser(ctx, func(c context.Context) (*domain.User, error) {
		return s.users.GetByID(c, userID)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return domain.ErrInvalidCredentials
	}

	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(newPassword)) == nil {
		return fmt.Errorf("%w: new password must differ from the current one", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	newHash := string(hash)
	if err := s.store(ctx, func(c context.Context) error {
		return s.users.Update(c, userID, domain.UserUpdate{PasswordHash: &newHash})
	}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// DeleteAccount removes the record permanently. Outstanding bearer
// credentials for the id die with it, because the auth guard resolves every
// credential against the store.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	if err := s.store(ctx, func(c context.Context) error {
		return s.users.Delete(c, userID)
	}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by id.
func (s *AccountService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findUser(ctx, func(c context.Context) (*domain.User, error) {
		return s.users.GetByID(c, id)
	})
}

// ValidateCredential parses and validates a bearer credential, returning the
// user id from the sub claim. It does not consult the store; callers that
// need deletion or deactivation to take effect must re-resolve the user.
func (s *AccountService) ValidateCredential(credential string) (string, error) {
	token, err := jwt.Parse(credential, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", domain.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.ErrUnauthorized
	}
	return sub, nil
}

func (s *AccountService) signCredential(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"email":    user.Email,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(credentialTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// store runs a repository call with a per-call timeout and retries once after
// a short backoff when the store itself was unavailable. Absence of data is
// never retried.
func (s *AccountService) store(ctx context.Context, fn func(context.Context) error) error {
	err := s.attempt(ctx, fn)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		slog.Warn("store unavailable, retrying", "error", err)
		select {
		case <-time.After(storeRetryBackoff):
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, ctx.Err())
		}
		err = s.attempt(ctx, fn)
	}
	return err
}

func (s *AccountService) attempt(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return fn(ctx)
}

func (s *AccountService) findUser(ctx context.Context, get func(context.Context) (*domain.User, error)) (*domain.User, error) {
	var user *domain.User
	err := s.store(ctx, func(c context.Context) error {
		var err error
		user, err = get(c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
