package datastore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coreybb/couponbook/credentials"
	"github.com/coreybb/couponbook/docstore"
	"github.com/coreybb/couponbook/models"
)

type UserRepository struct {
	users  *docstore.Collection[models.User]
	logger *slog.Logger
}

func NewUserRepository(users *docstore.Collection[models.User], logger *slog.Logger) *UserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserRepository{users: users, logger: logger.With("component", "user_repository")}
}

// UserInput carries the fields of a new user. Password is plain text and is
// hashed before it is stored.
type UserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	IsAdmin   bool
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	IsAdmin   *bool
}

func (r *UserRepository) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	hash, err := credentials.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	var created models.User
	err = r.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		taken := idSet(users, func(u models.User) string { return u.ID })
		created = models.User{
			ID:        newID(taken),
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Password:  hash,
			IsAdmin:   in.IsAdmin,
		}
		return append(users, created), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &created, nil
}

func (r *UserRepository) EditUser(ctx context.Context, userID string, upd UserUpdate) (*models.User, error) {
	// Hash outside the collection lock; bcrypt is slow on purpose.
	var hash string
	if upd.Password != nil {
		h, err := credentials.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	var updated models.User
	err := r.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		i := indexOfUser(users, userID)
		if i < 0 {
			return nil, ErrNotFound
		}
		u := &users[i]
		if upd.FirstName != nil {
			u.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			u.LastName = *upd.LastName
		}
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.Password != nil {
			u.Password = hash
		}
		if upd.IsAdmin != nil {
			u.IsAdmin = *upd.IsAdmin
		}
		updated = *u
		return users, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", userID, err)
	}
	return &updated, nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, userID string) error {
	err := r.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		i := indexOfUser(users, userID)
		if i < 0 {
			return nil, ErrNotFound
		}
		return append(users[:i], users[i+1:]...), nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", userID, err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	users := r.users.Load(ctx)
	i := indexOfUser(users, userID)
	if i < 0 {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return &users[i], nil
}

func (r *UserRepository) GetUsers(ctx context.Context) []models.User {
	return r.users.Load(ctx)
}

// GetAdmins returns a snapshot of the users flagged as administrators.
func (r *UserRepository) GetAdmins(ctx context.Context) []models.User {
	var admins []models.User
	for _, u := range r.users.Load(ctx) {
		if u.IsAdmin {
			admins = append(admins, u)
		}
	}
	return admins
}

// Authenticate finds the user whose email matches case-insensitively and
// whose credential matches password. The returned user has no credential.
func (r *UserRepository) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	for _, u := range r.users.Load(ctx) {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		needsRehash, err := credentials.Verify(u.Password, password)
		if errors.Is(err, credentials.ErrMismatch) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to verify credentials for user %s: %w", u.ID, err)
		}
		if needsRehash {
			r.upgradeCredential(ctx, u.ID, u.Password, password)
		}
		public := u.Public()
		return &public, nil
	}
	return nil, ErrAuthentication
}

// upgradeCredential replaces a legacy plain-text credential with its hash.
// Failure only costs the upgrade, never the login.
func (r *UserRepository) upgradeCredential(ctx context.Context, userID, legacy, password string) {
	hash, err := credentials.Hash(password)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to hash legacy credential", "user_id", userID, "error", err)
		return
	}
	err = r.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		i := indexOfUser(users, userID)
		if i < 0 || users[i].Password != legacy {
			return nil, errCredentialChanged
		}
		users[i].Password = hash
		return users, nil
	})
	switch {
	case err == nil:
		r.logger.InfoContext(ctx, "Upgraded legacy plain-text credential", "user_id", userID)
	case errors.Is(err, errCredentialChanged):
	default:
		r.logger.WarnContext(ctx, "Failed to store upgraded credential", "user_id", userID, "error", err)
	}
}

var errCredentialChanged = errors.New("credential changed concurrently")

func indexOfUser(users []models.User, userID string) int {
	for i := range users {
		if users[i].ID == userID {
			return i
		}
	}
	return -1
}
