// Package data provides data management functionality for the Mindnoscape application.
// This file contains operations related to user management.
package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
	"mindnoscape/web-app/src/pkg/storage"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

var validate = validator.New()

// UserOperations defines the interface for user-related operations
type UserOperations interface {
	UserAdd(ctx context.Context, newUserInfo model.UserInfo) (*model.User, error)
	UserAuthenticate(ctx context.Context, userInfo model.UserInfo) (*model.User, error)
	UserGet(ctx context.Context, userInfo model.UserInfo, userFilter model.UserFilter) ([]*model.User, error)
	UserDelete(ctx context.Context, user *model.User) error
}

// UserManager handles all user-related operations.
type UserManager struct {
	userStore    storage.UserStore
	eventManager *event.EventManager
	logger       *log.Logger
	hashCost     int
}

// NewUserManager creates a new UserManager instance.
func NewUserManager(userStore storage.UserStore, eventManager *event.EventManager, logger *log.Logger) (*UserManager, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	if userStore == nil {
		logger.Error(context.Background(), "UserStore not initialized", nil)
		return nil, fmt.Errorf("userStore not initialized")
	}
	if eventManager == nil {
		logger.Error(context.Background(), "EventManager not initialized", nil)
		return nil, fmt.Errorf("eventManager not initialized")
	}

	return &UserManager{
		userStore:    userStore,
		eventManager: eventManager,
		logger:       logger,
		hashCost:     bcrypt.DefaultCost,
	}, nil
}

// SetHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (um *UserManager) SetHashCost(cost int) {
	um.hashCost = cost
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserAdd registers a new user with the given email and password.
func (um *UserManager) UserAdd(ctx context.Context, newUserInfo model.UserInfo) (*model.User, error) {
	email := NormalizeEmail(newUserInfo.Email)
	um.logger.Info(ctx, "Adding new user", log.Fields{"email": email})

	if err := validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: email is not valid", ErrInvalidUser)
	}
	if len(newUserInfo.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUser, MinPasswordLength)
	}

	existing, err := um.userStore.UserGet(ctx, model.UserInfo{Email: email}, model.UserFilter{Email: true})
	if err != nil {
		um.logger.Error(ctx, "Error checking user existence", log.Fields{"error": err, "email": email})
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}
	if len(existing) > 0 {
		um.logger.Warn(ctx, "User already exists", log.Fields{"email": email})
		return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newUserInfo.Password), um.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Active:       true,
	}
	if err := um.userStore.UserAdd(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		um.logger.Error(ctx, "Failed to create user", log.Fields{"error": err, "email": email})
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	um.eventManager.Publish(event.Event{Type: event.UserRegistered, Data: user.ID})
	um.logger.Info(ctx, "User added successfully", log.Fields{"userID": user.ID})
	return user, nil
}

// UserAuthenticate verifies credentials and returns the matching active user.
func (um *UserManager) UserAuthenticate(ctx context.Context, userInfo model.UserInfo) (*model.User, error) {
	email := NormalizeEmail(userInfo.Email)

	users, err := um.userStore.UserGet(ctx, model.UserInfo{Email: email}, model.UserFilter{Email: true})
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(users) == 0 || !users[0].Active {
		um.logger.Warn(ctx, "Authentication failed", log.Fields{"email": email, "reason": "unknown user"})
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(users[0].PasswordHash, []byte(userInfo.Password)); err != nil {
		um.logger.Warn(ctx, "Authentication failed", log.Fields{"email": email, "reason": "password mismatch"})
		return nil, ErrInvalidCredentials
	}

	um.eventManager.Publish(event.Event{Type: event.UserLoggedIn, Data: users[0].ID})
	return users[0], nil
}

// UserGet retrieves users based on the provided info and filter.
func (um *UserManager) UserGet(ctx context.Context, userInfo model.UserInfo, userFilter model.UserFilter) ([]*model.User, error) {
	if userFilter.Email {
		userInfo.Email = NormalizeEmail(userInfo.Email)
	}
	users, err := um.userStore.UserGet(ctx, userInfo, userFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// UserByID returns the user with the given id or ErrNotFound.
func (um *UserManager) UserByID(ctx context.Context, id string) (*model.User, error) {
	users, err := um.UserGet(ctx, model.UserInfo{ID: id}, model.UserFilter{ID: true})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return users[0], nil
}

// UserDelete removes a user and everything they own.
func (um *UserManager) UserDelete(ctx context.Context, user *model.User) error {
	if err := um.userStore.UserDelete(ctx, user.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	um.logger.Info(ctx, "User deleted", log.Fields{"userID": user.ID})
	return nil
}
