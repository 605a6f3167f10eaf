package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
)

// UserStorage implements the UserStore interface on a SQL database.
type UserStorage struct {
	db     Database
	logger *log.Logger
}

// NewUserStorage creates a new UserStorage instance.
func NewUserStorage(db Database, logger *log.Logger) *UserStorage {
	return &UserStorage{db: db, logger: logger}
}

// UserAdd adds a new user to the database.
func (s *UserStorage) UserAdd(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.Created, user.Updated = now, now

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO users (id, email, password_hash, active, created, updated) VALUES (?, ?, ?, ?, ?, ?)",
			user.ID, user.Email, user.PasswordHash, user.Active, user.Created, user.Updated,
		)
		return err
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
		}
		s.logger.Error(ctx, "Failed to add user", log.Fields{"error": err, "email": user.Email})
		return fmt.Errorf("failed to add user: %w", err)
	}

	s.logger.Info(ctx, "User added", log.Fields{"id": user.ID})
	return nil
}

// UserGet retrieves users based on the provided info and filter.
func (s *UserStorage) UserGet(ctx context.Context, userInfo model.UserInfo, userFilter model.UserFilter) ([]*model.User, error) {
	query := "SELECT id, email, password_hash, active, created, updated FROM users WHERE 1=1"
	var args []interface{}

	if userFilter.ID {
		query += " AND id = ?"
		args = append(args, userInfo.ID)
	}
	if userFilter.Email {
		query += " AND email = ?"
		args = append(args, userInfo.Email)
	}
	if userFilter.Active {
		query += " AND active = ?"
		args = append(args, userInfo.Active)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Active, &u.Created, &u.Updated); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// UserUpdate writes every mutable field of user.
func (s *UserStorage) UserUpdate(ctx context.Context, user *model.User) error {
	user.Updated = time.Now().UTC()

	result, err := s.db.Exec(ctx,
		"UPDATE users SET email = ?, password_hash = ?, active = ?, updated = ? WHERE id = ?",
		user.Email, user.PasswordHash, user.Active, user.Updated, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
	}
	return nil
}

// UserDelete removes a user and, through the foreign key, the maps they own.
func (s *UserStorage) UserDelete(ctx context.Context, userID string) error {
	result, err := s.db.Exec(ctx, "DELETE FROM users WHERE id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}
