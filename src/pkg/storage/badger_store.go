package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
)

// Key layout:
//
//	user/<id>               user record
//	email/<email>           user id
//	mindmap/<id>            mind map document
//	owner/<owner>/<id>      empty, owner index
const (
	prefixUser    = "user/"
	prefixEmail   = "email/"
	prefixMindmap = "mindmap/"
	prefixOwner   = "owner/"
)

// userRecord keeps the password hash that model.User hides from JSON.
type userRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"password_hash"`
	Active       bool      `json:"active"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`
}

func toRecord(u *model.User) userRecord {
	return userRecord{ID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash, Active: u.Active, Created: u.Created, Updated: u.Updated}
}

func (r userRecord) user() *model.User {
	return &model.User{ID: r.ID, Email: r.Email, PasswordHash: r.PasswordHash, Active: r.Active, Created: r.Created, Updated: r.Updated}
}

// BadgerUserStorage implements UserStore on badger.
type BadgerUserStorage struct {
	db     *badger.DB
	logger *log.Logger
}

// NewBadgerUserStorage creates a user store on an open badger database.
func NewBadgerUserStorage(b *BadgerDatabase) *BadgerUserStorage {
	return &BadgerUserStorage{db: b.db, logger: b.logger}
}

func getJSON(txn *badger.Txn, key string, v interface{}) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

// UserAdd stores a new user, refusing duplicate ids or emails.
func (s *BadgerUserStorage) UserAdd(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.Created, user.Updated = now, now

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(prefixEmail + user.Email)); err == nil {
			return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
		}
		if _, err := txn.Get([]byte(prefixUser + user.ID)); err == nil {
			return fmt.Errorf("user %s: %w", user.ID, ErrDuplicate)
		}
		if err := setJSON(txn, prefixUser+user.ID, toRecord(user)); err != nil {
			return err
		}
		return txn.Set([]byte(prefixEmail+user.Email), []byte(user.ID))
	})
	if err != nil {
		if !errors.Is(err, ErrDuplicate) {
			s.logger.Error(ctx, "Failed to add user", log.Fields{"error": err})
		}
		return fmt.Errorf("failed to add user: %w", err)
	}
	return nil
}

// UserGet retrieves users based on the provided info and filter.
func (s *BadgerUserStorage) UserGet(ctx context.Context, userInfo model.UserInfo, userFilter model.UserFilter) ([]*model.User, error) {
	var users []*model.User

	err := s.db.View(func(txn *badger.Txn) error {
		// Point lookups first
		if userFilter.ID || userFilter.Email {
			id := userInfo.ID
			if !userFilter.ID {
				item, err := txn.Get([]byte(prefixEmail + userInfo.Email))
				if errors.Is(err, badger.ErrKeyNotFound) {
					return nil
				}
				if err != nil {
					return err
				}
				raw, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				id = string(raw)
			}
			var rec userRecord
			if err := getJSON(txn, prefixUser+id, &rec); err != nil {
				if errors.Is(err, ErrNotFound) {
					return nil
				}
				return err
			}
			if u := rec.user(); matchUser(u, userInfo, userFilter) {
				users = append(users, u)
			}
			return nil
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(prefixUser)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec userRecord
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &rec) }); err != nil {
				return err
			}
			if u := rec.user(); matchUser(u, userInfo, userFilter) {
				users = append(users, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}

// UserUpdate writes every mutable field of user.
func (s *BadgerUserStorage) UserUpdate(ctx context.Context, user *model.User) error {
	user.Updated = time.Now().UTC()

	err := s.db.Update(func(txn *badger.Txn) error {
		var old userRecord
		if err := getJSON(txn, prefixUser+user.ID, &old); err != nil {
			return err
		}
		if old.Email != user.Email {
			if _, err := txn.Get([]byte(prefixEmail + user.Email)); err == nil {
				return ErrDuplicate
			}
			if err := txn.Delete([]byte(prefixEmail + old.Email)); err != nil {
				return err
			}
			if err := txn.Set([]byte(prefixEmail+user.Email), []byte(user.ID)); err != nil {
				return err
			}
		}
		rec := toRecord(user)
		rec.Created = old.Created
		return setJSON(txn, prefixUser+user.ID, rec)
	})
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}
	return nil
}

// UserDelete removes a user and the maps they own.
func (s *BadgerUserStorage) UserDelete(ctx context.Context, userID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var rec userRecord
		if err := getJSON(txn, prefixUser+userID, &rec); err != nil {
			return err
		}
		ids, err := ownerIndex(txn, userID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := deleteMindmap(txn, userID, id); err != nil {
				return err
			}
		}
		if err := txn.Delete([]byte(prefixEmail + rec.Email)); err != nil {
			return err
		}
		return txn.Delete([]byte(prefixUser + userID))
	})
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", userID, err)
	}
	return nil
}

// BadgerMindmapStorage implements MindmapStore on badger.
type BadgerMindmapStorage struct {
	db     *badger.DB
	logger *log.Logger
}

// NewBadgerMindmapStorage creates a mind map store on an open badger database.
func NewBadgerMindmapStorage(b *BadgerDatabase) *BadgerMindmapStorage {
	return &BadgerMindmapStorage{db: b.db, logger: b.logger}
}

func ownerKey(owner, id string) []byte {
	return []byte(prefixOwner + owner + "/" + id)
}

func ownerIndex(txn *badger.Txn, owner string) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	prefix := []byte(prefixOwner + owner + "/")
	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids = append(ids, string(it.Item().Key()[len(prefix):]))
	}
	return ids, nil
}

func deleteMindmap(txn *badger.Txn, owner, id string) error {
	if err := txn.Delete(ownerKey(owner, id)); err != nil {
		return err
	}
	return txn.Delete([]byte(prefixMindmap + id))
}

// MindmapAdd inserts a new document. The caller assigns the ID.
func (s *BadgerMindmapStorage) MindmapAdd(ctx context.Context, mindmap *model.Mindmap) error {
	now := time.Now().UTC()
	mindmap.Created, mindmap.Updated = now, now

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(prefixMindmap + mindmap.ID)); err == nil {
			return ErrDuplicate
		}
		if err := setJSON(txn, prefixMindmap+mindmap.ID, mindmap); err != nil {
			return err
		}
		return txn.Set(ownerKey(mindmap.Owner, mindmap.ID), nil)
	})
	if err != nil {
		s.logger.Error(ctx, "Failed to add mindmap", log.Fields{"error": err, "id": mindmap.ID})
		return fmt.Errorf("failed to add mindmap: %w", err)
	}
	return nil
}

// MindmapGet retrieves mind maps based on the provided info and filter.
func (s *BadgerMindmapStorage) MindmapGet(ctx context.Context, mindmapInfo model.MindmapInfo, mindmapFilter model.MindmapFilter) ([]*model.Mindmap, error) {
	var mindmaps []*model.Mindmap

	collect := func(txn *badger.Txn, id string) error {
		var m model.Mindmap
		if err := getJSON(txn, prefixMindmap+id, &m); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		if matchMindmap(&m, mindmapInfo, mindmapFilter) {
			mindmaps = append(mindmaps, &m)
		}
		return nil
	}

	err := s.db.View(func(txn *badger.Txn) error {
		switch {
		case mindmapFilter.ID:
			return collect(txn, mindmapInfo.ID)
		case mindmapFilter.Owner:
			ids, err := ownerIndex(txn, mindmapInfo.Owner)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := collect(txn, id); err != nil {
					return err
				}
			}
			return nil
		default:
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			prefix := []byte(prefixMindmap)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				var m model.Mindmap
				if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &m) }); err != nil {
					return err
				}
				if matchMindmap(&m, mindmapInfo, mindmapFilter) {
					mindmaps = append(mindmaps, &m)
				}
			}
			return nil
		}
	})
	if err != nil {
		s.logger.Error(ctx, "Failed to query mindmaps", log.Fields{"error": err})
		return nil, fmt.Errorf("failed to query mindmaps: %w", err)
	}

	sortByUpdated(mindmaps)
	return mindmaps, nil
}

// MindmapUpdate replaces the stored document. Owner and creation time are kept.
func (s *BadgerMindmapStorage) MindmapUpdate(ctx context.Context, mindmap *model.Mindmap) error {
	mindmap.Updated = time.Now().UTC()

	err := s.db.Update(func(txn *badger.Txn) error {
		var old model.Mindmap
		if err := getJSON(txn, prefixMindmap+mindmap.ID, &old); err != nil {
			return err
		}
		mindmap.Owner = old.Owner
		mindmap.Created = old.Created
		return setJSON(txn, prefixMindmap+mindmap.ID, mindmap)
	})
	if err != nil {
		return fmt.Errorf("failed to update mindmap %s: %w", mindmap.ID, err)
	}
	return nil
}

// MindmapDelete removes a document and its owner index entry.
func (s *BadgerMindmapStorage) MindmapDelete(ctx context.Context, mindmapID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var m model.Mindmap
		if err := getJSON(txn, prefixMindmap+mindmapID, &m); err != nil {
			return err
		}
		return deleteMindmap(txn, m.Owner, mindmapID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete mindmap %s: %w", mindmapID, err)
	}
	return nil
}
