package storage

import (
	"context"
	"sort"

	"mindnoscape/web-app/src/pkg/model"
)

// UserStore defines the interface for user-related storage operations.
type UserStore interface {
	UserAdd(ctx context.Context, user *model.User) error
	UserGet(ctx context.Context, userInfo model.UserInfo, userFilter model.UserFilter) ([]*model.User, error)
	UserUpdate(ctx context.Context, user *model.User) error
	UserDelete(ctx context.Context, userID string) error
}

// MindmapStore defines the interface for mind map document storage.
// MindmapGet returns documents ordered by most recently updated first.
type MindmapStore interface {
	MindmapAdd(ctx context.Context, mindmap *model.Mindmap) error
	MindmapGet(ctx context.Context, mindmapInfo model.MindmapInfo, mindmapFilter model.MindmapFilter) ([]*model.Mindmap, error)
	MindmapUpdate(ctx context.Context, mindmap *model.Mindmap) error
	MindmapDelete(ctx context.Context, mindmapID string) error
}

func sortByUpdated(mindmaps []*model.Mindmap) {
	sort.SliceStable(mindmaps, func(i, j int) bool {
		return mindmaps[i].Updated.After(mindmaps[j].Updated)
	})
}

func matchUser(u *model.User, info model.UserInfo, filter model.UserFilter) bool {
	if filter.ID && u.ID != info.ID {
		return false
	}
	if filter.Email && u.Email != info.Email {
		return false
	}
	if filter.Active && u.Active != info.Active {
		return false
	}
	return true
}

func matchMindmap(m *model.Mindmap, info model.MindmapInfo, filter model.MindmapFilter) bool {
	if filter.ID && m.ID != info.ID {
		return false
	}
	if filter.Owner && m.Owner != info.Owner {
		return false
	}
	if filter.Title && m.Title != info.Title {
		return false
	}
	return true
}
