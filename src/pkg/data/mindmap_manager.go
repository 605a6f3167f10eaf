// Package data provides data management functionality for the Mindnoscape application.
// This file contains operations related to mind map documents.
package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
	"mindnoscape/web-app/src/pkg/storage"
)

// MindmapOperations defines the owner-scoped document operations.
type MindmapOperations interface {
	MindmapAdd(ctx context.Context, owner string, info model.MindmapInfo) (*model.Mindmap, error)
	MindmapGet(ctx context.Context, owner, id string) (*model.Mindmap, error)
	MindmapLatest(ctx context.Context, owner string) (*model.Mindmap, error)
	MindmapList(ctx context.Context, owner string) ([]model.MindmapSummary, error)
	MindmapUpdate(ctx context.Context, owner, id string, info model.MindmapInfo, filter model.MindmapFilter) (*model.Mindmap, error)
	MindmapDelete(ctx context.Context, owner, id string) error
}

// MindmapManager enforces ownership and document invariants over a MindmapStore.
type MindmapManager struct {
	mindmapStore storage.MindmapStore
	eventManager *event.EventManager
	logger       *log.Logger
}

// NewMindmapManager creates a new MindmapManager instance.
func NewMindmapManager(mindmapStore storage.MindmapStore, eventManager *event.EventManager, logger *log.Logger) (*MindmapManager, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	if mindmapStore == nil {
		logger.Error(context.Background(), "MindmapStore not initialized", nil)
		return nil, fmt.Errorf("mindmapStore not initialized")
	}
	if eventManager == nil {
		logger.Error(context.Background(), "EventManager not initialized", nil)
		return nil, fmt.Errorf("eventManager not initialized")
	}

	return &MindmapManager{
		mindmapStore: mindmapStore,
		eventManager: eventManager,
		logger:       logger,
	}, nil
}

// MindmapAdd creates a document for owner. A missing title, node list or
// view state falls back to the stored defaults.
func (mm *MindmapManager) MindmapAdd(ctx context.Context, owner string, info model.MindmapInfo) (*model.Mindmap, error) {
	m := &model.Mindmap{
		ID:          uuid.NewString(),
		Owner:       owner,
		Title:       strings.TrimSpace(info.Title),
		Nodes:       info.Nodes,
		Connections: info.Connections,
	}
	if m.Title == "" {
		m.Title = model.StoredDefaultTitle
	}
	if len(m.Nodes) == 0 {
		m.Nodes = []model.Node{model.RootNode()}
		m.Connections = nil
	}
	if info.ViewState != nil {
		m.ViewState = *info.ViewState
	}

	if err := NormalizeDocument(m); err != nil {
		mm.logger.Warn(ctx, "Rejected mindmap", log.Fields{"owner": owner, "error": err})
		return nil, err
	}

	if err := mm.mindmapStore.MindmapAdd(ctx, m); err != nil {
		mm.logger.Error(ctx, "Failed to add mindmap", log.Fields{"owner": owner, "error": err})
		return nil, fmt.Errorf("failed to add mindmap: %w", err)
	}

	mm.eventManager.Publish(event.Event{Type: event.MindmapAdded, Data: m})
	mm.logger.Info(ctx, "Mindmap added", log.Fields{"owner": owner, "id": m.ID, "nodes": len(m.Nodes)})
	return m, nil
}

// MindmapGet returns owner's document id. Someone else's document is reported as missing.
func (mm *MindmapManager) MindmapGet(ctx context.Context, owner, id string) (*model.Mindmap, error) {
	found, err := mm.mindmapStore.MindmapGet(ctx,
		model.MindmapInfo{ID: id},
		model.MindmapFilter{ID: true},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get mindmap: %w", err)
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	if found[0].Owner != owner {
		mm.logger.Warn(ctx, "Mindmap access by non-owner", log.Fields{"id": id, "user": owner})
		return nil, ErrNotFound
	}
	return found[0], nil
}

func (mm *MindmapManager) owned(ctx context.Context, owner string) ([]*model.Mindmap, error) {
	found, err := mm.mindmapStore.MindmapGet(ctx,
		model.MindmapInfo{Owner: owner},
		model.MindmapFilter{Owner: true},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list mindmaps: %w", err)
	}
	return found, nil
}

// MindmapLatest returns owner's most recently updated document.
func (mm *MindmapManager) MindmapLatest(ctx context.Context, owner string) (*model.Mindmap, error) {
	found, err := mm.owned(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

// MindmapList returns summaries of owner's documents, most recently updated first.
func (mm *MindmapManager) MindmapList(ctx context.Context, owner string) ([]model.MindmapSummary, error) {
	found, err := mm.owned(ctx, owner)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.MindmapSummary, 0, len(found))
	for _, m := range found {
		summaries = append(summaries, model.MindmapSummary{
			ID:        m.ID,
			Title:     m.Title,
			NodeCount: len(m.Nodes),
			Updated:   m.Updated,
		})
	}
	return summaries, nil
}

// MindmapUpdate applies the fields selected by filter to owner's document id.
func (mm *MindmapManager) MindmapUpdate(ctx context.Context, owner, id string, info model.MindmapInfo, filter model.MindmapFilter) (*model.Mindmap, error) {
	m, err := mm.MindmapGet(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if filter.Title {
		m.Title = strings.TrimSpace(info.Title)
		if m.Title == "" {
			m.Title = model.StoredDefaultTitle
		}
	}
	if filter.Nodes {
		m.Nodes = info.Nodes
	}
	if filter.Connections {
		m.Connections = info.Connections
	}
	if filter.ViewState && info.ViewState != nil {
		m.ViewState = *info.ViewState
	}

	if err := NormalizeDocument(m); err != nil {
		mm.logger.Warn(ctx, "Rejected mindmap update", log.Fields{"id": id, "error": err})
		return nil, err
	}

	if err := mm.mindmapStore.MindmapUpdate(ctx, m); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		mm.logger.Error(ctx, "Failed to update mindmap", log.Fields{"id": id, "error": err})
		return nil, fmt.Errorf("failed to update mindmap: %w", err)
	}

	mm.eventManager.Publish(event.Event{Type: event.MindmapUpdated, Data: m})
	mm.logger.Info(ctx, "Mindmap updated", log.Fields{"id": id, "nodes": len(m.Nodes)})
	return m, nil
}

// MindmapDelete removes owner's document id.
func (mm *MindmapManager) MindmapDelete(ctx context.Context, owner, id string) error {
	if _, err := mm.MindmapGet(ctx, owner, id); err != nil {
		return err
	}
	if err := mm.mindmapStore.MindmapDelete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete mindmap: %w", err)
	}

	mm.eventManager.Publish(event.Event{Type: event.MindmapDeleted, Data: id})
	mm.logger.Info(ctx, "Mindmap deleted", log.Fields{"id": id})
	return nil
}
