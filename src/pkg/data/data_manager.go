// Package data provides data management functionality for the Mindnoscape application.
// It coordinates operations between the user and mind map managers.
package data

import (
	"context"
	"errors"
	"fmt"

	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
	"mindnoscape/web-app/src/pkg/storage"
)

// DataManager is the main struct that coordinates all data operations
type DataManager struct {
	UserManager    *UserManager
	MindmapManager *MindmapManager
	EventManager   *event.EventManager
	Config         *model.Config
	Logger         *log.Logger
}

// NewDataManager creates a new DataManager and seeds the default user when configured.
func NewDataManager(userStore storage.UserStore, mindmapStore storage.MindmapStore, cfg *model.Config, eventManager *event.EventManager, logger *log.Logger) (*DataManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	if eventManager == nil {
		eventManager = event.NewEventManager(logger)
	}

	m := &DataManager{
		EventManager: eventManager,
		Config:       cfg,
		Logger:       logger,
	}

	var err error
	m.UserManager, err = NewUserManager(userStore, eventManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create UserManager: %w", err)
	}

	m.MindmapManager, err = NewMindmapManager(mindmapStore, eventManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create MindmapManager: %w", err)
	}

	if cfg.DefaultUserActive {
		if err := m.seedDefaultUser(context.Background()); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *DataManager) seedDefaultUser(ctx context.Context) error {
	_, err := m.UserManager.UserAdd(ctx, model.UserInfo{
		Email:    m.Config.DefaultUser,
		Password: m.Config.DefaultUserPassword,
	})
	switch {
	case err == nil:
		m.Logger.Info(ctx, "Default user created", log.Fields{"email": m.Config.DefaultUser})
		return nil
	case errors.Is(err, ErrUserExists):
		return nil
	default:
		return fmt.Errorf("failed to create default user: %w", err)
	}
}
