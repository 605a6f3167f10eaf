// Package event handles triggering of operations without direct dependency
package event

import (
	"context"
	"sync"

	"mindnoscape/web-app/src/pkg/log"
)

// EventType represents the type of event
type EventType int

const (
	NodeAdded EventType = iota
	NodeDeleted
	NodeMoved
	NodeUpdated
	ConnectionAdded
	SelectionChanged
	ViewPanned
	MapTitleChanged
	MapLoaded
	MapReset
	MapSaved
	MindmapAdded
	MindmapUpdated
	MindmapDeleted
	UserRegistered
	UserLoggedIn
	SessionEnded
)

var typeNames = map[EventType]string{
	NodeAdded:        "node_added",
	NodeDeleted:      "node_deleted",
	NodeMoved:        "node_moved",
	NodeUpdated:      "node_updated",
	ConnectionAdded:  "connection_added",
	SelectionChanged: "selection_changed",
	ViewPanned:       "view_panned",
	MapTitleChanged:  "map_title_changed",
	MapLoaded:        "map_loaded",
	MapReset:         "map_reset",
	MapSaved:         "map_saved",
	MindmapAdded:     "mindmap_added",
	MindmapUpdated:   "mindmap_updated",
	MindmapDeleted:   "mindmap_deleted",
	UserRegistered:   "user_registered",
	UserLoggedIn:     "user_logged_in",
	SessionEnded:     "session_ended",
}

func (t EventType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event represents an event with its type and associated data
type Event struct {
	Type EventType
	Data interface{}
}

// EventHandler is a function type for event handlers
type EventHandler func(Event)

// EventManager manages event subscriptions and publications.
// Handlers run synchronously on the publishing goroutine, in subscription order.
type EventManager struct {
	subscribers map[EventType][]EventHandler
	mu          sync.RWMutex
	logger      *log.Logger
}

// NewEventManager creates a new EventManager instance
func NewEventManager(logger *log.Logger) *EventManager {
	return &EventManager{
		subscribers: make(map[EventType][]EventHandler),
		logger:      logger,
	}
}

// Subscribe adds a new event handler for a specific event type
func (em *EventManager) Subscribe(eventType EventType, handler EventHandler) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.subscribers[eventType] = append(em.subscribers[eventType], handler)
}

// SubscribeAll registers handler for every event type.
func (em *EventManager) SubscribeAll(handler EventHandler) {
	em.mu.Lock()
	defer em.mu.Unlock()
	for t := range typeNames {
		em.subscribers[t] = append(em.subscribers[t], handler)
	}
}

// Publish sends an event to all subscribed handlers. A panicking handler is
// logged and does not stop the remaining handlers.
func (em *EventManager) Publish(event Event) {
	if em == nil {
		return
	}
	em.mu.RLock()
	handlers := append([]EventHandler(nil), em.subscribers[event.Type]...)
	em.mu.RUnlock()

	for _, handler := range handlers {
		em.dispatch(handler, event)
	}
}

func (em *EventManager) dispatch(h EventHandler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			em.logger.Error(context.Background(), "Panic in event handler", log.Fields{
				"event": event.Type.String(),
				"panic": r,
			})
		}
	}()
	h(event)
}
