// Package editor is the client side of a mind map session. It owns the Graph
// Store, the interaction controller and the user's credential, and applies
// results coming back from the Persistence Gateway.
//
// An Editor is single-writer: every method except the *Async starters' network
// halves runs on the goroutine that owns it. Completions of asynchronous calls
// are queued on the inbox and applied by Drain, and a completion whose
// generation no longer matches (logout, login, new map since it started) is
// discarded.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/gateway"
	"mindnoscape/web-app/src/pkg/graph"
	"mindnoscape/web-app/src/pkg/interaction"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
	"mindnoscape/web-app/src/pkg/render"
)

// Status messages shown to the user.
const (
	StatusWelcome         = "Welcome! Login or register to start creating."
	StatusLoggedOut       = "You have been logged out."
	StatusSessionExpired  = "Session expired or unauthorized. Please log in again."
	StatusLoginToSave     = "Please log in to save your mind map."
	StatusLoginToLoad     = "Please log in to load a mind map."
	StatusSaving          = "Saving mind map..."
	StatusSaved           = "Mind map saved successfully!"
	StatusLoading         = "Loading mind map..."
	StatusNoMindmap       = "No mind map found"
	StatusCannotAdd       = "Cannot add node: No root node found or selected node does not exist."
	StatusCannotDelete    = "Cannot delete root node or no node selected."
	StatusNewMap          = "Started a new mind map."
	StatusInvalidDocument = "Stored mind map is invalid"
)

var (
	// ErrNotLoggedIn is returned by operations that need a session.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrStale marks a completion discarded because the session or map changed.
	ErrStale = errors.New("stale result discarded")
)

// Gateway is the subset of gateway.Client the editor uses.
type Gateway interface {
	Save(ctx context.Context, cred *gateway.Credential, doc model.Mindmap) (model.Mindmap, error)
	Load(ctx context.Context, cred *gateway.Credential, id string) (model.Mindmap, error)
	List(ctx context.Context, cred *gateway.Credential) ([]model.MindmapSummary, error)
	Delete(ctx context.Context, cred *gateway.Credential, id string) error
	Register(ctx context.Context, email, password string) (*gateway.Credential, error)
	Login(ctx context.Context, email, password string) (*gateway.Credential, error)
	Logout(ctx context.Context, cred *gateway.Credential) error
	Me(ctx context.Context, cred *gateway.Credential) (*gateway.Account, error)
}

// CredentialStore persists the session between runs. gateway.CredentialFile
// implements it.
type CredentialStore interface {
	Load() (*gateway.Credential, error)
	Save(cred *gateway.Credential) error
	Clear() error
}

// Option configures an Editor.
type Option func(*Editor)

// WithStore uses an existing store instead of a fresh one.
func WithStore(s *graph.Store) Option {
	return func(e *Editor) { e.store = s }
}

// WithViewport sets the canvas origin used by the controller.
func WithViewport(v interaction.Viewport) Option {
	return func(e *Editor) { e.viewport = v }
}

// WithInboxSize sets how many completions can wait for Drain.
func WithInboxSize(n int) Option {
	return func(e *Editor) { e.inboxSize = n }
}

// Editor is one user's editing session.
type Editor struct {
	gw       Gateway
	creds    CredentialStore
	events   *event.EventManager
	logger   *log.Logger
	store    *graph.Store
	ctrl     *interaction.Controller
	viewport interaction.Viewport

	cred       *gateway.Credential
	generation uint64
	status     string

	inboxSize int
	inbox     chan func()
	pending   sync.WaitGroup
}

// NewEditor creates an editor holding the default single-root map. creds may
// be nil, in which case the session is not persisted.
func NewEditor(gw Gateway, creds CredentialStore, em *event.EventManager, logger *log.Logger, opts ...Option) (*Editor, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	if gw == nil {
		logger.Error(context.Background(), "Gateway not initialized", nil)
		return nil, fmt.Errorf("gateway not initialized")
	}

	e := &Editor{
		gw:        gw,
		creds:     creds,
		events:    em,
		logger:    logger,
		status:    StatusWelcome,
		inboxSize: 16,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = graph.NewStore(graph.WithEvents(em))
	}
	e.ctrl = interaction.NewController(e.store, e.viewport, logger)
	e.inbox = make(chan func(), e.inboxSize)
	return e, nil
}

// Store returns the map being edited.
func (e *Editor) Store() *graph.Store {
	return e.store
}

// Controller returns the pointer interaction state machine.
func (e *Editor) Controller() *interaction.Controller {
	return e.ctrl
}

// Status returns the last user-facing message.
func (e *Editor) Status() string {
	return e.status
}

func (e *Editor) setStatus(msg string) {
	e.status = msg
	e.logger.Info(context.Background(), "Status", log.Fields{"message": msg})
}

// Generation changes whenever in-flight results must no longer apply.
func (e *Editor) Generation() uint64 {
	return e.generation
}

func (e *Editor) bump() uint64 {
	e.generation++
	return e.generation
}

// Scene projects the current map for drawing.
func (e *Editor) Scene() render.Scene {
	return render.Project(render.SceneInput{
		Nodes:       e.store.Nodes(),
		Connections: e.store.Connections(),
		View:        e.store.View(),
		SelectedID:  e.store.Selected(),
		DraggingID:  e.ctrl.DraggingID(),
		Interacting: e.ctrl.Active(),
	})
}

// Add creates a child of the selected node, or of the root when nothing is
// selected, selects it and opens the content editor on it.
func (e *Editor) Add() (model.Node, bool) {
	parent := e.store.Selected()
	if parent == "" {
		parent = e.store.Root().ID
	}

	child, err := e.store.AddChild(parent, e.store.RandomPlacement())
	if err != nil {
		e.logger.Warn(context.Background(), "Add node rejected", log.Fields{"parent": parent, "error": err})
		e.setStatus(StatusCannotAdd)
		return model.Node{}, false
	}
	if err := e.store.Select(child.ID); err != nil {
		e.logger.Warn(context.Background(), "Failed to select new node", log.Fields{"node": child.ID, "error": err})
	}
	e.ctrl.DoubleActivate(child.ID)
	e.logger.Command(context.Background(), "node add", log.Fields{"parent": parent, "node": child.ID})
	return child, true
}

// Delete removes the selected node and its connections. The root and an
// empty selection are refused with a status message.
func (e *Editor) Delete() bool {
	id := e.store.Selected()
	if err := e.store.DeleteNode(id); err != nil {
		e.logger.Debug(context.Background(), "Delete node rejected", log.Fields{"node": id, "error": err})
		e.setStatus(StatusCannotDelete)
		return false
	}
	if e.ctrl.Overlay().NodeID() == id {
		e.ctrl.Overlay().Close()
	}
	e.logger.Command(context.Background(), "node delete", log.Fields{"node": id})
	return true
}

// NewMap discards the current map. Pending loads and saves for the old map
// are ignored when they complete.
func (e *Editor) NewMap() {
	e.bump()
	e.ctrl.Cancel()
	e.store.Reset()
	e.setStatus(StatusNewMap)
}
