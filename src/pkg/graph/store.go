// Package graph holds the in-memory mind map being edited: nodes, parent to
// child connections, the map title, the canvas translation and the selection.
//
// A Store is owned by a single goroutine. Every mutation keeps these
// invariants: exactly one root, unique node ids, no connection to a missing
// node, no duplicate (from, to) pair.
package graph

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/model"
)

// ChildDistance is how far a new child is placed from its parent.
const ChildDistance = 150

// Guard failures. Callers turn these into status messages.
var (
	ErrNoSelection    = errors.New("no node selected")
	ErrRootNode       = errors.New("root node cannot be deleted")
	ErrNodeNotFound   = errors.New("node not found")
	ErrParentNotFound = errors.New("parent node not found")
	ErrSelfConnection = errors.New("node cannot connect to itself")
	ErrInvalidMap     = errors.New("invalid mind map")
)

// Placement positions a new child relative to its parent.
type Placement struct {
	Angle    float64
	Distance float64
}

// RandomPlacement picks a uniformly random angle at ChildDistance.
func RandomPlacement(r *rand.Rand) Placement {
	return Placement{Angle: r.Float64() * 2 * math.Pi, Distance: ChildDistance}
}

// Store is the canonical mind map of one editor session.
type Store struct {
	id       string
	title    string
	order    []string
	nodes    map[string]*model.Node
	conns    []model.Connection
	connSet  map[model.Connection]struct{}
	selected string
	view     model.ViewState

	rng    *rand.Rand
	newID  func() string
	events *event.EventManager
}

// Option configures a Store.
type Option func(*Store)

// WithRand sets the source used for placement angles and colors.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rng = r }
}

// WithIDGenerator replaces uuid.NewString for node ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithEvents publishes a notification after every mutation.
func WithEvents(em *event.EventManager) Option {
	return func(s *Store) { s.events = em }
}

// NewStore returns a store holding the default single-root map.
func NewStore(opts ...Option) *Store {
	s := &Store{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

func (s *Store) publish(t event.EventType, data interface{}) {
	s.events.Publish(event.Event{Type: t, Data: data})
}

func (s *Store) reset() {
	root := model.RootNode()
	s.id = ""
	s.title = model.MapDefaultTitle
	s.order = []string{root.ID}
	s.nodes = map[string]*model.Node{root.ID: &root}
	s.conns = nil
	s.connSet = make(map[model.Connection]struct{})
	s.selected = ""
	s.view = model.ViewState{}
}

// Reset discards the current map and starts over from the default root.
func (s *Store) Reset() {
	s.reset()
	s.publish(event.MapReset, nil)
}

// RandomPlacement draws a placement from the store's random source.
func (s *Store) RandomPlacement() Placement {
	return RandomPlacement(s.rng)
}

// AddChild creates a node at p relative to parentID, connects parent to it
// and returns the new node. The color is drawn from model.Palette.
func (s *Store) AddChild(parentID string, p Placement) (model.Node, error) {
	parent, ok := s.nodes[parentID]
	if !ok {
		return model.Node{}, fmt.Errorf("%w: %s", ErrParentNotFound, parentID)
	}

	child := model.Node{
		ID:    s.newID(),
		X:     parent.X + p.Distance*math.Cos(p.Angle),
		Y:     parent.Y + p.Distance*math.Sin(p.Angle),
		Title: model.NodeDefaultTitle,
		Color: model.Palette[s.rng.Intn(len(model.Palette))],
	}
	for {
		if _, exists := s.nodes[child.ID]; !exists {
			break
		}
		child.ID = s.newID()
	}

	s.order = append(s.order, child.ID)
	s.nodes[child.ID] = &child
	s.addConnection(model.Connection{From: parentID, To: child.ID})

	s.publish(event.NodeAdded, child)
	return child, nil
}

func (s *Store) addConnection(c model.Connection) bool {
	if _, dup := s.connSet[c]; dup {
		return false
	}
	s.connSet[c] = struct{}{}
	s.conns = append(s.conns, c)
	return true
}

// Connect adds an edge between two existing nodes. An existing pair is a no-op
// and reports false.
func (s *Store) Connect(from, to string) (bool, error) {
	if from == to {
		return false, ErrSelfConnection
	}
	if _, ok := s.nodes[from]; !ok {
		return false, fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	if _, ok := s.nodes[to]; !ok {
		return false, fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	c := model.Connection{From: from, To: to}
	if !s.addConnection(c) {
		return false, nil
	}
	s.publish(event.ConnectionAdded, c)
	return true, nil
}

// DeleteNode removes a non-root node and exactly the connections touching it,
// then clears the selection.
func (s *Store) DeleteNode(id string) error {
	if id == "" {
		return ErrNoSelection
	}
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if n.IsRoot {
		return ErrRootNode
	}

	delete(s.nodes, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	kept := s.conns[:0]
	for _, c := range s.conns {
		if c.From == id || c.To == id {
			delete(s.connSet, c)
			continue
		}
		kept = append(kept, c)
	}
	s.conns = kept
	s.selected = ""

	s.publish(event.NodeDeleted, id)
	return nil
}

// UpdateNodeContent sets a node's title and notes. Both are trimmed; an empty
// title becomes "New Idea". Editing the root also renames the map. An empty id
// is a no-op.
func (s *Store) UpdateNodeContent(id, title, text string) error {
	if id == "" {
		return nil
	}
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	trimmed := strings.TrimSpace(title)
	n.Title = trimmed
	if n.Title == "" {
		n.Title = model.NodeDefaultTitle
	}
	n.Text = strings.TrimSpace(text)

	if n.IsRoot {
		s.title = trimmed
		if s.title == "" {
			s.title = model.MapDefaultTitle
		}
		s.publish(event.MapTitleChanged, s.title)
	}

	s.publish(event.NodeUpdated, *n)
	return nil
}

// MoveNode overwrites a node's position. No clamping.
func (s *Store) MoveNode(id string, x, y float64) error {
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	n.X, n.Y = x, y
	s.publish(event.NodeMoved, *n)
	return nil
}

// SetTitle applies the title editor's rules: the value is trimmed, and empty
// or the untitled placeholder keeps the previous title. It reports whether
// the title changed.
func (s *Store) SetTitle(title string) bool {
	t := strings.TrimSpace(title)
	if t == "" || t == model.MapDefaultTitle || t == s.title {
		return false
	}
	s.title = t
	s.publish(event.MapTitleChanged, t)
	return true
}

// Select marks id as the selected node. An empty id clears the selection.
func (s *Store) Select(id string) error {
	if id != "" {
		if _, ok := s.nodes[id]; !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
	}
	if s.selected == id {
		return nil
	}
	s.selected = id
	s.publish(event.SelectionChanged, id)
	return nil
}

// Selected returns the selected node id, or "".
func (s *Store) Selected() string {
	return s.selected
}

// SetTranslate moves the canvas.
func (s *Store) SetTranslate(x, y float64) {
	s.view = model.ViewState{TranslateX: x, TranslateY: y}
	s.publish(event.ViewPanned, s.view)
}

// View returns the canvas translation.
func (s *Store) View() model.ViewState {
	return s.view
}

// ID returns the server identifier, or "" for a map never saved.
func (s *Store) ID() string {
	return s.id
}

// Title returns the map title.
func (s *Store) Title() string {
	return s.title
}

// SetIdentity adopts the identifier and title the server returned after a save.
func (s *Store) SetIdentity(id, title string) {
	s.id = id
	if t := strings.TrimSpace(title); t != "" {
		s.title = t
	}
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (model.Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return model.Node{}, false
	}
	return *n, true
}

// Root returns the root node.
func (s *Store) Root() model.Node {
	for _, id := range s.order {
		if n := s.nodes[id]; n.IsRoot {
			return *n
		}
	}
	// unreachable while the invariants hold
	return model.Node{}
}

// Nodes returns copies of all nodes in insertion order.
func (s *Store) Nodes() []model.Node {
	out := make([]model.Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.nodes[id])
	}
	return out
}

// Connections returns the connections in insertion order.
func (s *Store) Connections() []model.Connection {
	return append([]model.Connection(nil), s.conns...)
}

// Snapshot returns a deep copy of the map as a document.
func (s *Store) Snapshot() model.Mindmap {
	return model.Mindmap{
		ID:          s.id,
		Title:       s.title,
		Nodes:       s.Nodes(),
		Connections: s.Connections(),
		ViewState:   s.view,
	}
}

// Replace swaps in a loaded document. Connections that name a missing node,
// loop on one node, or repeat a pair are dropped and counted. A document
// without exactly one root or with duplicate ids is rejected and the store
// is left unchanged.
func (s *Store) Replace(doc model.Mindmap) (int, error) {
	order := make([]string, 0, len(doc.Nodes))
	nodes := make(map[string]*model.Node, len(doc.Nodes))
	roots := 0
	for i := range doc.Nodes {
		n := doc.Nodes[i]
		if n.ID == "" {
			return 0, fmt.Errorf("%w: node without id", ErrInvalidMap)
		}
		if _, dup := nodes[n.ID]; dup {
			return 0, fmt.Errorf("%w: duplicate node id %q", ErrInvalidMap, n.ID)
		}
		if n.IsRoot {
			roots++
		}
		order = append(order, n.ID)
		nodes[n.ID] = &n
	}
	if roots != 1 {
		return 0, fmt.Errorf("%w: expected one root node, found %d", ErrInvalidMap, roots)
	}

	pruned := 0
	connSet := make(map[model.Connection]struct{}, len(doc.Connections))
	conns := make([]model.Connection, 0, len(doc.Connections))
	for _, c := range doc.Connections {
		_, fromOK := nodes[c.From]
		_, toOK := nodes[c.To]
		_, dup := connSet[c]
		if !fromOK || !toOK || dup || c.From == c.To {
			pruned++
			continue
		}
		connSet[c] = struct{}{}
		conns = append(conns, c)
	}

	s.id = doc.ID
	s.title = strings.TrimSpace(doc.Title)
	if s.title == "" {
		s.title = model.MapDefaultTitle
	}
	s.order = order
	s.nodes = nodes
	s.conns = conns
	s.connSet = connSet
	s.selected = ""
	s.view = doc.ViewState

	s.publish(event.MapLoaded, s.id)
	return pruned, nil
}

// Children returns the ids connected from id, in connection order.
func (s *Store) Children(id string) []string {
	var out []string
	for _, c := range s.conns {
		if c.From == id {
			out = append(out, c.To)
		}
	}
	return out
}

// Reachable returns the set of node ids reachable from the root by following connections.
func (s *Store) Reachable() map[string]bool {
	root := s.Root().ID
	seen := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range s.Children(id) {
			if !seen[child] {
				seen[child] = true
				queue = append(queue, child)
			}
		}
	}
	return seen
}
