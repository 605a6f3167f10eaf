package graph

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}
}

func newTestStore(opts ...Option) *Store {
	base := []Option{WithRand(rand.New(rand.NewSource(7))), WithIDGenerator(sequentialIDs())}
	return NewStore(append(base, opts...)...)
}

func TestNewStore_Default(t *testing.T) {
	s := newTestStore()

	nodes := s.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, model.RootNode(), nodes[0])
	assert.Empty(t, s.Connections())
	assert.Equal(t, model.MapDefaultTitle, s.Title())
	assert.Empty(t, s.ID())
	assert.Equal(t, model.ViewState{}, s.View())
}

func TestAddChild_FreshMap(t *testing.T) {
	s := newTestStore()

	child, err := s.AddChild("1", Placement{Angle: 0, Distance: ChildDistance})
	require.NoError(t, err)

	assert.Len(t, s.Nodes(), 2)
	assert.Equal(t, []model.Connection{{From: "1", To: child.ID}}, s.Connections())
	assert.Equal(t, model.NodeDefaultTitle, child.Title)
	assert.Empty(t, child.Text)
	assert.False(t, child.IsRoot)
	assert.Contains(t, model.Palette, child.Color)

	dist := math.Hypot(child.X-400, child.Y-300)
	assert.InDelta(t, 150, dist, 1e-9)
	assert.InDelta(t, 550, child.X, 1e-9)
}

func TestAddChild_RandomPlacementDistance(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 20; i++ {
		child, err := s.AddChild("1", s.RandomPlacement())
		require.NoError(t, err)
		assert.InDelta(t, 150, math.Hypot(child.X-400, child.Y-300), 1e-9)
	}
}

func TestAddChild_MissingParent(t *testing.T) {
	s := newTestStore()
	_, err := s.AddChild("ghost", s.RandomPlacement())
	assert.ErrorIs(t, err, ErrParentNotFound)
	assert.Len(t, s.Nodes(), 1)
}

func TestAddChild_AllReachable(t *testing.T) {
	s := newTestStore()
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 50; i++ {
		nodes := s.Nodes()
		parent := nodes[r.Intn(len(nodes))].ID
		_, err := s.AddChild(parent, s.RandomPlacement())
		require.NoError(t, err)
	}

	reach := s.Reachable()
	for _, n := range s.Nodes() {
		assert.True(t, reach[n.ID], "node %s unreachable", n.ID)
	}
}

func TestDeleteNode_Guards(t *testing.T) {
	s := newTestStore()

	assert.ErrorIs(t, s.DeleteNode(""), ErrNoSelection)
	assert.ErrorIs(t, s.DeleteNode("1"), ErrRootNode)
	assert.ErrorIs(t, s.DeleteNode("ghost"), ErrNodeNotFound)
	assert.Len(t, s.Nodes(), 1)
}

func TestDeleteNode_CascadesExactly(t *testing.T) {
	s := newTestStore()
	a, err := s.AddChild("1", s.RandomPlacement())
	require.NoError(t, err)
	b, err := s.AddChild(a.ID, s.RandomPlacement())
	require.NoError(t, err)
	c, err := s.AddChild("1", s.RandomPlacement())
	require.NoError(t, err)
	_, err = s.Connect(c.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, s.Select(a.ID))

	before := s.Connections()
	require.NoError(t, s.DeleteNode(a.ID))

	var want []model.Connection
	for _, conn := range before {
		if conn.From != a.ID && conn.To != a.ID {
			want = append(want, conn)
		}
	}
	assert.Equal(t, want, s.Connections())
	_, ok := s.Node(a.ID)
	assert.False(t, ok)
	assert.Empty(t, s.Selected())
	assert.Len(t, s.Nodes(), 3)
}

func TestDeleteNode_TwoNodeMap(t *testing.T) {
	s := newTestStore()
	child, err := s.AddChild("1", s.RandomPlacement())
	require.NoError(t, err)

	require.NoError(t, s.DeleteNode(child.ID))

	nodes := s.Nodes()
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].IsRoot)
	assert.Empty(t, s.Connections())
}

func TestUpdateNodeContent(t *testing.T) {
	s := newTestStore()
	child, err := s.AddChild("1", s.RandomPlacement())
	require.NoError(t, err)

	tests := []struct {
		name      string
		title     string
		text      string
		wantTitle string
		wantText  string
	}{
		{"trimmed", "  Budget  ", "  notes ", "Budget", "notes"},
		{"empty title defaults", "   ", "", model.NodeDefaultTitle, ""},
		{"whitespace text", "Plan", " \n\t", "Plan", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.UpdateNodeContent(child.ID, tt.title, tt.text))
			got, _ := s.Node(child.ID)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantText, got.Text)
		})
	}

	assert.Equal(t, model.MapDefaultTitle, s.Title(), "editing a child leaves the map title alone")
	assert.NoError(t, s.UpdateNodeContent("", "x", "y"))
	assert.ErrorIs(t, s.UpdateNodeContent("ghost", "x", ""), ErrNodeNotFound)
}

func TestUpdateNodeContent_RootRenamesMap(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.UpdateNodeContent("1", "  Vacation ", ""))
	assert.Equal(t, "Vacation", s.Title())

	require.NoError(t, s.UpdateNodeContent("1", "", ""))
	assert.Equal(t, model.MapDefaultTitle, s.Title())
	root := s.Root()
	assert.Equal(t, model.NodeDefaultTitle, root.Title)
}

func TestSetTitle(t *testing.T) {
	s := newTestStore()

	assert.True(t, s.SetTitle("  Roadmap "))
	assert.Equal(t, "Roadmap", s.Title())

	assert.False(t, s.SetTitle("   "))
	assert.False(t, s.SetTitle(model.MapDefaultTitle))
	assert.Equal(t, "Roadmap", s.Title())
}

func TestConnect_SetSemantics(t *testing.T) {
	s := newTestStore()
	a, err := s.AddChild("1", s.RandomPlacement())
	require.NoError(t, err)

	added, err := s.Connect("1", a.ID)
	require.NoError(t, err)
	assert.False(t, added, "existing pair is a no-op")
	assert.Len(t, s.Connections(), 1)

	_, err = s.Connect(a.ID, a.ID)
	assert.ErrorIs(t, err, ErrSelfConnection)
	_, err = s.Connect(a.ID, "ghost")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestMoveNodeAndTranslate(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.MoveNode("1", -5000, 1e6))
	root := s.Root()
	assert.Equal(t, -5000.0, root.X)
	assert.Equal(t, 1e6, root.Y)
	assert.ErrorIs(t, s.MoveNode("ghost", 0, 0), ErrNodeNotFound)

	s.SetTranslate(12, -8)
	assert.Equal(t, model.ViewState{TranslateX: 12, TranslateY: -8}, s.View())
}

func TestSnapshotReplaceRoundTrip(t *testing.T) {
	s := newTestStore()
	a, err := s.AddChild("1", s.RandomPlacement())
	require.NoError(t, err)
	_, err = s.AddChild(a.ID, s.RandomPlacement())
	require.NoError(t, err)
	require.NoError(t, s.UpdateNodeContent(a.ID, "Topic", "details"))
	s.SetTranslate(30, 40)
	s.SetIdentity("map-1", "Saved")

	snap := s.Snapshot()

	other := newTestStore()
	pruned, err := other.Replace(snap)
	require.NoError(t, err)
	assert.Zero(t, pruned)
	assert.Equal(t, snap, other.Snapshot())

	// The snapshot is a deep copy
	snap.Nodes[0].Title = "mutated"
	assert.NotEqual(t, "mutated", s.Root().Title)
}

func TestReplace_PrunesBadConnections(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Select("1"))

	pruned, err := s.Replace(model.Mindmap{
		ID:    "m",
		Title: "",
		Nodes: []model.Node{model.RootNode(), {ID: "c", Title: "C"}},
		Connections: []model.Connection{
			{From: "1", To: "c"},
			{From: "1", To: "c"},
			{From: "1", To: "gone"},
			{From: "c", To: "c"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, pruned)
	assert.Equal(t, []model.Connection{{From: "1", To: "c"}}, s.Connections())
	assert.Equal(t, model.MapDefaultTitle, s.Title())
	assert.Empty(t, s.Selected())
}

func TestReplace_RejectsInvalid(t *testing.T) {
	s := newTestStore()
	child, err := s.AddChild("1", s.RandomPlacement())
	require.NoError(t, err)

	_, err = s.Replace(model.Mindmap{Nodes: []model.Node{{ID: "x"}}})
	assert.ErrorIs(t, err, ErrInvalidMap)

	_, err = s.Replace(model.Mindmap{Nodes: []model.Node{model.RootNode(), model.RootNode()}})
	assert.ErrorIs(t, err, ErrInvalidMap)

	_, ok := s.Node(child.ID)
	assert.True(t, ok, "store is unchanged after a rejected replace")
}

func TestReset(t *testing.T) {
	s := newTestStore()
	_, err := s.AddChild("1", s.RandomPlacement())
	require.NoError(t, err)
	s.SetIdentity("id", "Title")
	s.SetTranslate(1, 2)

	s.Reset()

	assert.Len(t, s.Nodes(), 1)
	assert.Empty(t, s.ID())
	assert.Equal(t, model.MapDefaultTitle, s.Title())
	assert.Equal(t, model.ViewState{}, s.View())
}

func TestStoreEvents(t *testing.T) {
	em := event.NewEventManager(log.Discard())
	var got []event.EventType
	em.SubscribeAll(func(e event.Event) { got = append(got, e.Type) })

	s := newTestStore(WithEvents(em))
	child, err := s.AddChild("1", s.RandomPlacement())
	require.NoError(t, err)
	require.NoError(t, s.MoveNode(child.ID, 1, 1))
	require.NoError(t, s.DeleteNode(child.ID))

	assert.Equal(t, []event.EventType{event.NodeAdded, event.NodeMoved, event.NodeDeleted}, got)
}
