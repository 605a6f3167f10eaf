package editor

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/gateway"
	"mindnoscape/web-app/src/pkg/graph"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
)

// fakeGateway keeps documents in memory. Setting release makes Save and Load
// block until it is closed; saveGate blocks Save only.
type fakeGateway struct {
	mu       sync.Mutex
	docs     map[string]model.Mindmap
	order    []string
	seq      int
	saveErr  error
	loadErr  error
	meErr    error
	release  chan struct{}
	saveGate chan struct{}

	logouts int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{docs: map[string]model.Mindmap{}}
}

func (g *fakeGateway) wait() {
	g.mu.Lock()
	ch := g.release
	g.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

func (g *fakeGateway) Save(_ context.Context, _ *gateway.Credential, doc model.Mindmap) (model.Mindmap, error) {
	g.wait()
	g.mu.Lock()
	gate := g.saveGate
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saveErr != nil {
		return model.Mindmap{}, g.saveErr
	}
	if doc.ID == "" {
		g.seq++
		doc.ID = "map-" + strconv.Itoa(g.seq)
	}
	g.docs[doc.ID] = doc.Clone()
	g.order = append(g.order, doc.ID)
	return doc.Clone(), nil
}

func (g *fakeGateway) Load(_ context.Context, _ *gateway.Credential, id string) (model.Mindmap, error) {
	g.wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loadErr != nil {
		return model.Mindmap{}, g.loadErr
	}
	if id == "" {
		if len(g.order) == 0 {
			return model.Mindmap{}, gateway.ErrNotFound
		}
		id = g.order[len(g.order)-1]
	}
	doc, ok := g.docs[id]
	if !ok {
		return model.Mindmap{}, gateway.ErrNotFound
	}
	return doc.Clone(), nil
}

func (g *fakeGateway) List(context.Context, *gateway.Credential) ([]model.MindmapSummary, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.MindmapSummary
	for id, d := range g.docs {
		out = append(out, model.MindmapSummary{ID: id, Title: d.Title, NodeCount: len(d.Nodes)})
	}
	return out, nil
}

func (g *fakeGateway) Delete(_ context.Context, _ *gateway.Credential, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.docs[id]; !ok {
		return gateway.ErrNotFound
	}
	delete(g.docs, id)
	return nil
}

func (g *fakeGateway) Register(_ context.Context, email, _ string) (*gateway.Credential, error) {
	return &gateway.Credential{UserID: "u-" + email, Email: email, Token: "tok-" + email}, nil
}

func (g *fakeGateway) Login(_ context.Context, email, password string) (*gateway.Credential, error) {
	if password != "secret1" {
		return nil, gateway.ErrUnauthorized
	}
	return &gateway.Credential{UserID: "u-" + email, Email: email, Token: "tok-" + email}, nil
}

func (g *fakeGateway) Logout(context.Context, *gateway.Credential) error {
	g.mu.Lock()
	g.logouts++
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) Me(_ context.Context, cred *gateway.Credential) (*gateway.Account, error) {
	if g.meErr != nil {
		return nil, g.meErr
	}
	return &gateway.Account{ID: cred.UserID, Email: cred.Email}, nil
}

func newEditor(t *testing.T, gw Gateway) (*Editor, *gateway.CredentialFile) {
	t.Helper()
	creds, err := gateway.NewCredentialFile(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	store := graph.NewStore(graph.WithRand(rand.New(rand.NewSource(7))))
	e, err := NewEditor(gw, creds, event.NewEventManager(log.Discard()), log.Discard(), WithStore(store))
	require.NoError(t, err)
	return e, creds
}

func loggedIn(t *testing.T, gw Gateway) (*Editor, *gateway.CredentialFile) {
	t.Helper()
	e, creds := newEditor(t, gw)
	require.NoError(t, e.Login(context.Background(), "ada@example.com", "secret1"))
	return e, creds
}

func TestNewEditor(t *testing.T) {
	_, err := NewEditor(nil, nil, nil, log.Discard())
	assert.Error(t, err)
	_, err = NewEditor(newFakeGateway(), nil, nil, nil)
	assert.Error(t, err)

	e, err := NewEditor(newFakeGateway(), nil, nil, log.Discard())
	require.NoError(t, err)
	assert.Len(t, e.Store().Nodes(), 1)
	assert.Equal(t, StatusWelcome, e.Status())
	assert.False(t, e.LoggedIn())
}

func TestAdd_FreshMap(t *testing.T) {
	e, _ := newEditor(t, newFakeGateway())
	root := e.Store().Root()

	child, ok := e.Add()
	require.True(t, ok)

	assert.Len(t, e.Store().Nodes(), 2)
	assert.Equal(t, []model.Connection{{From: root.ID, To: child.ID}}, e.Store().Connections())
	dist := math.Hypot(child.X-root.X, child.Y-root.Y)
	assert.InDelta(t, graph.ChildDistance, dist, 1e-9)
	assert.Equal(t, child.ID, e.Store().Selected())
	assert.True(t, e.Controller().Overlay().IsOpen())
	assert.Equal(t, child.ID, e.Controller().Overlay().NodeID())

	// next add hangs off the selected child
	grandchild, ok := e.Add()
	require.True(t, ok)
	assert.Contains(t, e.Store().Connections(), model.Connection{From: child.ID, To: grandchild.ID})
}

func TestDelete(t *testing.T) {
	e, _ := newEditor(t, newFakeGateway())

	assert.False(t, e.Delete())
	assert.Equal(t, StatusCannotDelete, e.Status())

	require.NoError(t, e.Store().Select(e.Store().Root().ID))
	assert.False(t, e.Delete())
	assert.Len(t, e.Store().Nodes(), 1)

	_, ok := e.Add()
	require.True(t, ok)
	assert.True(t, e.Delete())
	assert.Len(t, e.Store().Nodes(), 1)
	assert.Empty(t, e.Store().Connections())
	assert.Empty(t, e.Store().Selected())
	assert.False(t, e.Controller().Overlay().IsOpen())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	gw := newFakeGateway()
	e, _ := loggedIn(t, gw)
	ctx := context.Background()

	_, ok := e.Add()
	require.True(t, ok)
	require.NoError(t, e.Controller().Overlay().Save("Tomatoes", "south bed"))
	e.Store().SetTranslate(12, -4)
	require.True(t, e.Store().SetTitle("Garden"))
	before := e.Store().Snapshot()

	require.NoError(t, e.Save(ctx))
	assert.Equal(t, StatusSaved, e.Status())
	id := e.Store().ID()
	require.NotEmpty(t, id)

	e.NewMap()
	assert.Empty(t, e.Store().ID())
	assert.Len(t, e.Store().Nodes(), 1)

	require.NoError(t, e.Load(ctx, id))
	after := e.Store().Snapshot()
	assert.Equal(t, before.Nodes, after.Nodes)
	assert.Equal(t, before.Connections, after.Connections)
	assert.Equal(t, before.ViewState, after.ViewState)
	assert.Equal(t, "Garden", after.Title)
	assert.Equal(t, id, after.ID)

	// a second save updates in place
	require.NoError(t, e.Save(ctx))
	assert.Equal(t, id, e.Store().ID())
}

func TestLoad_NotFoundResetsMap(t *testing.T) {
	e, _ := loggedIn(t, newFakeGateway())
	_, ok := e.Add()
	require.True(t, ok)

	require.NoError(t, e.Load(context.Background(), ""))

	assert.Equal(t, StatusNoMindmap, e.Status())
	assert.Len(t, e.Store().Nodes(), 1)
	assert.True(t, e.Store().Root().IsRoot)
	assert.Empty(t, e.Store().Connections())
	assert.True(t, e.LoggedIn(), "not found is not an auth failure")
}

func TestSave_UnauthorizedLogsOut(t *testing.T) {
	gw := newFakeGateway()
	e, creds := loggedIn(t, gw)
	_, ok := e.Add()
	require.True(t, ok)

	stored, err := creds.Load()
	require.NoError(t, err)
	require.NotNil(t, stored)

	gw.saveErr = gateway.ErrUnauthorized
	err = e.Save(context.Background())
	assert.ErrorIs(t, err, gateway.ErrUnauthorized)

	assert.False(t, e.LoggedIn())
	assert.Equal(t, StatusSessionExpired, e.Status())
	assert.Len(t, e.Store().Nodes(), 1)
	stored, err = creds.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSave_OtherFailureKeepsMap(t *testing.T) {
	gw := newFakeGateway()
	e, _ := loggedIn(t, gw)
	_, ok := e.Add()
	require.True(t, ok)

	gw.saveErr = &gateway.APIError{Status: 400, Message: "invalid mind map"}
	require.Error(t, e.Save(context.Background()))

	assert.True(t, e.LoggedIn())
	assert.Len(t, e.Store().Nodes(), 2)
	assert.Equal(t, "Error saving mind map: invalid mind map", e.Status())
	assert.Empty(t, e.Store().ID())
}

func TestNotLoggedIn(t *testing.T) {
	e, _ := newEditor(t, newFakeGateway())
	ctx := context.Background()

	assert.ErrorIs(t, e.Save(ctx), ErrNotLoggedIn)
	assert.Equal(t, StatusLoginToSave, e.Status())
	assert.ErrorIs(t, e.Load(ctx, ""), ErrNotLoggedIn)
	assert.Equal(t, StatusLoginToLoad, e.Status())
	assert.ErrorIs(t, e.SaveAsync(ctx), ErrNotLoggedIn)
	assert.ErrorIs(t, e.LoadAsync(ctx, ""), ErrNotLoggedIn)
	_, err := e.List(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLoginFailure(t *testing.T) {
	e, _ := newEditor(t, newFakeGateway())
	err := e.Login(context.Background(), "ada@example.com", "nope")
	assert.ErrorIs(t, err, gateway.ErrUnauthorized)
	assert.False(t, e.LoggedIn())
	assert.Equal(t, "Login failed: Invalid email or password", e.Status())
}

func TestAsync_StaleCompletionDiscardedAfterLogout(t *testing.T) {
	gw := newFakeGateway()
	e, _ := loggedIn(t, gw)
	ctx := context.Background()
	_, ok := e.Add()
	require.True(t, ok)
	require.NoError(t, e.Save(ctx))

	gw.release = make(chan struct{})
	require.NoError(t, e.LoadAsync(ctx, ""))
	require.NoError(t, e.SaveAsync(ctx))

	e.Logout(ctx)
	assert.Equal(t, StatusLoggedOut, e.Status())
	assert.Equal(t, 1, gw.logouts)

	close(gw.release)
	e.Wait()
	assert.Equal(t, 2, e.Drain())

	// nothing from the old session touched the fresh map
	assert.Len(t, e.Store().Nodes(), 1)
	assert.Empty(t, e.Store().ID())
	assert.Equal(t, StatusLoggedOut, e.Status())
}

func TestAsync_AppliedOnDrain(t *testing.T) {
	gw := newFakeGateway()
	e, _ := loggedIn(t, gw)
	ctx := context.Background()
	_, ok := e.Add()
	require.True(t, ok)

	require.NoError(t, e.SaveAsync(ctx))
	e.Wait()
	assert.Empty(t, e.Store().ID(), "nothing applied before Drain")
	assert.Equal(t, 1, e.Drain())
	id := e.Store().ID()
	assert.NotEmpty(t, id)

	e.NewMap()
	require.NoError(t, e.LoadAsync(ctx, id))
	e.Wait()
	e.Drain()
	assert.Equal(t, id, e.Store().ID())
	assert.Len(t, e.Store().Nodes(), 2)
}

func TestAsync_NewMapDiscardsPendingSave(t *testing.T) {
	gw := newFakeGateway()
	e, _ := loggedIn(t, gw)
	ctx := context.Background()

	gw.release = make(chan struct{})
	require.NoError(t, e.SaveAsync(ctx))
	e.NewMap()
	close(gw.release)
	e.Wait()
	e.Drain()

	assert.Empty(t, e.Store().ID())
	assert.Equal(t, StatusNewMap, e.Status())
}

func TestRestore(t *testing.T) {
	gw := newFakeGateway()
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	creds, err := gateway.NewCredentialFile(path)
	require.NoError(t, err)

	first, err := NewEditor(gw, creds, nil, log.Discard())
	require.NoError(t, err)
	require.NoError(t, first.Login(context.Background(), "ada@example.com", "secret1"))

	second, err := NewEditor(gw, creds, nil, log.Discard())
	require.NoError(t, err)
	ok, err := second.Restore(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ada@example.com", second.Email())

	gw.meErr = gateway.ErrUnauthorized
	third, err := NewEditor(gw, creds, nil, log.Discard())
	require.NoError(t, err)
	ok, err = third.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	stored, err := creds.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDeleteMap(t *testing.T) {
	gw := newFakeGateway()
	e, _ := loggedIn(t, gw)
	ctx := context.Background()
	require.NoError(t, e.Save(ctx))
	id := e.Store().ID()

	list, err := e.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, e.DeleteMap(ctx, id))
	assert.Empty(t, e.Store().ID())
	assert.ErrorIs(t, e.DeleteMap(ctx, id), gateway.ErrNotFound)
}

func TestScene(t *testing.T) {
	e, _ := newEditor(t, newFakeGateway())
	child, ok := e.Add()
	require.True(t, ok)

	s := e.Scene()
	assert.Len(t, s.Nodes, 2)
	require.Len(t, s.Connectors, 1)
	assert.True(t, s.Connectors[0].Valid())
	assert.True(t, s.Transitions)
	for _, v := range s.Nodes {
		assert.Equal(t, v.Node.ID == child.ID, v.Selected)
	}
}

func TestPost(t *testing.T) {
	e, _ := newEditor(t, newFakeGateway())
	ran := false
	e.Post(func() { ran = true })
	assert.False(t, ran)
	assert.Equal(t, 1, e.Drain())
	assert.True(t, ran)
}

func TestTryPost_FullInbox(t *testing.T) {
	gw := newFakeGateway()
	creds, err := gateway.NewCredentialFile(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	e, err := NewEditor(gw, creds, nil, log.Discard(), WithInboxSize(2))
	require.NoError(t, err)

	assert.True(t, e.TryPost(func() {}))
	assert.True(t, e.TryPost(func() {}))
	assert.False(t, e.TryPost(func() {}))
	assert.Equal(t, 2, e.Drain())
	assert.True(t, e.TryPost(func() {}))
}

func TestImport(t *testing.T) {
	gw := newFakeGateway()
	e, _ := loggedIn(t, gw)
	ctx := context.Background()
	require.NoError(t, e.Save(ctx))
	gen := e.Generation()

	root := model.RootNode()
	root.Title = "Imported"
	doc := model.Mindmap{
		ID:    "someone-elses",
		Owner: "u-other",
		Title: "Imported",
		Nodes: []model.Node{root, {ID: "n2", X: 10, Y: 20, Title: "Leaf"}},
		Connections: []model.Connection{
			{From: "1", To: "n2"},
			{From: "1", To: "ghost"},
		},
	}

	pruned, err := e.Import(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	assert.Greater(t, e.Generation(), gen)
	assert.Empty(t, e.Store().ID())
	assert.Equal(t, "Imported", e.Store().Title())
	assert.Len(t, e.Store().Nodes(), 2)

	// the import saves as a new document
	require.NoError(t, e.Save(ctx))
	assert.NotEqual(t, "someone-elses", e.Store().ID())

	_, err = e.Import(model.Mindmap{Nodes: []model.Node{{ID: "x"}}})
	assert.Error(t, err)
	assert.Equal(t, StatusInvalidDocument, e.Status())
	assert.Equal(t, "Imported", e.Store().Title())
}

func TestAsync_LoadDiscardsPendingSave(t *testing.T) {
	gw := newFakeGateway()
	e, _ := loggedIn(t, gw)
	ctx := context.Background()

	require.NoError(t, e.Save(ctx))
	first := e.Store().ID()
	e.NewMap()
	require.True(t, e.Store().SetTitle("Plans"))
	_, ok := e.Add()
	require.True(t, ok)
	require.NoError(t, e.Save(ctx))
	second := e.Store().ID()
	require.NotEqual(t, first, second)

	require.NoError(t, e.Load(ctx, first))
	gw.saveGate = make(chan struct{})
	require.NoError(t, e.SaveAsync(ctx))

	// the map changes under the in-flight save
	require.NoError(t, e.Load(ctx, second))
	assert.Equal(t, second, e.Store().ID())

	close(gw.saveGate)
	e.Wait()
	assert.Equal(t, 1, e.Drain())

	assert.Equal(t, second, e.Store().ID())
	assert.Equal(t, "Plans", e.Store().Title())
	assert.Equal(t, `Mind map "Plans" loaded!`, e.Status())

	// the next save goes to the loaded map, leaving the first one alone
	gw.saveGate = nil
	require.NoError(t, e.Save(ctx))
	assert.Equal(t, second, e.Store().ID())
	assert.Len(t, gw.docs[first].Nodes, 1)
	assert.Len(t, gw.docs[second].Nodes, 2)
}

func TestAsync_NotFoundLoadDiscardsPendingSave(t *testing.T) {
	gw := newFakeGateway()
	e, _ := loggedIn(t, gw)
	ctx := context.Background()

	require.NoError(t, e.Save(ctx))
	gw.saveGate = make(chan struct{})
	require.NoError(t, e.SaveAsync(ctx))

	require.NoError(t, e.Load(ctx, "missing"))
	assert.Empty(t, e.Store().ID())

	close(gw.saveGate)
	e.Wait()
	assert.Equal(t, 1, e.Drain())

	assert.Empty(t, e.Store().ID())
	assert.Equal(t, StatusNoMindmap, e.Status())
}
