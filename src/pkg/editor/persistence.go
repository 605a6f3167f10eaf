package editor

import (
	"context"
	"errors"
	"fmt"

	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/gateway"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
)

// Save stores the current map and waits for the result.
func (e *Editor) Save(ctx context.Context) error {
	if e.cred == nil {
		e.setStatus(StatusLoginToSave)
		return ErrNotLoggedIn
	}
	gen, cred, doc := e.generation, e.cred, e.store.Snapshot()
	e.setStatus(StatusSaving)
	saved, err := e.gw.Save(ctx, cred, doc)
	return e.applySave(gen, saved, err)
}

// SaveAsync starts a save and returns at once. The result is applied by Drain.
// Overlapping saves are allowed; the last one applied wins.
func (e *Editor) SaveAsync(ctx context.Context) error {
	if e.cred == nil {
		e.setStatus(StatusLoginToSave)
		return ErrNotLoggedIn
	}
	gen, cred, doc := e.generation, e.cred, e.store.Snapshot()
	e.setStatus(StatusSaving)
	e.spawn(func() func() {
		saved, err := e.gw.Save(ctx, cred, doc)
		return func() { _ = e.applySave(gen, saved, err) }
	})
	return nil
}

func (e *Editor) applySave(gen uint64, saved model.Mindmap, err error) error {
	if gen != e.generation {
		e.logger.Debug(context.Background(), "Discarded stale save result", log.Fields{"generation": gen, "current": e.generation})
		return ErrStale
	}
	switch {
	case errors.Is(err, gateway.ErrUnauthorized):
		e.endSession(StatusSessionExpired)
		return err
	case err != nil:
		e.logger.Error(context.Background(), "Save failed", log.Fields{"error": err})
		e.setStatus(fmt.Sprintf("Error saving mind map: %s", describe(err)))
		return err
	}

	e.store.SetIdentity(saved.ID, saved.Title)
	e.events.Publish(event.Event{Type: event.MapSaved, Data: saved.ID})
	e.logger.Command(context.Background(), "mindmap save", log.Fields{"id": saved.ID})
	e.setStatus(StatusSaved)
	return nil
}

// Load replaces the current map with the stored one. An empty id loads the
// most recently updated map.
func (e *Editor) Load(ctx context.Context, id string) error {
	if e.cred == nil {
		e.setStatus(StatusLoginToLoad)
		return ErrNotLoggedIn
	}
	gen, cred := e.generation, e.cred
	e.setStatus(StatusLoading)
	doc, err := e.gw.Load(ctx, cred, id)
	return e.applyLoad(gen, doc, err)
}

// LoadAsync starts a load and returns at once. The result is applied by Drain.
func (e *Editor) LoadAsync(ctx context.Context, id string) error {
	if e.cred == nil {
		e.setStatus(StatusLoginToLoad)
		return ErrNotLoggedIn
	}
	gen, cred := e.generation, e.cred
	e.setStatus(StatusLoading)
	e.spawn(func() func() {
		doc, err := e.gw.Load(ctx, cred, id)
		return func() { _ = e.applyLoad(gen, doc, err) }
	})
	return nil
}

func (e *Editor) applyLoad(gen uint64, doc model.Mindmap, err error) error {
	if gen != e.generation {
		e.logger.Debug(context.Background(), "Discarded stale load result", log.Fields{"generation": gen, "current": e.generation})
		return ErrStale
	}
	switch {
	case errors.Is(err, gateway.ErrUnauthorized):
		e.endSession(StatusSessionExpired)
		return err
	case errors.Is(err, gateway.ErrNotFound):
		e.bump()
		e.ctrl.Cancel()
		e.store.Reset()
		e.setStatus(StatusNoMindmap)
		return nil
	case err != nil:
		e.logger.Error(context.Background(), "Load failed", log.Fields{"error": err})
		e.setStatus(fmt.Sprintf("Failed to load mind map: %s", describe(err)))
		return err
	}

	pruned, rerr := e.store.Replace(doc)
	if rerr != nil {
		e.logger.Error(context.Background(), "Loaded document rejected", log.Fields{"id": doc.ID, "error": rerr})
		e.setStatus(StatusInvalidDocument)
		return rerr
	}
	// results still in flight belong to the map just replaced
	e.bump()
	e.ctrl.Cancel()
	if pruned > 0 {
		e.logger.Warn(context.Background(), "Dropped invalid connections from loaded map", log.Fields{"id": doc.ID, "count": pruned})
	}
	e.logger.Command(context.Background(), "mindmap load", log.Fields{"id": doc.ID})
	e.setStatus(fmt.Sprintf("Mind map %q loaded!", e.store.Title()))
	return nil
}

// List returns the user's maps, most recently updated first.
func (e *Editor) List(ctx context.Context) ([]model.MindmapSummary, error) {
	if e.cred == nil {
		e.setStatus(StatusLoginToLoad)
		return nil, ErrNotLoggedIn
	}
	list, err := e.gw.List(ctx, e.cred)
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			e.endSession(StatusSessionExpired)
			return nil, err
		}
		e.setStatus(fmt.Sprintf("Failed to fetch mind maps: %s", describe(err)))
		return nil, err
	}
	return list, nil
}

// DeleteMap removes a stored map. Deleting the map being edited keeps it on
// screen as an unsaved map.
func (e *Editor) DeleteMap(ctx context.Context, id string) error {
	if e.cred == nil {
		e.setStatus(StatusLoginToLoad)
		return ErrNotLoggedIn
	}
	if err := e.gw.Delete(ctx, e.cred, id); err != nil {
		switch {
		case errors.Is(err, gateway.ErrUnauthorized):
			e.endSession(StatusSessionExpired)
		case errors.Is(err, gateway.ErrNotFound):
			e.setStatus("Mind map not found")
		default:
			e.setStatus(fmt.Sprintf("Failed to delete mind map: %s", describe(err)))
		}
		return err
	}
	if e.store.ID() == id {
		e.store.SetIdentity("", "")
	}
	e.logger.Command(ctx, "mindmap delete", log.Fields{"id": id})
	e.setStatus("Mind map deleted")
	return nil
}

// Import opens doc as a new, unsaved map. It returns how many invalid
// connections were dropped.
func (e *Editor) Import(doc model.Mindmap) (int, error) {
	doc.ID = ""
	doc.Owner = ""
	e.bump()
	e.ctrl.Cancel()
	pruned, err := e.store.Replace(doc)
	if err != nil {
		e.setStatus(StatusInvalidDocument)
		return 0, err
	}
	e.logger.Command(context.Background(), "mindmap import", log.Fields{"title": e.store.Title(), "pruned": pruned})
	e.setStatus(fmt.Sprintf("Mind map %q imported", e.store.Title()))
	return pruned, nil
}

// spawn runs work off the owning goroutine and queues the closure it returns.
func (e *Editor) spawn(work func() func()) {
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		e.inbox <- work()
	}()
}

// Post queues fn to run on the owning goroutine at the next Drain.
func (e *Editor) Post(fn func()) {
	e.inbox <- fn
}

// TryPost queues fn unless the inbox is full.
func (e *Editor) TryPost(fn func()) bool {
	select {
	case e.inbox <- fn:
		return true
	default:
		return false
	}
}

// Inbox exposes queued completions for select loops. Run each received
// function on the owning goroutine.
func (e *Editor) Inbox() <-chan func() {
	return e.inbox
}

// Drain applies every queued completion without blocking and returns how
// many ran.
func (e *Editor) Drain() int {
	n := 0
	for {
		select {
		case fn := <-e.inbox:
			fn()
			n++
		default:
			return n
		}
	}
}

// Wait blocks until every started async call has queued its completion. It
// does not apply them. If more completions than the inbox holds are
// outstanding, Wait must be interleaved with Drain.
func (e *Editor) Wait() {
	e.pending.Wait()
}
