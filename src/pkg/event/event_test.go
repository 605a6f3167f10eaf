package event

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mindnoscape/web-app/src/pkg/log"
)

func TestPublish_InOrder(t *testing.T) {
	em := NewEventManager(log.Discard())

	var got []string
	em.Subscribe(NodeAdded, func(e Event) { got = append(got, "a:"+e.Data.(string)) })
	em.Subscribe(NodeAdded, func(e Event) { got = append(got, "b:"+e.Data.(string)) })
	em.Subscribe(NodeDeleted, func(e Event) { got = append(got, "unexpected") })

	em.Publish(Event{Type: NodeAdded, Data: "x"})

	assert.Equal(t, []string{"a:x", "b:x"}, got)
}

func TestPublish_RecoversPanic(t *testing.T) {
	em := NewEventManager(log.Discard())

	called := false
	em.Subscribe(MapSaved, func(Event) { panic("boom") })
	em.Subscribe(MapSaved, func(Event) { called = true })

	assert.NotPanics(t, func() { em.Publish(Event{Type: MapSaved}) })
	assert.True(t, called)
}

func TestSubscribeAll(t *testing.T) {
	em := NewEventManager(log.Discard())

	count := 0
	em.SubscribeAll(func(Event) { count++ })

	em.Publish(Event{Type: ViewPanned})
	em.Publish(Event{Type: UserRegistered})

	assert.Equal(t, 2, count)
	assert.Equal(t, "view_panned", ViewPanned.String())
}

func TestPublish_NilManager(t *testing.T) {
	var em *EventManager
	assert.NotPanics(t, func() { em.Publish(Event{Type: NodeMoved}) })
}
