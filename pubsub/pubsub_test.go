package pubsub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gregoryjjb/crabcups/pubsub"
)

func TestPubsub(t *testing.T) {
	ps := pubsub.New[string](4)

	_, ch1 := ps.Subscribe()
	id2, ch2 := ps.Subscribe()
	assert.Equal(t, 2, ps.Len())

	ps.Publish("a")
	assert.Equal(t, "a", <-ch1)
	assert.Equal(t, "a", <-ch2)

	ps.Unsubscribe(id2)
	_, open := <-ch2
	assert.False(t, open)

	ps.Publish("b")
	assert.Equal(t, "b", <-ch1)
	assert.Equal(t, 1, ps.Len())

	// Unsubscribing twice is harmless.
	ps.Unsubscribe(id2)
}

func TestPubsubDropsWhenFull(t *testing.T) {
	ps := pubsub.New[int](1)
	_, ch := ps.Subscribe()

	ps.Publish(1)
	ps.Publish(2)

	assert.Equal(t, 1, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("expected second message to be dropped, got %d", v)
	default:
	}
}

func TestPubsubClose(t *testing.T) {
	ps := pubsub.New[int](1)
	_, ch := ps.Subscribe()

	ps.Close()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, ps.Len())

	_, late := ps.Subscribe()
	_, open = <-late
	assert.False(t, open)
}
