package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fooMsg struct{ N int }
type barMsg struct{ S string }

func TestPubSubDeliversByType(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus("test")
	bus.Start(ctx)
	defer bus.Stop()

	sub := bus.Sub("sub1")
	sub.AddFilter(fooMsg{})
	sub.Start()
	defer sub.Stop()

	bus.Pub(fooMsg{N: 42})
	bus.Pub(barMsg{S: "ignored"})

	select {
	case v := <-sub.C:
		require.Equal(t, fooMsg{N: 42}, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}

	select {
	case v := <-sub.C:
		t.Fatalf("unexpected second message: %+v", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPubSubLabelFilter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus("test")
	bus.Start(ctx)
	defer bus.Stop()

	sub := bus.Sub("sub1")
	sub.AddFilter(fooMsg{}, Label{Key: "node", Value: "n1"})
	sub.Start()
	defer sub.Stop()

	bus.Pub(fooMsg{N: 1}, Label{Key: "node", Value: "n2"})
	bus.Pub(fooMsg{N: 2}, Label{Key: "node", Value: "n1"})

	select {
	case v := <-sub.C:
		require.Equal(t, fooMsg{N: 2}, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestStopUnregisters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus("test")
	bus.Start(ctx)
	defer bus.Stop()

	sub := bus.Sub("sub1")
	sub.AddFilter(fooMsg{})
	sub.Start()

	name := sub.Stop()
	require.Equal(t, "sub1", name)

	bus.Pub(fooMsg{N: 1})
	select {
	case v := <-sub.C:
		t.Fatalf("unexpected message after stop: %+v", v)
	case <-time.After(100 * time.Millisecond):
	}
}
