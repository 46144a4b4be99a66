package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/vibesync/pkg/io/pubsub"
)

func recv(t *testing.T, sub pubsub.Subscription) []byte {
	t.Helper()
	select {
	case msg := <-sub.Messages():
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestBroker_BroadcastsToEverySubscriber(t *testing.T) {
	ctx := context.Background()
	b := New()
	defer b.Close()

	a, err := b.Subscribe(ctx, "pair")
	require.NoError(t, err)
	c, err := b.Subscribe(ctx, "pair")
	require.NoError(t, err)
	other, err := b.Subscribe(ctx, "elsewhere")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "pair", []byte("hello")))

	require.Equal(t, "hello", string(recv(t, a)))
	require.Equal(t, "hello", string(recv(t, c)))
	select {
	case msg := <-other.Messages():
		t.Fatalf("unexpected delivery on other channel: %s", msg)
	default:
	}
}

func TestBroker_PreservesPublishOrder(t *testing.T) {
	ctx := context.Background()
	b := NewWithBuffer(4)
	defer b.Close()

	sub, err := b.Subscribe(ctx, "pair")
	require.NoError(t, err)

	go func() {
		for _, p := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
			_ = b.Publish(ctx, "pair", []byte(p))
		}
	}()

	for _, want := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		require.Equal(t, want, string(recv(t, sub)))
	}
}

func TestSubscription_CloseUnblocksPublisher(t *testing.T) {
	ctx := context.Background()
	b := NewWithBuffer(1)
	defer b.Close()

	sub, err := b.Subscribe(ctx, "pair")
	require.NoError(t, err)
	require.NoError(t, b.Publish(ctx, "pair", []byte("fills buffer")))

	published := make(chan error, 1)
	go func() { published <- b.Publish(ctx, "pair", []byte("blocked")) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, sub.Close())

	select {
	case err := <-published:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publisher stayed blocked after subscription closed")
	}

	// drained buffer then closed
	_, ok := <-sub.Messages()
	require.True(t, ok)
	_, ok = <-sub.Messages()
	require.False(t, ok)
}

func TestBroker_ClosedRejects(t *testing.T) {
	b := New()
	require.NoError(t, b.Close())

	require.ErrorIs(t, b.Publish(context.Background(), "pair", []byte("x")), pubsub.ErrClosed)
	_, err := b.Subscribe(context.Background(), "pair")
	require.ErrorIs(t, err, pubsub.ErrClosed)
}
