package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJitterEmitsAtConfiguredRate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j := NewJitter(ctx, 50)
	require.NotNil(t, j.Chan())

	select {
	case <-j.Chan():
	case <-time.After(time.Second):
		t.Fatal("no tick within a second at 50/s")
	}

	done := make(chan struct{})
	go func() {
		j.Take()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Take blocked past the pacing interval")
	}
}

func TestJitterClampsZeroLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j := NewJitter(ctx, 0)
	select {
	case <-j.Chan():
	case <-time.After(2 * time.Second):
		t.Fatal("clamped limit must still tick")
	}
}

func TestJitterClosesChannelOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	j := NewJitter(ctx, 100)

	<-j.Chan()
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-j.Chan():
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond, "provider closes the channel on cancel")
}
