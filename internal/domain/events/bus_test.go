package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBusDropOldestNeverBlocks(t *testing.T) {
	bus := NewBus(2)
	ch, unsub := bus.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Event{Kind: KindLoad, ComponentID: "c"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
	require.LessOrEqual(t, len(ch), 2)
}

func TestBusMultipleSubscribers(t *testing.T) {
	bus := NewBus(4)
	ch1, unsub1 := bus.Subscribe()
	ch2, unsub2 := bus.Subscribe()
	defer unsub1()
	defer unsub2()

	bus.Publish(Event{Kind: KindUnload, ComponentID: "x"})

	e1 := <-ch1
	e2 := <-ch2
	require.Equal(t, KindUnload, e1.Kind)
	require.Equal(t, KindUnload, e2.Kind)
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(1)
	ch, unsub := bus.Subscribe()
	unsub()
	_, ok := <-ch
	require.False(t, ok)
}
