package server

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPrices struct{ price float64 }

func (f fixedPrices) Price(context.Context, string) (float64, error) {
	return f.price, nil
}

func TestHubDeliversTicks(t *testing.T) {
	hub := NewHubWithConfig(HubConfig{
		BufferSize:           10,
		SubscriberBufferSize: 10,
		PollInterval:         10 * time.Millisecond,
	}, fixedPrices{price: 1.0850}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Start(ctx)
	defer hub.Stop()

	ch := hub.Subscribe("EUR/USD")
	require.Equal(t, 1, hub.SubscriberCount())

	select {
	case tick := <-ch:
		assert.Equal(t, "EUR/USD", tick.Symbol)
		assert.Equal(t, 1.0850, tick.Price)
	case <-time.After(2 * time.Second):
		t.Fatal("no tick received")
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(fixedPrices{price: 100}, zerolog.Nop())

	ch := hub.Subscribe("BTC/USD")
	hub.Unsubscribe("BTC/USD", ch)

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestHubSlowConsumerDropsTicks(t *testing.T) {
	hub := NewHubWithConfig(HubConfig{
		BufferSize:           1,
		SubscriberBufferSize: 1,
		PollInterval:         time.Hour,
	}, fixedPrices{price: 100}, zerolog.Nop())

	ch := hub.Subscribe("BTC/USD")
	// Nobody reads ch; only the first tick fits.
	hub.broadcast(PriceTick{Symbol: "BTC/USD", Price: 100})
	hub.broadcast(PriceTick{Symbol: "BTC/USD", Price: 101})

	tick := <-ch
	assert.Equal(t, 100.0, tick.Price)
	select {
	case <-ch:
		t.Fatal("second tick should have been dropped")
	default:
	}
}

func TestHubBroadcastRacesUnsubscribe(t *testing.T) {
	hub := NewHubWithConfig(HubConfig{
		BufferSize:           10,
		SubscriberBufferSize: 1,
		PollInterval:         time.Hour,
	}, fixedPrices{price: 100}, zerolog.Nop())

	// Broadcasting while subscribers come and go must never send on a
	// closed channel.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			hub.broadcast(PriceTick{Symbol: "BTC/USD", Price: float64(i)})
		}
	}()

	for i := 0; i < 100; i++ {
		ch := hub.Subscribe("BTC/USD")
		hub.Unsubscribe("BTC/USD", ch)
	}
	<-done

	hub.Stop()
	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestHubStopClosesSubscribers(t *testing.T) {
	hub := NewHub(fixedPrices{price: 100}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Start(ctx)

	ch := hub.Subscribe("BTC/USD")
	hub.Stop()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, hub.SubscriberCount())
}
