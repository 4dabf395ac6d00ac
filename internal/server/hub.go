package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PriceTick is one update on the price stream.
type PriceTick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// HubConfig holds configuration for the price hub.
type HubConfig struct {
	// BufferSize is the size of the internal tick channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
	// PollInterval is how often symbols are re-priced.
	PollInterval time.Duration
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           1000,
		SubscriberBufferSize: 100,
		PollInterval:         2 * time.Second,
	}
}

// Hub fans live prices out to websocket subscribers. Ticks from a
// single poll loop are distributed to per-symbol subscriber channels;
// slow consumers drop ticks instead of blocking the loop.
type Hub struct {
	config      HubConfig
	prices      priceSource
	logger      zerolog.Logger
	mu          sync.RWMutex
	subscribers map[string][]*subscriber
	tickChan    chan PriceTick
	done        chan struct{}
	started     bool

	metricsMu      sync.Mutex
	ticksBroadcast uint64
	ticksDropped   uint64
}

type priceSource interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

type subscriber struct {
	ch      chan PriceTick
	dropped int
}

// NewHub creates a price hub over the given price source.
func NewHub(prices priceSource, logger zerolog.Logger) *Hub {
	return NewHubWithConfig(DefaultHubConfig(), prices, logger)
}

// NewHubWithConfig creates a price hub with custom configuration.
func NewHubWithConfig(config HubConfig, prices priceSource, logger zerolog.Logger) *Hub {
	return &Hub{
		config:      config,
		prices:      prices,
		logger:      logger,
		subscribers: make(map[string][]*subscriber),
		tickChan:    make(chan PriceTick, config.BufferSize),
		done:        make(chan struct{}),
	}
}

// Start launches the poll and broadcast loops.
func (h *Hub) Start(ctx context.Context) {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	go h.pollLoop(ctx)
	go h.broadcastLoop(ctx)
}

// Stop shuts the hub down and closes all subscriber channels.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		return
	}
	close(h.done)
	h.started = false

	for symbol, subs := range h.subscribers {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(h.subscribers, symbol)
	}
}

func (h *Hub) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(h.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			for _, symbol := range h.subscribedSymbols() {
				price, err := h.prices.Price(ctx, symbol)
				if err != nil {
					h.logger.Debug().Err(err).Str("symbol", symbol).Msg("price poll failed")
					continue
				}
				h.Publish(PriceTick{Symbol: symbol, Price: price, Timestamp: time.Now().UTC()})
			}
		}
	}
}

func (h *Hub) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case tick := <-h.tickChan:
			h.broadcast(tick)
		}
	}
}

// Publish offers a tick for distribution. Non-blocking; ticks are
// dropped when the internal buffer is full.
func (h *Hub) Publish(tick PriceTick) {
	select {
	case h.tickChan <- tick:
	default:
		h.metricsMu.Lock()
		h.ticksDropped++
		h.metricsMu.Unlock()
	}
}

func (h *Hub) broadcast(tick PriceTick) {
	// Channels are closed under the write lock, so sending under the
	// read lock cannot hit a closed channel. Sends never block.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers[tick.Symbol] {
		select {
		case sub.ch <- tick:
			h.metricsMu.Lock()
			h.ticksBroadcast++
			h.metricsMu.Unlock()
		default:
			sub.dropped++
			h.metricsMu.Lock()
			h.ticksDropped++
			h.metricsMu.Unlock()
		}
	}
}

// Subscribe registers a consumer for a symbol's ticks.
func (h *Hub) Subscribe(symbol string) <-chan PriceTick {
	sub := &subscriber{ch: make(chan PriceTick, h.config.SubscriberBufferSize)}
	h.mu.Lock()
	h.subscribers[symbol] = append(h.subscribers[symbol], sub)
	h.mu.Unlock()
	return sub.ch
}

// Unsubscribe removes a consumer channel for a symbol.
func (h *Hub) Unsubscribe(symbol string, ch <-chan PriceTick) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[symbol]
	for i, sub := range subs {
		if sub.ch == ch {
			close(sub.ch)
			h.subscribers[symbol] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(h.subscribers[symbol]) == 0 {
		delete(h.subscribers, symbol)
	}
}

func (h *Hub) subscribedSymbols() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	symbols := make([]string, 0, len(h.subscribers))
	for symbol := range h.subscribers {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// SubscriberCount returns the total number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, subs := range h.subscribers {
		count += len(subs)
	}
	return count
}
