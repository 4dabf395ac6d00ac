package marketdata

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"alphamind/internal/config"
	"alphamind/internal/errors"
	"alphamind/internal/logging"
	"alphamind/internal/models"
	"alphamind/pkg/utils"
)

type pricePoint struct {
	price float64
	at    time.Time
}

// Client wraps a Provider with timeouts, a circuit breaker, a rate
// limiter and a last-known-price fallback. When the provider fails and
// a cached price is still inside the freshness window, the cached price
// is served; otherwise ErrPriceUnavailable surfaces to the caller, who
// is expected to retry.
type Client struct {
	provider  Provider
	breaker   *gobreaker.CircuitBreaker
	limiter   *rate.Limiter
	timeout   time.Duration
	freshness time.Duration
	logger    zerolog.Logger

	mu         sync.RWMutex
	lastPrices map[string]pricePoint
}

// NewClient creates a resilient market-data client.
func NewClient(provider Provider, cfg config.DataConfig, logger zerolog.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "marketdata",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		provider:   provider,
		breaker:    breaker,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitPerSec),
		timeout:    time.Duration(cfg.PriceTimeoutMS) * time.Millisecond,
		freshness:  time.Duration(cfg.FreshnessWindowS) * time.Second,
		logger:     logger,
		lastPrices: make(map[string]pricePoint),
	}
}

// Candles fetches candles through the breaker and rate limiter.
func (c *Client) Candles(ctx context.Context, symbol, timeframe string, n int) ([]models.Candle, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewDataError("candles", symbol, "rate limit wait", err)
	}

	// Retrying against an open breaker cannot succeed inside one call.
	retryCfg := utils.DefaultRetryConfig()
	retryCfg.Permanent = func(err error) bool {
		return stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests)
	}

	candles, err := utils.RetryWithResult(ctx, retryCfg, func() ([]models.Candle, error) {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.provider.Candles(ctx, symbol, timeframe, n)
		})
		if err != nil {
			return nil, err
		}
		return result.([]models.Candle), nil
	})
	if err != nil {
		return nil, errors.NewDataError("candles", symbol, "provider failure", err)
	}
	return candles, nil
}

// Price fetches a live price, falling back to the last known price when
// the provider fails and the cached value is fresh enough.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return c.fallback(symbol, err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.provider.Price(ctx, symbol)
	})
	if err != nil {
		return c.fallback(symbol, err)
	}

	price := result.(float64)
	c.mu.Lock()
	c.lastPrices[symbol] = pricePoint{price: price, at: time.Now()}
	c.mu.Unlock()
	return price, nil
}

func (c *Client) fallback(symbol string, cause error) (float64, error) {
	c.mu.RLock()
	pp, ok := c.lastPrices[symbol]
	c.mu.RUnlock()

	if ok {
		age := time.Since(pp.at)
		if age <= c.freshness {
			logging.LogPriceFallback(c.logger, symbol, age, cause)
			return pp.price, nil
		}
	}
	return 0, errors.NewPriceError(symbol, cause)
}
