package signal

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"alphamind/internal/config"
	"alphamind/internal/logging"
	"alphamind/internal/marketdata"
	"alphamind/internal/models"
	"alphamind/internal/performance"
)

// SignalStore persists generated signals. Persistence failures are
// logged, not fatal; a signal is useful even if the write is lost.
type SignalStore interface {
	SaveSignal(ctx context.Context, sig *models.Signal) error
}

// Service ties the factory to live market data. It fetches candles and
// the current price, runs generation, and records the result.
type Service struct {
	factory *Factory
	data    *marketdata.Client
	store   SignalStore
	pool    *performance.WorkerPool
	minBars int
	logger  zerolog.Logger
}

// NewService creates a signal service. store may be nil.
func NewService(cfg *config.Config, data *marketdata.Client, store SignalStore, logger zerolog.Logger) *Service {
	pool := performance.NewWorkerPool(0)
	pool.Start()
	return &Service{
		factory: NewFactory(cfg),
		data:    data,
		store:   store,
		pool:    pool,
		minBars: cfg.Analysis.MinBars,
		logger:  logger,
	}
}

// Close stops the batch worker pool.
func (s *Service) Close() {
	s.pool.Stop()
}

// Generate produces a signal for one request using live data.
func (s *Service) Generate(ctx context.Context, req Request) (models.Signal, error) {
	// Fetch a margin over the minimum so swing detection has context.
	candles, err := s.data.Candles(ctx, req.Symbol, req.Timeframe, s.minBars*4)
	if err != nil {
		return models.Signal{}, err
	}
	price, err := s.data.Price(ctx, req.Symbol)
	if err != nil {
		return models.Signal{}, err
	}

	sig, err := s.factory.Generate(req, candles, price)
	if err != nil {
		return models.Signal{}, err
	}

	if s.store != nil {
		if err := s.store.SaveSignal(ctx, &sig); err != nil {
			s.logger.Warn().Err(err).Str("symbol", sig.Symbol).Msg("signal not persisted")
		}
	}

	logging.LogSignal(s.logger, sig.Symbol, string(sig.Direction), sig.Confidence, sig.RRRatio)
	return sig, nil
}

// BatchResult pairs one batch request with its outcome.
type BatchResult struct {
	Request Request
	Signal  models.Signal
	Err     error
}

// GenerateBatch runs generation for several requests concurrently and
// returns results in request order. A failed symbol fails only its own
// slot; the rest of the batch proceeds.
func (s *Service) GenerateBatch(ctx context.Context, reqs []Request) []BatchResult {
	results := make([]BatchResult, len(reqs))
	var wg sync.WaitGroup

	for i := range reqs {
		i := i
		wg.Add(1)
		task := func() {
			defer wg.Done()
			sig, err := s.Generate(ctx, reqs[i])
			results[i] = BatchResult{Request: reqs[i], Signal: sig, Err: err}
		}
		if !s.pool.Submit(task) {
			// Pool saturated or stopped; run inline rather than drop.
			task()
		}
	}

	wg.Wait()
	return results
}
