package usecase

import (
	"context"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/domain/schema"
	"MarketPulse/pkg/logger"

	"github.com/google/uuid"
)

// PulseStore validates, persists, and serves pulse records of every kind.
type PulseStore struct {
	pulses   domrepo.PulseRepository
	markets  domrepo.MarketRepository
	registry *MarketRegistry
	metrics  domrepo.Metrics
	logger   *logger.Logger
}

func NewPulseStore(
	pulses domrepo.PulseRepository,
	markets domrepo.MarketRepository,
	registry *MarketRegistry,
	metrics domrepo.Metrics,
	l *logger.Logger,
) *PulseStore {
	return &PulseStore{pulses: pulses, markets: markets, registry: registry, metrics: metrics, logger: l}
}

// Create validates raw against the kind's schema, resolves the referenced
// market, and persists the record with a server-assigned id and timestamp.
// Validation and the market lookup both happen before any write; the foreign
// key constraint remains the backstop under concurrent writers.
func (u *PulseStore) Create(ctx context.Context, kind models.Kind, marketID string, raw map[string]any) (*models.PulseWithMarket, error) {
	if marketID == "" {
		return nil, models.NewValidationError(models.Violation{Field: "marketId", Constraint: "is required"})
	}

	rec, err := schema.Validate(kind, raw)
	if err != nil {
		return nil, err
	}
	s, _ := schema.For(kind)

	market, err := u.markets.GetByID(ctx, marketID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	p := models.Pulse{
		ID:          uuid.NewString(),
		Kind:        kind,
		MarketID:    market.ID,
		Timestamp:   time.Now().UTC(),
		Fields:      rec.Fields,
		Annotations: rec.Annotations,
	}

	if err := u.pulses.Insert(ctx, &p); err != nil {
		return nil, err
	}
	u.metrics.RecordPulseStored(string(kind))
	u.metrics.RecordLatency("pulse_create", time.Since(start).Seconds())

	// Counts shown on the registry listing changed.
	u.registry.InvalidateListing(ctx)

	composite := s.Composite()
	u.logger.Debug("pulse stored",
		logger.String("kind", string(kind)),
		logger.String("id", p.ID),
		logger.String("symbol", market.Symbol),
		logger.Any(composite.Name, p.Fields[composite.Name]))

	return &models.PulseWithMarket{
		Pulse:  p,
		Market: models.MarketSummary{Name: market.Name, Symbol: market.Symbol},
	}, nil
}

// List returns pulses of kind, optionally restricted to one market, newest
// first, windowed by the normalized limit and offset. Every row carries the
// joined market summary.
func (u *PulseStore) List(ctx context.Context, kind models.Kind, q models.ListPulsesQuery) ([]models.PulseWithMarket, error) {
	q.Normalize()

	start := time.Now()
	out, err := u.pulses.List(ctx, kind, q)
	if err != nil {
		return nil, err
	}
	u.metrics.RecordLatency("pulse_list", time.Since(start).Seconds())
	return out, nil
}

// Health pings the durable store.
func (u *PulseStore) Health(ctx context.Context) error {
	return u.pulses.Health(ctx)
}
