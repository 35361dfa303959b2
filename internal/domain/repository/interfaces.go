package repository

import (
	"context"

	"MarketPulse/internal/domain/models"
)

// MarketRepository is the registry's durable port. Symbol uniqueness is
// guaranteed by the storage layer; Insert surfaces a ConflictError when the
// symbol is taken.
type MarketRepository interface {
	Insert(ctx context.Context, m *models.Market) error
	GetByID(ctx context.Context, id string) (*models.Market, error)
	ListWithCounts(ctx context.Context) ([]models.MarketWithCounts, error)
}

// PulseRepository is the pulse store's durable port, parameterized by kind.
// Referential integrity of MarketID is guaranteed by the storage layer;
// Insert surfaces a NotFoundError when the market does not exist.
type PulseRepository interface {
	Insert(ctx context.Context, p *models.Pulse) error
	List(ctx context.Context, kind models.Kind, q models.ListPulsesQuery) ([]models.PulseWithMarket, error)
	Health(ctx context.Context) error
}

// Metrics records operational counters and latencies.
type Metrics interface {
	RecordPulseStored(kind string)
	RecordMarketCreated()
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
