package usecase

import (
	"context"
	"strings"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/pkg/cache"
	"MarketPulse/pkg/logger"

	"github.com/google/uuid"
)

// marketListCacheKey fronts the registry listing; every market or pulse write
// deletes it so per-kind counts are never stale.
const marketListCacheKey = "markets:list"

// MarketRegistry is the canonical instrument registry use case.
type MarketRegistry struct {
	repo     domrepo.MarketRepository
	cache    cache.Service
	cacheTTL time.Duration
	metrics  domrepo.Metrics
	logger   *logger.Logger
}

func NewMarketRegistry(
	repo domrepo.MarketRepository,
	c cache.Service,
	cacheTTL time.Duration,
	metrics domrepo.Metrics,
	l *logger.Logger,
) *MarketRegistry {
	return &MarketRegistry{repo: repo, cache: c, cacheTTL: cacheTTL, metrics: metrics, logger: l}
}

// Create validates and stores a new market. Symbol uniqueness is enforced by
// the storage layer and surfaced as a ConflictError.
func (u *MarketRegistry) Create(ctx context.Context, req *models.CreateMarketRequest) (*models.Market, error) {
	if err := validateMarketRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	m := &models.Market{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Symbol:      req.Symbol,
		Type:        models.MarketType(req.Type),
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := u.repo.Insert(ctx, m); err != nil {
		return nil, err
	}
	u.metrics.RecordMarketCreated()
	u.metrics.RecordLatency("market_create", time.Since(start).Seconds())

	u.invalidateListing(ctx)
	u.logger.Info("market created",
		logger.String("id", m.ID), logger.String("symbol", m.Symbol))
	return m, nil
}

// List returns every market ordered by name ascending, each with per-kind
// pulse counts.
func (u *MarketRegistry) List(ctx context.Context) ([]models.MarketWithCounts, error) {
	if u.cache != nil {
		var cached []models.MarketWithCounts
		if err := u.cache.Get(ctx, marketListCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	start := time.Now()
	out, err := u.repo.ListWithCounts(ctx)
	if err != nil {
		return nil, err
	}
	u.metrics.RecordLatency("market_list", time.Since(start).Seconds())

	if u.cache != nil {
		if err := u.cache.Set(ctx, marketListCacheKey, out, u.cacheTTL); err != nil {
			u.logger.Warn("market list cache set failed", logger.Error(err))
		}
	}
	return out, nil
}

// InvalidateListing drops the cached registry listing. Called by the pulse
// store on every write since writes change the derived counts.
func (u *MarketRegistry) InvalidateListing(ctx context.Context) {
	u.invalidateListing(ctx)
}

func (u *MarketRegistry) invalidateListing(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, marketListCacheKey); err != nil {
		u.logger.Warn("market list cache invalidation failed", logger.Error(err))
	}
}

func validateMarketRequest(req *models.CreateMarketRequest) error {
	var violations []models.Violation
	if strings.TrimSpace(req.Name) == "" {
		violations = append(violations, models.Violation{Field: "name", Constraint: "is required"})
	}
	if strings.TrimSpace(req.Symbol) == "" {
		violations = append(violations, models.Violation{Field: "symbol", Constraint: "is required"})
	}
	if !validMarketType(req.Type) {
		violations = append(violations, models.Violation{
			Field:      "type",
			Constraint: "must be one of the enumerated market types",
			Value:      req.Type,
		})
	}
	if len(violations) > 0 {
		return models.NewValidationError(violations...)
	}
	return nil
}

func validMarketType(t string) bool {
	for _, mt := range models.MarketTypes {
		if string(mt) == t {
			return true
		}
	}
	return false
}
