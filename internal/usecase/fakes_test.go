package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/pkg/cache"
	"MarketPulse/pkg/logger"
)

func testLogger() *logger.Logger {
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return l
}

type fakeMarketRepo struct {
	mu      sync.Mutex
	markets map[string]*models.Market
	symbols map[string]bool
	failErr error
}

func newFakeMarketRepo() *fakeMarketRepo {
	return &fakeMarketRepo{
		markets: make(map[string]*models.Market),
		symbols: make(map[string]bool),
	}
}

func (r *fakeMarketRepo) Insert(_ context.Context, m *models.Market) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	if r.symbols[m.Symbol] {
		return &models.ConflictError{Resource: "market", Key: m.Symbol}
	}
	cp := *m
	r.markets[m.ID] = &cp
	r.symbols[m.Symbol] = true
	return nil
}

func (r *fakeMarketRepo) GetByID(_ context.Context, id string) (*models.Market, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.markets[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "market", ID: id}
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMarketRepo) ListWithCounts(_ context.Context) ([]models.MarketWithCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	out := make([]models.MarketWithCounts, 0, len(r.markets))
	for _, m := range r.markets {
		out = append(out, models.MarketWithCounts{Market: *m, PulseCounts: map[string]int64{}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakePulseRepo struct {
	mu      sync.Mutex
	markets *fakeMarketRepo
	pulses  []models.Pulse
	lastQ   models.ListPulsesQuery
	failErr error
}

func newFakePulseRepo(markets *fakeMarketRepo) *fakePulseRepo {
	return &fakePulseRepo{markets: markets}
}

func (r *fakePulseRepo) Insert(_ context.Context, p *models.Pulse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	if _, ok := r.markets.markets[p.MarketID]; !ok {
		return &models.NotFoundError{Resource: "market", ID: p.MarketID}
	}
	r.pulses = append(r.pulses, *p)
	return nil
}

func (r *fakePulseRepo) List(_ context.Context, kind models.Kind, q models.ListPulsesQuery) ([]models.PulseWithMarket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQ = q
	if r.failErr != nil {
		return nil, r.failErr
	}

	matches := make([]models.Pulse, 0)
	for _, p := range r.pulses {
		if p.Kind != kind {
			continue
		}
		if q.MarketID != "" && p.MarketID != q.MarketID {
			continue
		}
		matches = append(matches, p)
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].Timestamp.Equal(matches[j].Timestamp) {
			return matches[i].Timestamp.After(matches[j].Timestamp)
		}
		return matches[i].ID > matches[j].ID
	})

	if q.Offset >= len(matches) {
		return []models.PulseWithMarket{}, nil
	}
	matches = matches[q.Offset:]
	if len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}

	out := make([]models.PulseWithMarket, 0, len(matches))
	for _, p := range matches {
		m := r.markets.markets[p.MarketID]
		out = append(out, models.PulseWithMarket{
			Pulse:  p,
			Market: models.MarketSummary{Name: m.Name, Symbol: m.Symbol},
		})
	}
	return out, nil
}

func (r *fakePulseRepo) Health(context.Context) error { return nil }

func (r *fakePulseRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pulses)
}

type fakeMetrics struct {
	mu      sync.Mutex
	stored  map[string]int
	markets int
	errors  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{stored: make(map[string]int), errors: make(map[string]int)}
}

func (m *fakeMetrics) RecordPulseStored(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored[kind]++
}

func (m *fakeMetrics) RecordMarketCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markets++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes int
}

func newFakeCache() *fakeCache { return &fakeCache{data: make(map[string][]byte)} }

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.deletes++
	return nil
}

func (c *fakeCache) Close() error { return nil }
