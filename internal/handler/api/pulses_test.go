package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/usecase"
	"MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memMarketRepo struct {
	markets map[string]*models.Market
	symbols map[string]bool
}

func newMemMarketRepo() *memMarketRepo {
	return &memMarketRepo{markets: map[string]*models.Market{}, symbols: map[string]bool{}}
}

func (r *memMarketRepo) Insert(_ context.Context, m *models.Market) error {
	if r.symbols[m.Symbol] {
		return &models.ConflictError{Resource: "market", Key: m.Symbol}
	}
	cp := *m
	r.markets[m.ID] = &cp
	r.symbols[m.Symbol] = true
	return nil
}

func (r *memMarketRepo) GetByID(_ context.Context, id string) (*models.Market, error) {
	m, ok := r.markets[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "market", ID: id}
	}
	cp := *m
	return &cp, nil
}

func (r *memMarketRepo) ListWithCounts(_ context.Context) ([]models.MarketWithCounts, error) {
	out := make([]models.MarketWithCounts, 0, len(r.markets))
	for _, m := range r.markets {
		out = append(out, models.MarketWithCounts{Market: *m, PulseCounts: map[string]int64{}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memPulseRepo struct {
	markets *memMarketRepo
	pulses  []models.Pulse
	failErr error
}

func (r *memPulseRepo) Insert(_ context.Context, p *models.Pulse) error {
	if r.failErr != nil {
		return r.failErr
	}
	if _, ok := r.markets.markets[p.MarketID]; !ok {
		return &models.NotFoundError{Resource: "market", ID: p.MarketID}
	}
	r.pulses = append(r.pulses, *p)
	return nil
}

func (r *memPulseRepo) List(_ context.Context, kind models.Kind, q models.ListPulsesQuery) ([]models.PulseWithMarket, error) {
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
		out = append(out, models.PulseWithMarket{Pulse: p, Market: models.MarketSummary{Name: m.Name, Symbol: m.Symbol}})
	}
	return out, nil
}

func (r *memPulseRepo) Health(context.Context) error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordPulseStored(string) {}
func (nopMetrics) RecordMarketCreated() {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordLatency(string, float64) {}

type handlerFixture struct {
	e       *echo.Echo
	markets *memMarketRepo
	pulses  *memPulseRepo
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	markets := newMemMarketRepo()
	pulses := &memPulseRepo{markets: markets}
	registry := usecase.NewMarketRegistry(markets, nil, time.Minute, nopMetrics{}, l)
	store := usecase.NewPulseStore(pulses, markets, registry, nopMetrics{}, l)

	e := echo.New()
	NewPulseHandler(l, registry, store).RegisterRoutes(e)
	return &handlerFixture{e: e, markets: markets, pulses: pulses}
}

func (f *handlerFixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) seedMarket(t *testing.T, name, symbol string) string {
	t.Helper()
	rec := f.do(http.MethodPost, "/api/v1/markets",
		fmt.Sprintf(`{"name":%q,"symbol":%q,"type":"EQUITY"}`, name, symbol))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	return resp.Data.ID
}

func TestCreateMarketEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/markets", `{"name":"Apple Inc.","symbol":"AAPL","type":"EQUITY"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Status int `json:"status"`
		Data   struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
			Type   string `json:"type"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.NotEmpty(t, resp.Data.ID)
	assert.Equal(t, "AAPL", resp.Data.Symbol)
	assert.Equal(t, "EQUITY", resp.Data.Type)
}

func TestCreateMarketInvalidType(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/markets", `{"name":"Apple","symbol":"AAPL","type":"LEMONADE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "type")
}

func TestCreateMarketDuplicateSymbolEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedMarket(t, "Apple", "AAPL")

	rec := f.do(http.MethodPost, "/api/v1/markets", `{"name":"Other Apple","symbol":"AAPL","type":"EQUITY"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Data []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "ERR_CONFLICT", resp.Data[0].Code)
	assert.Contains(t, resp.Data[0].Message, "AAPL")
}

func TestCreatePulseEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	id := f.seedMarket(t, "Apple", "AAPL")

	body := fmt.Sprintf(`{"marketId":%q,"sps":42.5,"fearGreed":55,"newsScore":10,"socialScore":-5,"analystScore":20,"sources":{"news":12}}`, id)
	rec := f.do(http.MethodPost, "/api/v1/pulses/sentiment", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data["id"])
	assert.NotEmpty(t, resp.Data["timestamp"])
	assert.Equal(t, 42.5, resp.Data["sps"])

	market, ok := resp.Data["market"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "AAPL", market["symbol"])
}

func TestCreatePulseUnknownKind(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/pulses/mood", `{"marketId":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown pulse kind")
}

func TestCreatePulseUnknownMarket(t *testing.T) {
	f := newHandlerFixture(t)

	body := `{"marketId":"nope","sps":0,"fearGreed":0,"newsScore":0,"socialScore":0,"analystScore":0}`
	rec := f.do(http.MethodPost, "/api/v1/pulses/sentiment", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, len(f.pulses.pulses))

	var resp struct {
		Data []struct {
			Code string `json:"code"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "ERR_NOT_FOUND", resp.Data[0].Code)
}

func TestCreatePulseValidationViolations(t *testing.T) {
	f := newHandlerFixture(t)
	id := f.seedMarket(t, "Apple", "AAPL")

	body := fmt.Sprintf(`{"marketId":%q,"sps":500,"fearGreed":-0.001,"newsScore":10,"socialScore":-5}`, id)
	rec := f.do(http.MethodPost, "/api/v1/pulses/sentiment", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Data []struct {
			Code  string `json:"code"`
			Field string `json:"field"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	fields := make([]string, 0, 3)
	for _, d := range resp.Data {
		assert.Equal(t, "ERR_VALIDATION", d.Code)
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"sps", "fearGreed", "analystScore"}, fields)
	assert.Zero(t, len(f.pulses.pulses))
}

func TestCreatePulseStorageFaultIsOpaque(t *testing.T) {
	f := newHandlerFixture(t)
	id := f.seedMarket(t, "Apple", "AAPL")
	f.pulses.failErr = &models.StorageError{Op: "insert", Err: errors.New("pq: connection refused")}

	body := fmt.Sprintf(`{"marketId":%q,"sps":0,"fearGreed":0,"newsScore":0,"socialScore":0,"analystScore":0}`, id)
	rec := f.do(http.MethodPost, "/api/v1/pulses/sentiment", body)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Data []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "ERR_INTERNAL", resp.Data[0].Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestListPulsesEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	id := f.seedMarket(t, "Apple", "AAPL")

	for i := 0; i < 3; i++ {
		body := fmt.Sprintf(`{"marketId":%q,"mpm":%d,"trendStrength":50,"trendDirection":0.5,"exhaustion":10}`, id, i)
		rec := f.do(http.MethodPost, "/api/v1/pulses/momentum", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		time.Sleep(time.Millisecond)
	}

	rec := f.do(http.MethodGet, "/api/v1/pulses/momentum?marketId="+id+"&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Rows  []map[string]any `json:"rows"`
			Total int64            `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Rows, 2)
	assert.Equal(t, int64(2), resp.Data.Total)
	// newest first
	assert.Equal(t, 2.0, resp.Data.Rows[0]["mpm"])
	assert.Equal(t, 1.0, resp.Data.Rows[1]["mpm"])
}

func TestListPulsesLenientWindowParams(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/pulses/flow?limit=abc&offset=-5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Rows []map[string]any `json:"rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.Rows)
}

func TestListMarketsEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedMarket(t, "Zillow", "Z")
	f.seedMarket(t, "Apple", "AAPL")

	rec := f.do(http.MethodGet, "/api/v1/markets", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Rows []struct {
				Name string `json:"name"`
			} `json:"rows"`
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(2), resp.Data.Total)
	assert.Equal(t, "Apple", resp.Data.Rows[0].Name)
	assert.Equal(t, "Zillow", resp.Data.Rows[1].Name)
}

func TestHealthEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
