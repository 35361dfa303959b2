package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	pkgkafka "MarketPulse/pkg/kafka"
	"MarketPulse/pkg/logger"
)

// PulseIngestHandler consumes pulses published by upstream analytics and
// drives them through the same create path as the HTTP boundary.
type PulseIngestHandler struct {
	topic   string
	store   *PulseStore
	metrics domrepo.Metrics
	logger  *logger.Logger
}

func NewPulseIngestHandler(topic string, store *PulseStore, metrics domrepo.Metrics, l *logger.Logger) *PulseIngestHandler {
	return &PulseIngestHandler{topic: topic, store: store, metrics: metrics, logger: l}
}

func (h *PulseIngestHandler) Topic() string { return h.topic }

// Handle decodes {kind, marketId, fields..., annotations...}. Malformed or
// out-of-bound records are counted and dropped: redelivery cannot make an
// invalid pulse valid. Storage faults are returned so the consumer retries.
func (h *PulseIngestHandler) Handle(ctx context.Context, b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		h.metrics.RecordError("ingest_unmarshal")
		h.logger.Warn("dropping undecodable pulse message", logger.Error(err))
		return nil
	}

	kindStr, _ := raw["kind"].(string)
	kind, err := models.ParseKind(kindStr)
	if err != nil {
		h.metrics.RecordError("ingest_kind")
		h.logger.Warn("dropping pulse with unknown kind", logger.String("kind", kindStr))
		return nil
	}
	marketID, _ := raw["marketId"].(string)

	_, err = h.store.Create(ctx, kind, marketID, raw)
	if err == nil {
		return nil
	}

	var verr *models.ValidationError
	var nferr *models.NotFoundError
	switch {
	case errors.As(err, &verr):
		h.metrics.RecordError("ingest_validation")
		h.logger.Warn("dropping invalid pulse",
			logger.String("kind", string(kind)), logger.Error(err))
		return nil
	case errors.As(err, &nferr):
		h.metrics.RecordError("ingest_market_not_found")
		h.logger.Warn("dropping pulse for unknown market",
			logger.String("kind", string(kind)), logger.String("marketId", marketID))
		return nil
	default:
		h.metrics.RecordError("ingest_store")
		return err
	}
}

var _ pkgkafka.MessageHandler = (*PulseIngestHandler)(nil)
