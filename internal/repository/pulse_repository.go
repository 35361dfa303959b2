package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/domain/schema"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// pulseRepo implements PulseRepository for PostgreSQL. One table per kind;
// all SQL is generated from the schema table.
type pulseRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPulseRepo creates a PostgreSQL pulse repository.
func NewPulseRepo(db *sqlx.DB, timeout time.Duration) domrepo.PulseRepository {
	return &pulseRepo{db: db, timeout: timeout}
}

func (r *pulseRepo) Insert(ctx context.Context, p *models.Pulse) error {
	s, ok := schema.For(p.Kind)
	if !ok {
		return fmt.Errorf("no schema for kind %q", p.Kind)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []any{p.ID, p.MarketID, p.Timestamp}
	for _, f := range s.Fields {
		args = append(args, p.Fields[f.Name])
	}
	if s.Annotation != "" {
		blob, err := annotationJSON(p.Annotations, s.Annotation)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", s.Annotation, err)
		}
		args = append(args, blob)
	}

	if _, err := r.db.ExecContext(ctx, pulseInsertSQL(s), args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case foreignKeyViolation, invalidTextRep:
				return &models.NotFoundError{Resource: "market", ID: p.MarketID}
			case uniqueViolation:
				return &models.ConflictError{Resource: string(p.Kind) + " pulse", Key: p.ID}
			}
		}
		return &models.StorageError{Op: "insert " + string(p.Kind) + " pulse", Err: err}
	}
	return nil
}

func (r *pulseRepo) List(ctx context.Context, kind models.Kind, q models.ListPulsesQuery) ([]models.PulseWithMarket, error) {
	s, ok := schema.For(kind)
	if !ok {
		return nil, fmt.Errorf("no schema for kind %q", kind)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	byMarket := q.MarketID != ""
	args := make([]any, 0, 3)
	if byMarket {
		args = append(args, q.MarketID)
	}
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryxContext(ctx, pulseListSQL(s, byMarket), args...)
	if err != nil {
		if byMarket && isBadUUID(err) {
			return []models.PulseWithMarket{}, nil
		}
		return nil, &models.StorageError{Op: "list " + string(kind) + " pulses", Err: err}
	}
	defer rows.Close()

	out := make([]models.PulseWithMarket, 0, q.Limit)
	for rows.Next() {
		p, err := scanPulse(rows, s)
		if err != nil {
			return nil, &models.StorageError{Op: "scan " + string(kind) + " pulse", Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "list " + string(kind) + " pulses", Err: err}
	}
	return out, nil
}

func (r *pulseRepo) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.db.PingContext(ctx)
}

func scanPulse(rows *sqlx.Rows, s schema.Schema) (models.PulseWithMarket, error) {
	var p models.PulseWithMarket
	p.Kind = s.Kind

	vals := make([]float64, len(s.Fields))
	var blob []byte

	dest := []any{&p.ID, &p.MarketID, &p.Timestamp}
	for i := range vals {
		dest = append(dest, &vals[i])
	}
	if s.Annotation != "" {
		dest = append(dest, &blob)
	}
	dest = append(dest, &p.Market.Name, &p.Market.Symbol)

	if err := rows.Scan(dest...); err != nil {
		return p, err
	}

	p.Fields = make(map[string]float64, len(s.Fields))
	for i, f := range s.Fields {
		p.Fields[f.Name] = vals[i]
	}
	if len(blob) > 0 {
		var m map[string]any
		if err := json.Unmarshal(blob, &m); err != nil {
			return p, fmt.Errorf("decode %s: %w", s.Annotation, err)
		}
		p.Annotations = map[string]any{s.Annotation: m}
	}
	return p, nil
}

func annotationJSON(annotations map[string]any, name string) (any, error) {
	v, ok := annotations[name]
	if !ok || v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
