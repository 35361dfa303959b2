package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// marketRepo implements MarketRepository for PostgreSQL.
type marketRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewMarketRepo creates a PostgreSQL market repository.
func NewMarketRepo(db *sqlx.DB, timeout time.Duration) domrepo.MarketRepository {
	return &marketRepo{db: db, timeout: timeout}
}

func (r *marketRepo) Insert(ctx context.Context, m *models.Market) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO markets (id, name, symbol, market_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Symbol, string(m.Type), m.Description, m.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return &models.ConflictError{Resource: "market", Key: m.Symbol}
		}
		return &models.StorageError{Op: "insert market", Err: err}
	}
	return nil
}

func (r *marketRepo) GetByID(ctx context.Context, id string) (*models.Market, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, name, symbol, market_type, description, created_at
		FROM markets
		WHERE id = $1`

	var m models.Market
	err := r.db.QueryRowxContext(ctx, query, id).
		Scan(&m.ID, &m.Name, &m.Symbol, &m.Type, &m.Description, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isBadUUID(err) {
			return nil, &models.NotFoundError{Resource: "market", ID: id}
		}
		return nil, &models.StorageError{Op: "get market", Err: err}
	}
	return &m, nil
}

func (r *marketRepo) ListWithCounts(ctx context.Context) ([]models.MarketWithCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(ctx, marketListSQL())
	if err != nil {
		return nil, &models.StorageError{Op: "list markets", Err: err}
	}
	defer rows.Close()

	out := make([]models.MarketWithCounts, 0)
	for rows.Next() {
		var m models.MarketWithCounts
		counts := make([]int64, len(models.Kinds))

		dest := []any{&m.ID, &m.Name, &m.Symbol, &m.Type, &m.Description, &m.CreatedAt}
		for i := range counts {
			dest = append(dest, &counts[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &models.StorageError{Op: "scan market", Err: err}
		}

		m.PulseCounts = make(map[string]int64, len(models.Kinds))
		for i, k := range models.Kinds {
			m.PulseCounts[string(k)] = counts[i]
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "list markets", Err: err}
	}
	return out, nil
}

const (
	uniqueViolation     = pq.ErrorCode("23505")
	foreignKeyViolation = pq.ErrorCode("23503")
	invalidTextRep      = pq.ErrorCode("22P02")
)

// isBadUUID treats a malformed uuid literal as a lookup miss rather than a
// storage fault; callers pass opaque ids and a garbage id is simply not found.
func isBadUUID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRep
}
