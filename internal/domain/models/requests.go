package models

// Requests for the registry and pulse HTTP endpoints. Defined in domain for consistency and reuse.

type CreateMarketRequest struct {
	Name        string `json:"name" validate:"required"`
	Symbol      string `json:"symbol" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=EQUITY BOND COMMODITY CURRENCY CRYPTO ETF INDEX FUTURES OPTIONS"`
	Description string `json:"description"`
}

// ListPulsesQuery is the decoded query window for a pulse listing. Limit and
// offset are parsed leniently by the handler: absent or non-numeric values
// fall back to the defaults rather than failing the request.
type ListPulsesQuery struct {
	MarketID string
	Limit    int
	Offset   int
}

const (
	// DefaultListLimit applies when limit is absent, non-numeric, or non-positive.
	DefaultListLimit = 100
	// MaxListLimit caps a single listing window.
	MaxListLimit = 1000
)

// Normalize applies defaulting and the cap to the query window.
func (q *ListPulsesQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}
