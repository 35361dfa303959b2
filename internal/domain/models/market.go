package models

import "time"

// MarketType classifies a tradable instrument.
type MarketType string

const (
	MarketTypeEquity    MarketType = "EQUITY"
	MarketTypeBond      MarketType = "BOND"
	MarketTypeCommodity MarketType = "COMMODITY"
	MarketTypeCurrency  MarketType = "CURRENCY"
	MarketTypeCrypto    MarketType = "CRYPTO"
	MarketTypeETF       MarketType = "ETF"
	MarketTypeIndex     MarketType = "INDEX"
	MarketTypeFutures   MarketType = "FUTURES"
	MarketTypeOptions   MarketType = "OPTIONS"
)

// MarketTypes lists every accepted market type, in the order they are documented.
var MarketTypes = []MarketType{
	MarketTypeEquity, MarketTypeBond, MarketTypeCommodity, MarketTypeCurrency,
	MarketTypeCrypto, MarketTypeETF, MarketTypeIndex, MarketTypeFutures, MarketTypeOptions,
}

// Market is a tradable instrument referenced by pulses. Markets are created
// once and never mutated or deleted.
type Market struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Symbol      string     `json:"symbol" db:"symbol"`
	Type        MarketType `json:"type" db:"market_type"`
	Description string     `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// MarketSummary is the minimal market projection joined onto pulse responses.
type MarketSummary struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// MarketWithCounts is a registry listing row: the market plus the number of
// stored pulses per kind. Counts are derived on each listing, never persisted.
type MarketWithCounts struct {
	Market
	PulseCounts map[string]int64 `json:"pulseCounts"`
}
