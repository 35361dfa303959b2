package models

import (
	"fmt"
	"time"
)

// Kind identifies one of the fixed pulse record schemas.
type Kind string

const (
	KindSentiment  Kind = "sentiment"
	KindVolatility Kind = "volatility"
	KindLiquidity  Kind = "liquidity"
	KindMomentum   Kind = "momentum"
	KindRisk       Kind = "risk"
	KindFlow       Kind = "flow"
)

// Kinds lists every pulse kind.
var Kinds = []Kind{KindSentiment, KindVolatility, KindLiquidity, KindMomentum, KindRisk, KindFlow}

// ParseKind maps a path segment onto a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown pulse kind %q", s)
}

// Pulse is a stored metric record. Fields holds the kind's validated numeric
// fields keyed by field name; Annotations carries the optional opaque payload
// for kinds that define one. A pulse is immutable once stored.
type Pulse struct {
	ID          string             `json:"id"`
	Kind        Kind               `json:"kind"`
	MarketID    string             `json:"marketId"`
	Timestamp   time.Time          `json:"timestamp"`
	Fields      map[string]float64 `json:"-"`
	Annotations map[string]any     `json:"-"`
}

// PulseWithMarket is the response shape: the pulse joined with its market's
// name and symbol.
type PulseWithMarket struct {
	Pulse
	Market MarketSummary `json:"market"`
}

// MarshalJSON flattens Fields and Annotations into the top-level object so a
// sentiment pulse serializes as {"id":..., "sps":42, "fearGreed":55, ...}.
func (p Pulse) MarshalJSON() ([]byte, error) {
	return marshalPulse(p, nil)
}

// MarshalJSON flattens the pulse and nests the market summary under "market".
func (p PulseWithMarket) MarshalJSON() ([]byte, error) {
	return marshalPulse(p.Pulse, &p.Market)
}
