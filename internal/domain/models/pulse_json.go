package models

import (
	"encoding/json"
	"time"
)

func marshalPulse(p Pulse, m *MarketSummary) ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+len(p.Annotations)+5)
	for k, v := range p.Fields {
		out[k] = v
	}
	for k, v := range p.Annotations {
		out[k] = v
	}
	out["id"] = p.ID
	out["kind"] = p.Kind
	out["marketId"] = p.MarketID
	out["timestamp"] = p.Timestamp.Format(time.RFC3339Nano)
	if m != nil {
		out["market"] = m
	}
	return json.Marshal(out)
}
