package schema

import "MarketPulse/internal/domain/models"

// FieldSpec describes one numeric field of a pulse kind: its wire name, its
// storage column, and its bound expressed as a validator rule. An empty Rule
// means the field is unbounded (any finite number is accepted).
type FieldSpec struct {
	Name   string
	Column string
	Rule   string
}

// Schema is the full record shape for one pulse kind. Every numeric field is
// required; Annotation names the optional opaque payload field for kinds that
// define one (empty otherwise).
type Schema struct {
	Kind             models.Kind
	Table            string
	Fields           []FieldSpec
	Annotation       string
	AnnotationColumn string
}

// Composite returns the headline bounded metric of the kind, by convention the
// first field of the schema.
func (s Schema) Composite() FieldSpec { return s.Fields[0] }

var schemas = map[models.Kind]Schema{
	models.KindSentiment: {
		Kind:  models.KindSentiment,
		Table: "pulse_sentiment",
		Fields: []FieldSpec{
			{Name: "sps", Column: "sps", Rule: "gte=-100,lte=100"},
			{Name: "fearGreed", Column: "fear_greed", Rule: "gte=0,lte=100"},
			{Name: "newsScore", Column: "news_score", Rule: "gte=-100,lte=100"},
			{Name: "socialScore", Column: "social_score", Rule: "gte=-100,lte=100"},
			{Name: "analystScore", Column: "analyst_score", Rule: "gte=-100,lte=100"},
		},
		Annotation:       "sources",
		AnnotationColumn: "sources",
	},
	models.KindVolatility: {
		Kind:  models.KindVolatility,
		Table: "pulse_volatility",
		Fields: []FieldSpec{
			{Name: "vps", Column: "vps", Rule: "gte=0,lte=100"},
			{Name: "realizedVol", Column: "realized_vol", Rule: "gte=0"},
			{Name: "impliedVol", Column: "implied_vol", Rule: "gte=0"},
			{Name: "volOfVol", Column: "vol_of_vol", Rule: "gte=0"},
			{Name: "termStructure", Column: "term_structure", Rule: "gte=-100,lte=100"},
		},
	},
	models.KindLiquidity: {
		Kind:  models.KindLiquidity,
		Table: "pulse_liquidity",
		Fields: []FieldSpec{
			{Name: "lps", Column: "lps", Rule: "gte=-100,lte=100"},
			{Name: "etfFlow", Column: "etf_flow", Rule: ""},
			{Name: "volume", Column: "volume", Rule: "gte=0"},
			{Name: "bidAskSpread", Column: "bid_ask_spread", Rule: "gte=0"},
			{Name: "marketDepth", Column: "market_depth", Rule: "gte=0"},
			{Name: "inflows", Column: "inflows", Rule: ""},
			{Name: "outflows", Column: "outflows", Rule: ""},
			{Name: "netFlow", Column: "net_flow", Rule: ""},
		},
	},
	models.KindMomentum: {
		Kind:  models.KindMomentum,
		Table: "pulse_momentum",
		Fields: []FieldSpec{
			{Name: "mpm", Column: "mpm", Rule: "gte=0,lte=100"},
			{Name: "trendStrength", Column: "trend_strength", Rule: "gte=0,lte=100"},
			{Name: "trendDirection", Column: "trend_direction", Rule: "gte=-1,lte=1"},
			{Name: "exhaustion", Column: "exhaustion", Rule: "gte=0,lte=100"},
		},
		Annotation:       "mtfData",
		AnnotationColumn: "mtf_data",
	},
	models.KindRisk: {
		Kind:  models.KindRisk,
		Table: "pulse_risk",
		Fields: []FieldSpec{
			{Name: "rps", Column: "rps", Rule: "gte=0,lte=100"},
			{Name: "leverage", Column: "leverage", Rule: "gte=0"},
			{Name: "fundingStress", Column: "funding_stress", Rule: "gte=0,lte=100"},
			{Name: "volatilitySync", Column: "volatility_sync", Rule: "gte=0,lte=100"},
			{Name: "liquidityConcentration", Column: "liquidity_concentration", Rule: "gte=0,lte=100"},
		},
		Annotation:       "riskFactors",
		AnnotationColumn: "risk_factors",
	},
	models.KindFlow: {
		Kind:  models.KindFlow,
		Table: "pulse_flow",
		Fields: []FieldSpec{
			{Name: "fps", Column: "fps", Rule: "gte=-100,lte=100"},
			{Name: "institutional", Column: "institutional", Rule: "gte=-100,lte=100"},
			{Name: "retail", Column: "retail", Rule: "gte=-100,lte=100"},
			{Name: "sectorRotation", Column: "sector_rotation", Rule: "gte=-100,lte=100"},
			{Name: "longPositioning", Column: "long_positioning", Rule: "gte=-100,lte=100"},
			{Name: "shortPositioning", Column: "short_positioning", Rule: "gte=-100,lte=100"},
			{Name: "netPositioning", Column: "net_positioning", Rule: "gte=-100,lte=100"},
		},
	},
}

// For returns the schema of a kind.
func For(kind models.Kind) (Schema, bool) {
	s, ok := schemas[kind]
	return s, ok
}

// All returns every schema keyed by kind.
func All() map[models.Kind]Schema { return schemas }
