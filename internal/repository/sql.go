package repository

import (
	"fmt"
	"strings"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/domain/schema"
)

// SQL text is generated from the schema table so the six per-kind tables share
// one code path.

func pulseInsertSQL(s schema.Schema) string {
	cols := []string{"id", "market_id", "ts"}
	for _, f := range s.Fields {
		cols = append(cols, f.Column)
	}
	if s.Annotation != "" {
		cols = append(cols, s.AnnotationColumn)
	}

	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.Table, strings.Join(cols, ", "), strings.Join(ph, ", "))
}

func pulseListSQL(s schema.Schema, byMarket bool) string {
	cols := []string{"p.id", "p.market_id", "p.ts"}
	for _, f := range s.Fields {
		cols = append(cols, "p."+f.Column)
	}
	if s.Annotation != "" {
		cols = append(cols, "p."+s.AnnotationColumn)
	}
	cols = append(cols, "m.name", "m.symbol")

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s p JOIN markets m ON m.id = p.market_id",
		strings.Join(cols, ", "), s.Table)

	n := 1
	if byMarket {
		fmt.Fprintf(&b, " WHERE p.market_id = $%d", n)
		n++
	}
	// Secondary sort on id keeps ordering deterministic when timestamps collide.
	fmt.Fprintf(&b, " ORDER BY p.ts DESC, p.id DESC LIMIT $%d OFFSET $%d", n, n+1)
	return b.String()
}

func marketListSQL() string {
	var b strings.Builder
	b.WriteString("SELECT m.id, m.name, m.symbol, m.market_type, m.description, m.created_at")
	for _, k := range models.Kinds {
		s, _ := schema.For(k)
		fmt.Fprintf(&b, ", (SELECT count(*) FROM %s p WHERE p.market_id = m.id) AS %s_count", s.Table, k)
	}
	b.WriteString(" FROM markets m ORDER BY m.name ASC")
	return b.String()
}
