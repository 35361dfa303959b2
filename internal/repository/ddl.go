package repository

import (
	"fmt"
	"strings"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/domain/schema"
)

// DDLStatements returns the idempotent schema setup applied at startup: the
// markets table keyed by unique symbol and one table per pulse kind with a
// foreign key to markets. Generated from the schema table.
func DDLStatements() []string {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS markets (
			id uuid PRIMARY KEY,
			name text NOT NULL,
			symbol text NOT NULL UNIQUE,
			market_type text NOT NULL,
			description text NOT NULL DEFAULT '',
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	}

	for _, k := range models.Kinds {
		s, _ := schema.For(k)

		cols := []string{
			"id uuid PRIMARY KEY",
			"market_id uuid NOT NULL REFERENCES markets(id)",
			"ts timestamptz NOT NULL",
		}
		for _, f := range s.Fields {
			cols = append(cols, f.Column+" double precision NOT NULL")
		}
		if s.Annotation != "" {
			cols = append(cols, s.AnnotationColumn+" jsonb")
		}

		stmts = append(stmts,
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.Table, strings.Join(cols, ", ")),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_market_ts ON %s (market_id, ts DESC)", s.Table, s.Table),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_ts ON %s (ts DESC)", s.Table, s.Table),
		)
	}

	return stmts
}
