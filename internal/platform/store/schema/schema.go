// Package schema holds the DDL for the Postgres tables and the ClickHouse trend table
package schema

import (
	"context"
	_ "embed"
	"strings"

	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/platform/store"
)

//go:embed postgres.sql
var postgres string

//go:embed clickhouse.sql
var clickhouse string

// Statements splits a DDL document on semicolons, dropping blanks
func Statements(doc string) []string {
	var out []string
	for s := range strings.SplitSeq(doc, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ApplyPG creates the analyses and alerts tables if missing, in one transaction
func ApplyPG(ctx context.Context, db store.TxRunner) error {
	err := db.Tx(ctx, func(q store.RowQuerier) error {
		for _, stmt := range Statements(postgres) {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	return perr.WrapIf(err, perr.ErrorCodeDB, "apply postgres schema")
}

// ApplyCH creates the trend table if missing
func ApplyCH(ctx context.Context, ch store.Clickhouse) error {
	for _, stmt := range Statements(clickhouse) {
		if err := ch.Exec(ctx, stmt); err != nil {
			return perr.Wrap(err, perr.ErrorCodeDB, "apply clickhouse schema")
		}
	}
	return nil
}
