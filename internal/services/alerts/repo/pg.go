package repo

import (
	"context"
	"errors"
	"time"

	"satyanetra/internal/modkit/repokit"
	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/platform/store"
	"satyanetra/internal/services/alerts/domain"
)

type pg struct{ q repokit.Queryer }

const columns = `id, title, description, severity, kind, source_ref, raised_at, acknowledged, acknowledged_by, acknowledged_at`

// severityRank mirrors domain.Severity.Rank for the min-severity filter
const severityRank = `CASE severity WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'critical' THEN 4 ELSE 0 END`

// Append implements Storage
func (s *pg) Append(ctx context.Context, a domain.Alert) error {
	_, err := s.q.Exec(ctx, `INSERT INTO alerts (`+columns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.Title, a.Description, string(a.Severity), string(a.Kind), a.SourceRef, a.RaisedAt,
		a.Acknowledged, a.AcknowledgedBy, a.AcknowledgedAt,
	)
	return perr.FromPostgres(err, "append alert")
}

// List implements Storage
func (s *pg) List(ctx context.Context, f domain.ListFilter) ([]domain.Alert, error) {
	out, err := store.Many(ctx, s.q, scanAlert, `SELECT `+columns+` FROM alerts
		WHERE `+severityRank+` >= $1 AND (NOT $2 OR NOT acknowledged)
		ORDER BY raised_at DESC, id DESC
		LIMIT $3`, f.MinSeverity.Rank(), f.Unacknowledged, limit(f))
	return out, perr.WrapIf(err, perr.ErrorCodeDB, "list alerts")
}

// Acknowledge implements Storage
func (s *pg) Acknowledge(ctx context.Context, id, by string, at time.Time) (domain.Alert, error) {
	a, err := store.One(ctx, s.q, scanAlert, `UPDATE alerts SET
			acknowledged = true,
			acknowledged_by = CASE WHEN acknowledged THEN acknowledged_by ELSE $2 END,
			acknowledged_at = COALESCE(acknowledged_at, $3)
		WHERE id = $1
		RETURNING `+columns, id, by, at)
	if errors.Is(err, perr.ErrNotFound) {
		return domain.Alert{}, perr.NotFoundf("alert %s not found", id)
	}
	return a, perr.WrapIf(err, perr.ErrorCodeDB, "acknowledge alert")
}

func scanAlert(row store.Row) (domain.Alert, error) {
	var (
		a              domain.Alert
		severity, kind string
	)
	if err := row.Scan(&a.ID, &a.Title, &a.Description, &severity, &kind, &a.SourceRef, &a.RaisedAt,
		&a.Acknowledged, &a.AcknowledgedBy, &a.AcknowledgedAt); err != nil {
		return a, err
	}
	a.Severity, a.Kind = domain.Severity(severity), domain.Kind(kind)
	return a, nil
}
