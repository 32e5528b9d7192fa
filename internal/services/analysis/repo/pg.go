package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"satyanetra/internal/core/content"
	"satyanetra/internal/core/scoring"
	"satyanetra/internal/modkit/repokit"
	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/platform/store"
	"satyanetra/internal/services/analysis/domain"
)

type pg struct{ q repokit.Queryer }

// Put implements Storage
func (s *pg) Put(ctx context.Context, r domain.Record) error {
	item, err := json.Marshal(r.Item)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode item")
	}
	var result []byte
	if r.Result != nil {
		if result, err = json.Marshal(r.Result); err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "encode result")
		}
	}
	var image []byte
	if r.Item.Image != nil {
		image = r.Item.Image.Data
	}

	_, err = s.q.Exec(ctx, `INSERT INTO analyses
		(id, kind, status, source_handle, submitted_at, finished_at, attempts, revision, reason, result, item, image_data)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			finished_at = EXCLUDED.finished_at,
			attempts = EXCLUDED.attempts,
			revision = EXCLUDED.revision,
			reason = EXCLUDED.reason,
			result = EXCLUDED.result`,
		r.ID, string(r.Kind), string(r.Status), r.SourceHandle, r.SubmittedAt, r.FinishedAt,
		r.Attempts, r.Revision, r.Reason, result, item, image,
	)
	return perr.FromPostgres(err, "upsert analysis")
}

// Get implements Storage
func (s *pg) Get(ctx context.Context, id string) (domain.Record, error) {
	rec, err := store.One(ctx, s.q, scanRecord, `SELECT
		id, kind, status, source_handle, submitted_at, finished_at, attempts, revision, reason, result, item, image_data
		FROM analyses WHERE id = $1`, id)
	if errors.Is(err, perr.ErrNotFound) {
		return domain.Record{}, perr.NotFoundf("analysis %s not found", id)
	}
	return rec, perr.WrapIf(err, perr.ErrorCodeDB, "get analysis")
}

// Counts implements Storage
func (s *pg) Counts(ctx context.Context) (domain.Counts, error) {
	var c domain.Counts
	rows, err := s.q.Query(ctx, `SELECT status, count(*) FROM analyses GROUP BY status`)
	if err != nil {
		return c, perr.Wrap(err, perr.ErrorCodeDB, "count analyses")
	}
	defer rows.Close()
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return c, perr.Wrap(err, perr.ErrorCodeDB, "scan counts")
		}
		switch domain.Status(st) {
		case domain.StatusPending:
			c.Pending = n
		case domain.StatusCompleted:
			c.Completed = n
		case domain.StatusFailed:
			c.Failed = n
		}
	}
	return c, rows.Err()
}

func scanRecord(row store.Row) (domain.Record, error) {
	var (
		r                   domain.Record
		kind, status        string
		finished            *time.Time
		result, item, image []byte
	)
	if err := row.Scan(&r.ID, &kind, &status, &r.SourceHandle, &r.SubmittedAt, &finished,
		&r.Attempts, &r.Revision, &r.Reason, &result, &item, &image); err != nil {
		return r, err
	}
	r.Kind, r.Status, r.FinishedAt = content.Kind(kind), domain.Status(status), finished
	if len(result) > 0 {
		var res scoring.Result
		if err := json.Unmarshal(result, &res); err != nil {
			return r, perr.Wrap(err, perr.ErrorCodeJSON, "decode result")
		}
		r.Result = &res
	}
	if len(item) > 0 {
		if err := json.Unmarshal(item, &r.Item); err != nil {
			return r, perr.Wrap(err, perr.ErrorCodeJSON, "decode item")
		}
	}
	if r.Item.Image != nil {
		r.Item.Image.Data = image
	}
	return r, nil
}
