/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/market-exporter/exporter/internal/apierror"
	"github.com/market-exporter/exporter/model"
)

const (
	lastRunCacheKey = "export_runs:last"
	lastRunCacheTTL = time.Minute
)

// SaveRun inserts a run or updates it when a row with the same run id exists.
func (d Datasource) SaveRun(ctx context.Context, run *model.ExportRun) error {
	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO exporter.export_runs (run_id, status, steps, offers, file, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO UPDATE SET
			status = EXCLUDED.status,
			steps = EXCLUDED.steps,
			offers = EXCLUDED.offers,
			file = EXCLUDED.file,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at
	`, run.RunID, string(run.Status), run.Steps, run.Offers, run.File, run.Error, run.StartedAt, run.FinishedAt)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to save export run", err)
	}

	if d.Cache != nil {
		_ = d.Cache.Delete(ctx, lastRunCacheKey)
	}
	return nil
}

// GetLastRun returns the most recently started run. It is read through the cache.
func (d Datasource) GetLastRun(ctx context.Context) (*model.ExportRun, error) {
	if d.Cache != nil {
		var cached model.ExportRun
		if err := d.Cache.Get(ctx, lastRunCacheKey, &cached); err == nil && cached.RunID != "" {
			return &cached, nil
		}
	}

	row := d.Conn.QueryRowContext(ctx, `
		SELECT run_id, status, steps, offers, file, error, started_at, finished_at
		FROM exporter.export_runs
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "No export run found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve export run", err)
	}

	if d.Cache != nil {
		_ = d.Cache.Set(ctx, lastRunCacheKey, run, lastRunCacheTTL)
	}
	return run, nil
}

func (d Datasource) ListRuns(ctx context.Context, limit, offset int) ([]model.ExportRun, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT run_id, status, steps, offers, file, error, started_at, finished_at
		FROM exporter.export_runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve export runs", err)
	}
	defer rows.Close()

	runs := []model.ExportRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan export run", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over export runs", err)
	}
	return runs, nil
}

func scanRun(row rowScanner) (*model.ExportRun, error) {
	var (
		run        model.ExportRun
		status     string
		finishedAt sql.NullTime
	)
	if err := row.Scan(&run.RunID, &status, &run.Steps, &run.Offers, &run.File, &run.Error, &run.StartedAt, &finishedAt); err != nil {
		return nil, err
	}
	run.Status = model.JobStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
