// Copyright (c) 2026 Khaled Abbas
//
// This source code is licensed under the Business Source License 1.1.
//
// Change Date: 4 years after the first public release of this version.
// Change License: MIT
//
// On the Change Date, this version of the code automatically converts
// to the MIT License. Prior to that date, use is subject to the
// Additional Use Grant. See the LICENSE file for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"bambucloud/src/logging"
	"bambucloud/src/model"
)

// TaskStore is a local Postgres cache of cloud task records. The cloud
// only keeps a bounded window of history, the cache keeps everything
// it has ever seen.
type TaskStore struct {
	db *sql.DB
}

// Config carries the connection settings for Open.
type Config struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     string
	SSLMode  string
}

// Open connects to Postgres and ensures the cache schema exists.
func Open(ctx context.Context, cfg Config) (*TaskStore, error) {
	if cfg.SSLMode == "" {
		cfg.SSLMode = "require"
	}
	db, err := sql.Open("postgres", fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=%s",
		cfg.User, cfg.Password, cfg.Name, cfg.Host, cfg.Port, cfg.SSLMode))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &TaskStore{db: db}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *TaskStore) init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS TASKS (
			id           BIGINT PRIMARY KEY,
			design_id    BIGINT NOT NULL,
			design_title TEXT NOT NULL,
			title        TEXT NOT NULL,
			cover        TEXT NOT NULL,
			status       INT NOT NULL,
			device_id    TEXT NOT NULL,
			device_name  TEXT NOT NULL,
			device_model TEXT NOT NULL,
			bed_type     TEXT NOT NULL,
			mode         TEXT NOT NULL,
			weight       DOUBLE PRECISION NOT NULL,
			length       BIGINT NOT NULL,
			cost_time    BIGINT NOT NULL,
			plate_name   TEXT NOT NULL,
			start_time   TIMESTAMPTZ,
			end_time     TIMESTAMPTZ,
			synced_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}
	return nil
}

func (s *TaskStore) Close() error {
	return s.db.Close()
}

// UpsertTasks writes a batch of cloud records into the cache and
// returns how many rows were inserted or updated. Records are keyed by
// the vendor task id, so re-syncing the same window is idempotent.
func (s *TaskStore) UpsertTasks(ctx context.Context, tasks []model.Task) (int64, error) {
	if len(tasks) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO TASKS (id, design_id, design_title, title, cover, status,
			device_id, device_name, device_model, bed_type, mode,
			weight, length, cost_time, plate_name, start_time, end_time, synced_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			title = EXCLUDED.title,
			cover = EXCLUDED.cover,
			weight = EXCLUDED.weight,
			length = EXCLUDED.length,
			cost_time = EXCLUDED.cost_time,
			end_time = EXCLUDED.end_time,
			synced_at = NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	var written int64
	for _, t := range tasks {
		res, err := stmt.ExecContext(ctx, t.ID, t.DesignID, t.DesignTitle, t.Title, t.Cover, t.Status,
			t.DeviceID, t.DeviceName, t.DeviceModel, t.BedType, t.Mode,
			t.Weight, t.Length, t.CostTime, t.PlateName, nullTime(t.StartTime), nullTime(t.EndTime))
		if err != nil {
			return written, fmt.Errorf("failed to upsert task %d: %w", t.ID, err)
		}
		// Count the statement when the driver cannot report affected rows.
		if n, err := res.RowsAffected(); err == nil {
			written += n
		} else {
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}

	logging.Log(fmt.Sprintf("Cached %d task records", written), slog.LevelDebug)
	return written, nil
}

// RecentTasks returns the latest cached records ordered by start time.
// Only the columns the cache carries are populated.
func (s *TaskStore) RecentTasks(ctx context.Context, limit int) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, design_id, design_title, title, cover, status,
			device_id, device_name, device_model, bed_type, mode,
			weight, length, cost_time, plate_name, start_time, end_time
		FROM TASKS
		ORDER BY start_time DESC NULLS LAST
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		var start, end sql.NullTime
		if err := rows.Scan(&t.ID, &t.DesignID, &t.DesignTitle, &t.Title, &t.Cover, &t.Status,
			&t.DeviceID, &t.DeviceName, &t.DeviceModel, &t.BedType, &t.Mode,
			&t.Weight, &t.Length, &t.CostTime, &t.PlateName, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		t.StartTime = start.Time
		t.EndTime = end.Time
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GlobalStats summarizes the whole cache. StatusCounts is keyed by
// the vendor's numeric status code, stringified the way JSON object
// keys are.
type GlobalStats struct {
	TotalTasks      int            `json:"total_tasks"`
	Devices         int            `json:"devices"`
	StatusCounts    map[string]int `json:"status_counts"`
	WeightSumGrams  float64        `json:"weight_sum_grams"`
	LengthSumMM     int64          `json:"length_sum_mm"`
	PrintTimeSumSec int64          `json:"print_time_sum_seconds"`
	TasksLastDay    int            `json:"tasks_last_24h"`
}

// Stats computes cache-wide aggregates in one round trip.
func (s *TaskStore) Stats(ctx context.Context) (GlobalStats, error) {
	var gs GlobalStats
	var rawCounts []byte

	// Combined query for better performance
	query := `
		WITH totals AS (
			SELECT
				COUNT(*) as total,
				COUNT(DISTINCT device_id) as devices,
				COALESCE(SUM(weight), 0) as weight_sum,
				COALESCE(SUM(length), 0) as length_sum,
				COALESCE(SUM(cost_time), 0) as time_sum
			FROM TASKS
		),
		recent AS (
			SELECT COUNT(*) as last_day
			FROM TASKS
			WHERE end_time > NOW() - INTERVAL '24 hours'
		),
		by_status AS (
			SELECT COALESCE(json_object_agg(status, n), '{}'::json) as counts
			FROM (SELECT status, COUNT(*) as n FROM TASKS GROUP BY status) s
		)
		SELECT * FROM totals, recent, by_status;
	`

	err := s.db.QueryRowContext(ctx, query).Scan(
		&gs.TotalTasks, &gs.Devices, &gs.WeightSumGrams,
		&gs.LengthSumMM, &gs.PrintTimeSumSec, &gs.TasksLastDay,
		&rawCounts,
	)
	if err != nil {
		return GlobalStats{}, fmt.Errorf("failed to query cache stats: %w", err)
	}

	gs.StatusCounts, err = parseStatusCounts(rawCounts)
	if err != nil {
		return GlobalStats{}, err
	}
	return gs, nil
}

func parseStatusCounts(raw []byte) (map[string]int, error) {
	counts := map[string]int{}
	if len(raw) == 0 {
		return counts, nil
	}
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode status counts: %w", err)
	}
	if counts == nil {
		counts = map[string]int{}
	}
	return counts, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
