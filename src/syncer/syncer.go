package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"bambucloud/src/logging"
	"bambucloud/src/model"
)

// TaskSource is the slice of the cloud client the syncer needs.
type TaskSource interface {
	GetTasks(ctx context.Context, onlyDevice string) ([]model.Task, error)
}

// TaskSink is the slice of the cache store the syncer needs.
type TaskSink interface {
	UpsertTasks(ctx context.Context, tasks []model.Task) (int64, error)
}

// Syncer pulls the account's task listing from the cloud and mirrors
// it into the local cache.
type Syncer struct {
	source   TaskSource
	sink     TaskSink
	deviceID string

	tasksFetched  metric.Float64Counter
	tasksUpserted metric.Float64Counter
	syncFailures  metric.Float64Counter
}

// Result reports what one sync pass did.
type Result struct {
	Fetched  int
	Upserted int64
	Took     time.Duration
}

func New(source TaskSource, sink TaskSink, deviceID string) *Syncer {
	s := &Syncer{
		source:   source,
		sink:     sink,
		deviceID: deviceID,
	}
	s.tasksFetched, _ = logging.InitializeFloatCounter("sync_tasks_fetched", "Task records fetched from the cloud", "Task")
	s.tasksUpserted, _ = logging.InitializeFloatCounter("sync_tasks_upserted", "Task records written to the cache", "Task")
	s.syncFailures, _ = logging.InitializeFloatCounter("sync_failures", "Sync passes that ended in an error", "Sync")
	return s
}

// Sync runs one fetch-and-upsert pass.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	start := time.Now()

	tasks, err := s.source.GetTasks(ctx, s.deviceID)
	if err != nil {
		s.count(ctx, s.syncFailures, 1)
		return Result{}, fmt.Errorf("failed to fetch task listing: %w", err)
	}
	s.count(ctx, s.tasksFetched, float64(len(tasks)))

	written, err := s.sink.UpsertTasks(ctx, tasks)
	if err != nil {
		s.count(ctx, s.syncFailures, 1)
		return Result{Fetched: len(tasks)}, fmt.Errorf("failed to cache task listing: %w", err)
	}
	s.count(ctx, s.tasksUpserted, float64(written))

	res := Result{Fetched: len(tasks), Upserted: written, Took: time.Since(start)}
	logging.Log(fmt.Sprintf("Sync pass done: fetched %d, wrote %d in %s", res.Fetched, res.Upserted, res.Took.Truncate(time.Millisecond)), slog.LevelInfo)
	return res, nil
}

// count tolerates nil counters so a failed metric setup never breaks a
// sync pass.
func (s *Syncer) count(ctx context.Context, c metric.Float64Counter, v float64) {
	if c != nil {
		c.Add(ctx, v)
	}
}
