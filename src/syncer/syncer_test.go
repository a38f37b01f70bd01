package syncer

import (
	"context"
	"errors"
	"testing"

	"bambucloud/src/model"
)

type stubSource struct {
	tasks      []model.Task
	err        error
	lastDevice string
}

func (s *stubSource) GetTasks(_ context.Context, onlyDevice string) ([]model.Task, error) {
	s.lastDevice = onlyDevice
	return s.tasks, s.err
}

type stubSink struct {
	got []model.Task
	err error
}

func (s *stubSink) UpsertTasks(_ context.Context, tasks []model.Task) (int64, error) {
	s.got = tasks
	return int64(len(tasks)), s.err
}

func TestSyncPassesDeviceFilter(t *testing.T) {
	source := &stubSource{tasks: []model.Task{{ID: 1}, {ID: 2}}}
	sink := &stubSink{}

	res, err := New(source, sink, "00M00A380100123").Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if source.lastDevice != "00M00A380100123" {
		t.Errorf("device filter = %q", source.lastDevice)
	}
	if res.Fetched != 2 || res.Upserted != 2 {
		t.Errorf("result = %+v", res)
	}
	if len(sink.got) != 2 {
		t.Errorf("sink received %d tasks", len(sink.got))
	}
}

func TestSyncFetchFailure(t *testing.T) {
	source := &stubSource{err: errors.New("cloud unreachable")}
	sink := &stubSink{}

	if _, err := New(source, sink, "").Sync(context.Background()); err == nil {
		t.Fatal("expected fetch error to surface")
	}
	if sink.got != nil {
		t.Error("sink must not be written on fetch failure")
	}
}

func TestSyncSinkFailure(t *testing.T) {
	source := &stubSource{tasks: []model.Task{{ID: 1}}}
	sink := &stubSink{err: errors.New("database down")}

	res, err := New(source, sink, "").Sync(context.Background())
	if err == nil {
		t.Fatal("expected sink error to surface")
	}
	if res.Fetched != 1 {
		t.Errorf("fetched = %d, want 1", res.Fetched)
	}
}

func TestSyncEmptyListing(t *testing.T) {
	source := &stubSource{}
	sink := &stubSink{}

	res, err := New(source, sink, "").Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Fetched != 0 || res.Upserted != 0 {
		t.Errorf("result = %+v", res)
	}
}
