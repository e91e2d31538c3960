package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/liurenlab/liuren/internal/apperror"
	"github.com/liurenlab/liuren/internal/plugins/divination"
)

// --- Mock Repository ---

// mockRepo implements Repository for testing.
type mockRepo struct {
	loadFn func(ctx context.Context) ([]Record, error)
	saveFn func(ctx context.Context, records []Record) error

	// saved captures the last list passed to Save when saveFn is nil.
	saved []Record
}

func (m *mockRepo) Load(ctx context.Context) ([]Record, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return []Record{}, nil
}

func (m *mockRepo) Save(ctx context.Context, records []Record) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, records)
	}
	m.saved = records
	return nil
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// newTestService builds a history service with a fixed clock.
func newTestService(repo Repository, retentionDays int) *service {
	return &service{
		repo:      repo,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       func() time.Time { return groupNow },
	}
}

// okResult is a minimal successful divination result.
func okResult() *divination.Result {
	return &divination.Result{Code: 0, Data: &divination.ResultData{DivinationNumber: "23"}}
}

// --- Add Tests ---

func TestAdd_AssignsIdentityAndPrepends(t *testing.T) {
	existing := recordAt("existing", 2*time.Hour)
	repo := &mockRepo{
		loadFn: func(ctx context.Context) ([]Record, error) {
			return []Record{existing}, nil
		},
	}
	svc := newTestService(repo, 0)

	rec, err := svc.Add(context.Background(), CreateRequest{
		Question: "should I?",
		Number:   23,
		Result:   okResult(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.ID == "" {
		t.Error("expected a generated id")
	}
	if rec.Timestamp != groupNow.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", rec.Timestamp, groupNow.UnixMilli())
	}
	if rec.Time == "" {
		t.Error("expected an ISO time string")
	}

	if len(repo.saved) != 2 {
		t.Fatalf("saved %d records, want 2", len(repo.saved))
	}
	if repo.saved[0].ID != rec.ID || repo.saved[1].ID != "existing" {
		t.Errorf("new record must be prepended: %+v", repo.saved)
	}
}

func TestAdd_RequiresResult(t *testing.T) {
	svc := newTestService(&mockRepo{}, 0)
	_, err := svc.Add(context.Background(), CreateRequest{Question: "?", Number: 1})
	assertAppError(t, err, 400)
}

func TestAdd_AppliesRetention(t *testing.T) {
	repo := &mockRepo{
		loadFn: func(ctx context.Context) ([]Record, error) {
			return []Record{recordAt("stale", 40*24*time.Hour)}, nil
		},
	}
	svc := newTestService(repo, 30)

	if _, err := svc.Add(context.Background(), CreateRequest{Number: 1, Result: okResult()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("saved %d records, want 1 (stale record pruned)", len(repo.saved))
	}
	if repo.saved[0].ID == "stale" {
		t.Error("stale record survived retention")
	}
}

func TestAdd_SaveFailureIsStorageFailure(t *testing.T) {
	repo := &mockRepo{
		saveFn: func(ctx context.Context, records []Record) error {
			return fmt.Errorf("redis down")
		},
	}
	svc := newTestService(repo, 0)

	_, err := svc.Add(context.Background(), CreateRequest{Number: 1, Result: okResult()})
	assertAppError(t, err, 500)
}

// --- Update / Delete Tests ---

func TestUpdate_PartialFields(t *testing.T) {
	repo := &mockRepo{
		loadFn: func(ctx context.Context) ([]Record, error) {
			return []Record{{ID: "r1", Question: "old", Notes: "keep", Timestamp: 1}}, nil
		},
	}
	svc := newTestService(repo, 0)

	question := "new question"
	rec, err := svc.Update(context.Background(), "r1", UpdateRequest{Question: &question})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Question != "new question" {
		t.Errorf("question = %q", rec.Question)
	}
	if rec.Notes != "keep" {
		t.Errorf("nil fields must be left unchanged, notes = %q", rec.Notes)
	}
	if len(repo.saved) != 1 {
		t.Errorf("expected the full list to be rewritten")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(&mockRepo{}, 0)
	_, err := svc.Update(context.Background(), "missing", UpdateRequest{})
	assertAppError(t, err, 404)
}

func TestDelete(t *testing.T) {
	repo := &mockRepo{
		loadFn: func(ctx context.Context) ([]Record, error) {
			return []Record{{ID: "a", Timestamp: 1}, {ID: "b", Timestamp: 2}}, nil
		},
	}
	svc := newTestService(repo, 0)

	if err := svc.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.saved) != 1 || repo.saved[0].ID != "b" {
		t.Errorf("saved = %+v, want only b", repo.saved)
	}

	assertAppError(t, svc.Delete(context.Background(), "missing"), 404)
}

// --- List / Grouped Tests ---

func TestList_SortsAndDecorates(t *testing.T) {
	repo := &mockRepo{
		loadFn: func(ctx context.Context) ([]Record, error) {
			return []Record{
				recordAt("older", 3*time.Hour),
				recordAt("newer", 5*time.Minute),
			}, nil
		},
	}
	svc := newTestService(repo, 0)

	records, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].ID != "newer" || records[1].ID != "older" {
		t.Errorf("records not newest-first: %+v", records)
	}
	if records[0].RelativeTime != "5 minutes ago" {
		t.Errorf("relative time = %q", records[0].RelativeTime)
	}
}

func TestGrouped_LoadFailure(t *testing.T) {
	repo := &mockRepo{
		loadFn: func(ctx context.Context) ([]Record, error) {
			return nil, fmt.Errorf("blob corrupted")
		},
	}
	svc := newTestService(repo, 0)

	_, err := svc.Grouped(context.Background())
	assertAppError(t, err, 500)
}

// --- Prune Tests ---

func TestPrune(t *testing.T) {
	repo := &mockRepo{
		loadFn: func(ctx context.Context) ([]Record, error) {
			return []Record{
				recordAt("fresh", time.Hour),
				recordAt("stale", 31*24*time.Hour),
			}, nil
		},
	}
	svc := newTestService(repo, 30)

	removed, err := svc.Prune(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(repo.saved) != 1 || repo.saved[0].ID != "fresh" {
		t.Errorf("saved = %+v, want only fresh", repo.saved)
	}
}

func TestPrune_DisabledRetention(t *testing.T) {
	repo := &mockRepo{
		loadFn: func(ctx context.Context) ([]Record, error) {
			t.Fatal("prune with retention 0 must not touch the store")
			return nil, nil
		},
	}
	svc := newTestService(repo, 0)

	removed, err := svc.Prune(context.Background())
	if err != nil || removed != 0 {
		t.Errorf("removed = %d, err = %v", removed, err)
	}
}

// --- Recorder Tests ---

func TestRecord_SwallowsStorageFailure(t *testing.T) {
	repo := &mockRepo{
		saveFn: func(ctx context.Context, records []Record) error {
			return fmt.Errorf("disk full")
		},
	}
	svc := newTestService(repo, 0)

	// Must not panic or surface the failure.
	svc.Record(context.Background(), "q", "", 23, okResult())
}

func TestRecord_Saves(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, 0)

	svc.Record(context.Background(), "will it rain", "🌧", 7, okResult())

	if len(repo.saved) != 1 {
		t.Fatalf("saved %d records, want 1", len(repo.saved))
	}
	rec := repo.saved[0]
	if rec.Question != "will it rain" || rec.Number != 7 || rec.Emoji != "🌧" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Result == nil || rec.Result.Code != 0 {
		t.Errorf("result not carried: %+v", rec.Result)
	}
}
