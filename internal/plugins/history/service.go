package history

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liurenlab/liuren/internal/apperror"
	"github.com/liurenlab/liuren/internal/plugins/divination"
)

// Service defines the business logic contract for history.
type Service interface {
	// List returns all records newest-first, decorated with relative-time
	// labels.
	List(ctx context.Context) ([]Record, error)

	// Grouped returns records bucketed by elapsed time.
	Grouped(ctx context.Context) ([]Group, error)

	Get(ctx context.Context, id string) (*Record, error)
	Add(ctx context.Context, req CreateRequest) (*Record, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Record, error)
	Delete(ctx context.Context, id string) error

	// Prune drops records older than the retention window and reports how
	// many were removed.
	Prune(ctx context.Context) (int, error)

	// Record implements divination.Recorder: saves a finished divination
	// and swallows storage failures so they never block the query result.
	Record(ctx context.Context, question, emoji string, number int, result *divination.Result)
}

// service implements Service. All mutations are read-modify-write cycles
// against a single persisted blob, so they are serialized behind mu;
// without it concurrent saves would lose updates.
type service struct {
	repo      Repository
	retention time.Duration
	mu        sync.Mutex
	now       func() time.Time
}

// NewService creates the history service. retentionDays bounds how long
// records are kept (0 disables pruning).
func NewService(repo Repository, retentionDays int) Service {
	return &service{
		repo:      repo,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// List implements Service.
func (s *service) List(ctx context.Context) ([]Record, error) {
	records, err := s.repo.Load(ctx)
	if err != nil {
		return nil, apperror.NewStorageFailure(err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})

	now := s.now()
	for i := range records {
		if records[i].Timestamp > 0 {
			records[i].RelativeTime = FormatRelative(records[i].Timestamp, now)
		}
	}
	return records, nil
}

// Grouped implements Service.
func (s *service) Grouped(ctx context.Context) ([]Group, error) {
	records, err := s.repo.Load(ctx)
	if err != nil {
		return nil, apperror.NewStorageFailure(err)
	}
	groups := GroupByTime(records, s.now())
	if groups == nil {
		groups = []Group{}
	}
	return groups, nil
}

// Get implements Service.
func (s *service) Get(ctx context.Context, id string) (*Record, error) {
	records, err := s.repo.Load(ctx)
	if err != nil {
		return nil, apperror.NewStorageFailure(err)
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, apperror.NewNotFound("history record not found")
}

// Add implements Service. New records are prepended so the stored
// insertion order is newest-first, matching how they are displayed.
func (s *service) Add(ctx context.Context, req CreateRequest) (*Record, error) {
	if req.Result == nil {
		return nil, apperror.NewBadRequest("result is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.repo.Load(ctx)
	if err != nil {
		return nil, apperror.NewStorageFailure(err)
	}

	now := s.now()
	rec := Record{
		ID:        uuid.NewString(),
		Time:      now.Format(time.RFC3339),
		Timestamp: now.UnixMilli(),
		Question:  req.Question,
		Result:    req.Result,
		Notes:     req.Notes,
		Number:    req.Number,
		Emoji:     req.Emoji,
	}

	records = append([]Record{rec}, records...)
	records = s.withinRetention(records, now)

	if err := s.repo.Save(ctx, records); err != nil {
		return nil, apperror.NewStorageFailure(err)
	}
	return &rec, nil
}

// Update implements Service.
func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.repo.Load(ctx)
	if err != nil {
		return nil, apperror.NewStorageFailure(err)
	}

	for i := range records {
		if records[i].ID != id {
			continue
		}
		if req.Question != nil {
			records[i].Question = *req.Question
		}
		if req.Notes != nil {
			records[i].Notes = *req.Notes
		}
		if req.Emoji != nil {
			records[i].Emoji = *req.Emoji
		}
		if err := s.repo.Save(ctx, records); err != nil {
			return nil, apperror.NewStorageFailure(err)
		}
		return &records[i], nil
	}

	return nil, apperror.NewNotFound("history record not found")
}

// Delete implements Service.
func (s *service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.repo.Load(ctx)
	if err != nil {
		return apperror.NewStorageFailure(err)
	}

	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return apperror.NewNotFound("history record not found")
	}

	if err := s.repo.Save(ctx, kept); err != nil {
		return apperror.NewStorageFailure(err)
	}
	return nil
}

// Prune implements Service.
func (s *service) Prune(ctx context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.repo.Load(ctx)
	if err != nil {
		return 0, apperror.NewStorageFailure(err)
	}

	kept := s.withinRetention(records, s.now())
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := s.repo.Save(ctx, kept); err != nil {
		return 0, apperror.NewStorageFailure(err)
	}
	return removed, nil
}

// Record implements divination.Recorder.
func (s *service) Record(ctx context.Context, question, emoji string, number int, result *divination.Result) {
	_, err := s.Add(ctx, CreateRequest{
		Question: question,
		Number:   number,
		Emoji:    emoji,
		Result:   result,
	})
	if err != nil {
		// A failed save must not block the divination result.
		slog.Error("failed to save divination to history",
			slog.Int("number", number),
			slog.Any("error", err),
		)
	}
}

// withinRetention drops records older than the retention window. Callers
// hold mu.
func (s *service) withinRetention(records []Record, now time.Time) []Record {
	if s.retention <= 0 {
		return records
	}
	cutoff := now.Add(-s.retention).UnixMilli()
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Timestamp > cutoff {
			kept = append(kept, r)
		}
	}
	return kept
}
