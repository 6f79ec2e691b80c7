package queue

import (
	"context"
	"time"

	"github.com/luisherrera/milltrack-agent/pkg/enums"
	"github.com/luisherrera/milltrack-agent/pkg/events"
	"github.com/luisherrera/milltrack-agent/pkg/logger"
	"github.com/luisherrera/milltrack-agent/pkg/metrics"
)

// Service is the queue surface the rest of the agent talks to. It wraps a
// Store with change notifications, metrics, and the swallow-storage-errors
// contract: a worker submitting a form must never see a local storage fault.
type Service struct {
	store      Store
	bus        *events.Bus
	logg       *logger.Logger
	met        *metrics.QueueMetrics
	maxRetries int
	now        func() time.Time
}

type ServiceParams struct {
	Store      Store
	Bus        *events.Bus
	Logger     *logger.Logger
	Metrics    *metrics.QueueMetrics
	MaxRetries int
}

func NewService(params ServiceParams) *Service {
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Service{
		store:      params.Store,
		bus:        params.Bus,
		logg:       params.Logger,
		met:        params.Metrics,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// Enqueue appends a new pending submission and returns its id. Storage
// failures are logged and counted but never propagated: the submission is
// lost, the worker's flow is not.
func (s *Service) Enqueue(ctx context.Context, input EnqueueInput) string {
	if input.MaxRetries <= 0 {
		input.MaxRetries = s.maxRetries
	}
	sub := NewSubmission(input, s.now())

	if err := s.store.Enqueue(ctx, sub); err != nil {
		s.met.IncEnqueueDrop()
		ctx = s.logg.WithFields(ctx, map[string]any{
			"submission_id": sub.ID,
			"form_type":     sub.FormType,
			"target_table":  sub.TableName,
		})
		s.logg.Error(ctx, "enqueue dropped on storage failure", err)
		return sub.ID
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"submission_id": sub.ID,
		"form_type":     sub.FormType,
		"target_table":  sub.TableName,
	})
	s.logg.Info(logCtx, "submission queued")
	s.publishCounts(ctx)
	return sub.ID
}

// Snapshot returns the FIFO queue contents. Storage failures degrade to an
// empty snapshot.
func (s *Service) Snapshot(ctx context.Context) []Submission {
	subs, err := s.store.ListAll(ctx)
	if err != nil {
		s.logg.Error(ctx, "reading queue snapshot failed, treating as empty", err)
		return nil
	}
	return subs
}

// MarkSyncing flags an item as in delivery.
func (s *Service) MarkSyncing(ctx context.Context, id string) {
	if err := s.store.UpdateStatus(ctx, id, enums.SubmissionStatusSyncing, ""); err != nil {
		s.logg.Error(s.logg.WithSubmissionID(ctx, id), "marking submission syncing failed", err)
	}
	s.publishCounts(ctx)
}

// RecordRetry returns an item to pending with the delivery error noted and the
// retry count bumped.
func (s *Service) RecordRetry(ctx context.Context, id, errorMessage string) {
	if err := s.store.IncrementRetry(ctx, id); err != nil {
		s.logg.Error(s.logg.WithSubmissionID(ctx, id), "incrementing retry failed", err)
	}
	if err := s.store.UpdateStatus(ctx, id, enums.SubmissionStatusPending, errorMessage); err != nil {
		s.logg.Error(s.logg.WithSubmissionID(ctx, id), "requeueing submission failed", err)
	}
	s.met.IncSubmission("retried")
	s.publishCounts(ctx)
}

// MarkFailed parks an item in the failed state for operator review.
func (s *Service) MarkFailed(ctx context.Context, id, errorMessage string) {
	if err := s.store.IncrementRetry(ctx, id); err != nil {
		s.logg.Error(s.logg.WithSubmissionID(ctx, id), "incrementing retry failed", err)
	}
	if err := s.store.UpdateStatus(ctx, id, enums.SubmissionStatusFailed, errorMessage); err != nil {
		s.logg.Error(s.logg.WithSubmissionID(ctx, id), "marking submission failed errored", err)
	}
	s.met.IncSubmission("failed")
	s.publishCounts(ctx)
}

// Remove drops a delivered (or duplicate-confirmed) item.
func (s *Service) Remove(ctx context.Context, id string) {
	if err := s.store.Remove(ctx, id); err != nil {
		s.logg.Error(s.logg.WithSubmissionID(ctx, id), "removing submission failed", err)
	}
	s.publishCounts(ctx)
}

// RetryFailed resets every failed item to pending with a zeroed retry count
// and returns how many were reset.
func (s *Service) RetryFailed(ctx context.Context) int {
	reset := 0
	for _, sub := range s.Snapshot(ctx) {
		if sub.Status != enums.SubmissionStatusFailed {
			continue
		}
		if err := s.store.ResetForRetry(ctx, sub.ID); err != nil {
			s.logg.Error(s.logg.WithSubmissionID(ctx, sub.ID), "resetting failed submission errored", err)
			continue
		}
		reset++
	}
	if reset > 0 {
		s.logg.Info(s.logg.WithField(ctx, "count", reset), "failed submissions reset for retry")
	}
	s.publishCounts(ctx)
	return reset
}

// ClearFailed removes failed items only.
func (s *Service) ClearFailed(ctx context.Context) {
	if err := s.store.ClearWhere(ctx, enums.SubmissionStatusFailed); err != nil {
		s.logg.Error(ctx, "clearing failed submissions errored", err)
	}
	s.publishCounts(ctx)
}

// ClearAll empties the queue.
func (s *Service) ClearAll(ctx context.Context) {
	if err := s.store.ClearAll(ctx); err != nil {
		s.logg.Error(ctx, "clearing queue errored", err)
	}
	s.publishCounts(ctx)
}

// PendingCount counts pending plus syncing items, the set a sync cycle would
// pick up.
func (s *Service) PendingCount(ctx context.Context) int {
	return s.countOrZero(ctx, enums.SubmissionStatusPending) +
		s.countOrZero(ctx, enums.SubmissionStatusSyncing)
}

// FailedCount counts items parked in the failed state.
func (s *Service) FailedCount(ctx context.Context) int {
	return s.countOrZero(ctx, enums.SubmissionStatusFailed)
}

// HasPending reports whether a sync cycle has anything to do.
func (s *Service) HasPending(ctx context.Context) bool {
	return s.PendingCount(ctx) > 0
}

// Counts returns the current snapshot published to subscribers.
func (s *Service) Counts(ctx context.Context) events.Counts {
	return events.Counts{
		PendingCount: s.PendingCount(ctx),
		FailedCount:  s.FailedCount(ctx),
	}
}

func (s *Service) countOrZero(ctx context.Context, status enums.SubmissionStatus) int {
	count, err := s.store.CountByStatus(ctx, status)
	if err != nil {
		s.logg.Error(ctx, "counting submissions failed, treating as zero", err)
		return 0
	}
	return count
}

func (s *Service) publishCounts(ctx context.Context) {
	counts := s.Counts(ctx)
	if s.bus != nil {
		s.bus.Publish(counts)
	}
	s.met.SetDepth(string(enums.SubmissionStatusPending), counts.PendingCount)
	s.met.SetDepth(string(enums.SubmissionStatusFailed), counts.FailedCount)
}
