package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/luisherrera/milltrack-agent/internal/backend"
	"github.com/luisherrera/milltrack-agent/internal/queue"
	"github.com/luisherrera/milltrack-agent/pkg/enums"
	"github.com/luisherrera/milltrack-agent/pkg/logger"
	"github.com/luisherrera/milltrack-agent/pkg/metrics"
)

// Result summarizes one ProcessQueue invocation. It is handed to the caller
// and never persisted.
type Result struct {
	Successful []string     `json:"successful"`
	Failed     []FailedItem `json:"failed"`
}

type FailedItem struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

func emptyResult() Result {
	return Result{Successful: []string{}, Failed: []FailedItem{}}
}

// Connectivity is the reachability gate consulted before a cycle.
type Connectivity interface {
	Online() bool
}

// Sessions is the authentication gate consulted before a cycle.
type Sessions interface {
	IsAuthenticated(ctx context.Context) bool
}

// Engine drains the submission queue against the backend, one item at a time,
// in enqueue order. It never returns an error: per-item failures are isolated
// and folded into the Result.
type Engine struct {
	queue     *queue.Service
	submitter backend.Submitter
	sessions  Sessions
	conn      Connectivity
	logg      *logger.Logger
	met       *metrics.QueueMetrics

	inFlight atomic.Bool
}

type Params struct {
	Queue     *queue.Service
	Submitter backend.Submitter
	Sessions  Sessions
	Conn      Connectivity
	Logger    *logger.Logger
	Metrics   *metrics.QueueMetrics
}

func New(params Params) *Engine {
	return &Engine{
		queue:     params.Queue,
		submitter: params.Submitter,
		sessions:  params.Sessions,
		conn:      params.Conn,
		logg:      params.Logger,
		met:       params.Metrics,
	}
}

// ProcessQueue runs one sync cycle over the snapshot taken at entry. Items
// enqueued during the cycle wait for the next one. A cycle already in flight,
// an offline gate, or a missing session all short-circuit with an empty
// result; none of them is an error. The trigger label only feeds logs and
// metrics.
func (e *Engine) ProcessQueue(ctx context.Context, trigger string) Result {
	if !e.inFlight.CompareAndSwap(false, true) {
		e.logg.Debug(ctx, "sync cycle already in flight, ignoring trigger")
		return emptyResult()
	}
	defer e.inFlight.Store(false)

	if e.conn != nil && !e.conn.Online() {
		return emptyResult()
	}
	if e.sessions != nil && !e.sessions.IsAuthenticated(ctx) {
		return emptyResult()
	}

	items := e.queue.Snapshot(ctx)
	result := emptyResult()
	started := time.Now()

	for _, item := range items {
		if item.Status == enums.SubmissionStatusFailed {
			// Exhausted items wait for an explicit operator retry.
			continue
		}
		e.processItem(ctx, item, &result)
	}

	e.met.IncCycle(trigger)
	e.met.ObserveCycleDuration(time.Since(started))

	ctx = e.logg.WithFields(ctx, map[string]any{
		"trigger":   trigger,
		"attempted": len(result.Successful) + len(result.Failed),
		"succeeded": len(result.Successful),
		"failed":    len(result.Failed),
	})
	e.logg.Info(ctx, "sync cycle completed")
	return result
}

func (e *Engine) processItem(ctx context.Context, item queue.Submission, result *Result) {
	itemCtx := e.logg.WithFields(ctx, map[string]any{
		"submission_id": item.ID,
		"form_type":     item.FormType,
		"target_table":  item.TableName,
		"retry_count":   item.RetryCount,
	})

	e.queue.MarkSyncing(ctx, item.ID)

	err := e.submitter.Submit(ctx, item.TableName, item.Payload, backend.Scope{
		FactoryID: item.FactoryID,
		UserID:    item.UserID,
	})

	switch {
	case err == nil:
		e.queue.Remove(ctx, item.ID)
		e.met.IncSubmission("delivered")
		result.Successful = append(result.Successful, item.ID)
		e.logg.Info(itemCtx, "submission delivered")

	case backend.IsDuplicate(err):
		// The record already landed upstream on an attempt whose ack was
		// lost. Same outcome as delivery.
		e.queue.Remove(ctx, item.ID)
		e.met.IncSubmission("duplicate")
		result.Successful = append(result.Successful, item.ID)
		e.logg.Info(itemCtx, "submission already present upstream, collapsed to success")

	case item.RetryCount+1 >= item.MaxRetries:
		e.queue.MarkFailed(ctx, item.ID, err.Error())
		result.Failed = append(result.Failed, FailedItem{ID: item.ID, Error: err.Error()})
		e.logg.Warn(e.logg.WithField(itemCtx, "error", err.Error()), "submission failed permanently")

	default:
		e.queue.RecordRetry(ctx, item.ID, err.Error())
		e.logg.Warn(e.logg.WithField(itemCtx, "error", err.Error()), "submission delivery failed, will retry")
	}
}
