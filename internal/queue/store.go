package queue

import (
	"context"

	"github.com/luisherrera/milltrack-agent/pkg/enums"
)

// Store is the durable persistence surface behind the queue service. Mutators
// targeting an absent id are no-ops, not errors; errors signal storage
// failures only. Implementations must preserve insertion order in ListAll.
type Store interface {
	// Enqueue appends the submission at the end of the queue.
	Enqueue(ctx context.Context, sub Submission) error
	// ListAll returns a fresh FIFO snapshot of every stored submission.
	ListAll(ctx context.Context) ([]Submission, error)
	// Remove deletes one submission by id.
	Remove(ctx context.Context, id string) error
	// UpdateStatus sets status and the error message, leaving everything else
	// untouched. An empty message clears any previous one.
	UpdateStatus(ctx context.Context, id string, status enums.SubmissionStatus, errorMessage string) error
	// IncrementRetry bumps the retry count by one.
	IncrementRetry(ctx context.Context, id string) error
	// ResetForRetry returns a submission to pending with a zeroed retry count
	// and no error message.
	ResetForRetry(ctx context.Context, id string) error
	// CountByStatus returns the number of submissions in the given status.
	CountByStatus(ctx context.Context, status enums.SubmissionStatus) (int, error)
	// ClearAll removes every submission.
	ClearAll(ctx context.Context) error
	// ClearWhere removes submissions in the given status only.
	ClearWhere(ctx context.Context, status enums.SubmissionStatus) error
}
