package queue

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luisherrera/milltrack-agent/pkg/enums"
)

const DefaultMaxRetries = 5

// Submission is one queued write attempt. Payload, FormType, TableName and the
// scope fields are fixed at creation; only the bookkeeping fields (status,
// retry count, error message) change afterwards. The JSON tags are the
// persisted record format shared with the UI layer and the redis store.
type Submission struct {
	ID           string                 `json:"id"`
	FormType     enums.FormType         `json:"formType"`
	TableName    string                 `json:"tableName"`
	Payload      json.RawMessage        `json:"payload"`
	FactoryID    string                 `json:"factoryId"`
	UserID       string                 `json:"userId"`
	Timestamp    int64                  `json:"timestamp"`
	RetryCount   int                    `json:"retryCount"`
	MaxRetries   int                    `json:"maxRetries"`
	Status       enums.SubmissionStatus `json:"status"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
}

// EnqueueInput carries the caller-supplied fields of a new submission.
type EnqueueInput struct {
	FormType   enums.FormType
	TableName  string
	Payload    json.RawMessage
	FactoryID  string
	UserID     string
	MaxRetries int
}

// NewSubmission stamps an EnqueueInput into a pending Submission. The id is
// enqueue-millis plus a random suffix; uniqueness comes from the suffix, FIFO
// order always comes from storage insertion order.
func NewSubmission(input EnqueueInput, now time.Time) Submission {
	maxRetries := input.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	millis := now.UnixMilli()
	return Submission{
		ID:         newSubmissionID(millis),
		FormType:   input.FormType,
		TableName:  input.TableName,
		Payload:    input.Payload,
		FactoryID:  input.FactoryID,
		UserID:     input.UserID,
		Timestamp:  millis,
		RetryCount: 0,
		MaxRetries: maxRetries,
		Status:     enums.SubmissionStatusPending,
	}
}

func newSubmissionID(millis int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return strconv.FormatInt(millis, 10) + "-" + suffix
}
