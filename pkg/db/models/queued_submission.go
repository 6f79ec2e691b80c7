package models

import (
	"encoding/json"

	"github.com/luisherrera/milltrack-agent/pkg/enums"
)

// QueuedSubmission is the persisted row backing one pending write attempt.
// Seq is the insertion order; FIFO is derived from it, never from the
// submission id.
type QueuedSubmission struct {
	Seq          int64                  `gorm:"column:seq;primaryKey;autoIncrement"`
	SubmissionID string                 `gorm:"column:submission_id;uniqueIndex;not null"`
	FormType     enums.FormType         `gorm:"column:form_type;not null"`
	TargetTable  string                 `gorm:"column:target_table;not null"`
	Payload      json.RawMessage        `gorm:"column:payload;not null"`
	FactoryID    string                 `gorm:"column:factory_id;not null"`
	UserID       string                 `gorm:"column:user_id;not null"`
	EnqueuedAtMS int64                  `gorm:"column:enqueued_at_ms;not null"`
	RetryCount   int                    `gorm:"column:retry_count;not null;default:0"`
	MaxRetries   int                    `gorm:"column:max_retries;not null"`
	Status       enums.SubmissionStatus `gorm:"column:status;not null"`
	ErrorMessage string                 `gorm:"column:error_message"`
}

// TableName pins the table used by the queue store and migrations.
func (QueuedSubmission) TableName() string {
	return "queued_submissions"
}
