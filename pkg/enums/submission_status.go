package enums

import "fmt"

// SubmissionStatus describes the lifecycle state of a queued submission.
type SubmissionStatus string

const (
	SubmissionStatusPending SubmissionStatus = "pending"
	SubmissionStatusSyncing SubmissionStatus = "syncing"
	SubmissionStatusFailed  SubmissionStatus = "failed"
)

var validSubmissionStatuses = []SubmissionStatus{
	SubmissionStatusPending,
	SubmissionStatusSyncing,
	SubmissionStatusFailed,
}

// IsValid reports whether the value matches the canonical status enum.
func (s SubmissionStatus) IsValid() bool {
	for _, candidate := range validSubmissionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSubmissionStatus converts the raw string to SubmissionStatus.
func ParseSubmissionStatus(value string) (SubmissionStatus, error) {
	for _, candidate := range validSubmissionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid submission status %q", value)
}
