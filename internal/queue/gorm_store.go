package queue

import (
	"context"

	"gorm.io/gorm"

	"github.com/luisherrera/milltrack-agent/pkg/db/models"
	"github.com/luisherrera/milltrack-agent/pkg/enums"
)

// GormStore persists the queue in the station's SQL database. FIFO order comes
// from the auto-increment seq column.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Enqueue(ctx context.Context, sub Submission) error {
	row := toModel(sub)
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) ListAll(ctx context.Context) ([]Submission, error) {
	var rows []models.QueuedSubmission
	err := s.db.WithContext(ctx).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	subs := make([]Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, fromModel(row))
	}
	return subs, nil
}

func (s *GormStore) Remove(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).
		Where("submission_id = ?", id).
		Delete(&models.QueuedSubmission{}).Error
}

func (s *GormStore) UpdateStatus(ctx context.Context, id string, status enums.SubmissionStatus, errorMessage string) error {
	return s.db.WithContext(ctx).
		Model(&models.QueuedSubmission{}).
		Where("submission_id = ?", id).
		Updates(map[string]any{
			"status":        status,
			"error_message": errorMessage,
		}).Error
}

func (s *GormStore) IncrementRetry(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).
		Model(&models.QueuedSubmission{}).
		Where("submission_id = ?", id).
		Update("retry_count", gorm.Expr("retry_count + 1")).Error
}

func (s *GormStore) ResetForRetry(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).
		Model(&models.QueuedSubmission{}).
		Where("submission_id = ?", id).
		Updates(map[string]any{
			"status":        enums.SubmissionStatusPending,
			"retry_count":   0,
			"error_message": "",
		}).Error
}

func (s *GormStore) CountByStatus(ctx context.Context, status enums.SubmissionStatus) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.QueuedSubmission{}).
		Where("status = ?", status).
		Count(&count).Error
	return int(count), err
}

func (s *GormStore) ClearAll(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.QueuedSubmission{}).Error
}

func (s *GormStore) ClearWhere(ctx context.Context, status enums.SubmissionStatus) error {
	return s.db.WithContext(ctx).
		Where("status = ?", status).
		Delete(&models.QueuedSubmission{}).Error
}

func toModel(sub Submission) models.QueuedSubmission {
	return models.QueuedSubmission{
		SubmissionID: sub.ID,
		FormType:     sub.FormType,
		TargetTable:  sub.TableName,
		Payload:      sub.Payload,
		FactoryID:    sub.FactoryID,
		UserID:       sub.UserID,
		EnqueuedAtMS: sub.Timestamp,
		RetryCount:   sub.RetryCount,
		MaxRetries:   sub.MaxRetries,
		Status:       sub.Status,
		ErrorMessage: sub.ErrorMessage,
	}
}

func fromModel(row models.QueuedSubmission) Submission {
	return Submission{
		ID:           row.SubmissionID,
		FormType:     row.FormType,
		TableName:    row.TargetTable,
		Payload:      row.Payload,
		FactoryID:    row.FactoryID,
		UserID:       row.UserID,
		Timestamp:    row.EnqueuedAtMS,
		RetryCount:   row.RetryCount,
		MaxRetries:   row.MaxRetries,
		Status:       row.Status,
		ErrorMessage: row.ErrorMessage,
	}
}
