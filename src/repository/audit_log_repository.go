package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"retryengine/src/database"
	"retryengine/src/model"
)

// AuditLogRepository appends and reads the immutable retry audit trail.
// Rows are write-once: there is deliberately no update or delete here.
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new repository instance using the main
// read/write database.
func NewAuditLogRepository() *AuditLogRepository {
	return &AuditLogRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *AuditLogRepository) WithDB(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Append inserts one audit event.
func (r *AuditLogRepository) Append(ctx context.Context, log *model.RetryAuditLog) error {
	err := r.db.WithContext(ctx).Create(log).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "AuditLogRepository",
			"op":         "Append",
			"event_type": log.EventType,
		}).WithError(err).Error("Failed to append audit log")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":       "AuditLogRepository",
		"op":         "Append",
		"event_type": log.EventType,
	}).Debug("Audit event appended")

	return nil
}

// FindByPaymentID returns a payment's audit events in chronological order.
func (r *AuditLogRepository) FindByPaymentID(ctx context.Context, paymentID string) ([]model.RetryAuditLog, error) {
	var logs []model.RetryAuditLog

	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at").
		Find(&logs).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "AuditLogRepository",
			"op":         "FindByPaymentID",
			"payment_id": paymentID,
		}).WithError(err).Error("Failed to fetch audit logs")
		return nil, err
	}

	return logs, nil
}

// FindByEventType returns the newest events of one type, capped at limit.
func (r *AuditLogRepository) FindByEventType(ctx context.Context, eventType string, limit int) ([]model.RetryAuditLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var logs []model.RetryAuditLog

	err := r.db.WithContext(ctx).
		Where("event_type = ?", eventType).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "AuditLogRepository",
			"op":         "FindByEventType",
			"event_type": eventType,
		}).WithError(err).Error("Failed to fetch audit logs by event type")
		return nil, err
	}

	return logs, nil
}
