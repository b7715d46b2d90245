package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"gorm.io/gorm"
)

// Outbox publish statuses for EmailOutboxRecord.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// EmailOutboxRecord is a transactional outbox row: written inside the same DB
// transaction as the state change it announces, published to the mail topic
// after commit by the dispatcher.
type EmailOutboxRecord struct {
	ID            int    `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	Recipient     string `gorm:"size:255;not null" json:"recipient"`
	Subject       string `gorm:"size:255;not null" json:"subject"`
	Template      string `gorm:"size:100;not null" json:"template"`
	Payload       []byte `gorm:"type:blob" json:"payload"`
	// Publish metadata (publish happens after commit via dispatcher).
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToMailMessage(record EmailOutboxRecord) config.MailMessage {
	return config.MailMessage{
		ID:            record.ID,
		Recipient:     record.Recipient,
		Subject:       record.Subject,
		Template:      record.Template,
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}

// EnqueueEmail writes an outbox row in the caller's transaction. The mail is
// only ever sent if that transaction commits.
func EnqueueEmail(ctx context.Context, tx *gorm.DB, recipient, subject, template string, payload []byte, correlationId string) error {
	record := EmailOutboxRecord{
		Recipient:     recipient,
		Subject:       subject,
		Template:      template,
		Payload:       payload,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationId,
	}
	return tx.WithContext(ctx).Create(&record).Error
}

// ReplayDeadEmails re-arms DEAD and FAILED rows for the dispatcher. Returns
// the number of rows re-queued.
func ReplayDeadEmails(ctx context.Context, db *gorm.DB, ids []int) (int64, error) {
	q := db.WithContext(ctx).Model(&EmailOutboxRecord{}).
		Where("publish_status IN ?", []string{OutboxPublishStatusDead, OutboxPublishStatusFailed})
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	res := q.Updates(map[string]interface{}{
		"publish_status":     OutboxPublishStatusPending,
		"publish_attempts":   0,
		"next_attempt_at":    nil,
		"locked_at":          nil,
		"locked_by":          nil,
		"last_publish_error": nil,
	})
	return res.RowsAffected, res.Error
}
