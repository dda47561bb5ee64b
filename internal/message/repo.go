package message

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/event"
)

// ErrAlreadyExists reports an insert that lost to an earlier message
// with the same external id. The engine treats it as the duplicate
// path, never as a failure.
var ErrAlreadyExists = errors.New("message already exists")

// Store is the durable collaborator the reconciliation engine runs
// against: keyed access to message records and pending-status entries.
// Absence is reported as (nil, nil), errors are reserved for store
// unavailability.
type Store interface {
	FindMessage(ctx context.Context, externalID string) (*Message, error)
	InsertMessage(ctx context.Context, m *Message) error
	UpdateMessageStatus(ctx context.Context, externalID string, status event.Status) (int64, error)

	GetPending(ctx context.Context, externalID string) (*PendingStatus, error)
	PutPending(ctx context.Context, externalID string, status event.Status, receivedAt time.Time) error
	DeletePending(ctx context.Context, externalID string) error
}

// Repo implements Store on gorm.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) FindMessage(ctx context.Context, externalID string) (*Message, error) {
	var m Message
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// InsertMessage creates the record, mapping a uniqueness violation on
// external_id to ErrAlreadyExists. The existence re-check keeps the
// mapping driver-independent.
func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	err := r.db.WithContext(ctx).Create(m).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	existing, findErr := r.FindMessage(ctx, m.ExternalID)
	if findErr == nil && existing != nil {
		return ErrAlreadyExists
	}
	return err
}

func (r *Repo) UpdateMessageStatus(ctx context.Context, externalID string, status event.Status) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Message{}).
		Where("external_id = ?", externalID).
		Update("status", status)
	return res.RowsAffected, res.Error
}

func (r *Repo) GetPending(ctx context.Context, externalID string) (*PendingStatus, error) {
	var p PendingStatus
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PutPending upserts the buffered status for an id; last write wins
// among not-yet-applied updates.
func (r *Repo) PutPending(ctx context.Context, externalID string, status event.Status, receivedAt time.Time) error {
	entry := PendingStatus{
		ExternalID: externalID,
		Status:     status,
		ReceivedAt: receivedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "received_at"}),
	}).Create(&entry).Error
}

func (r *Repo) DeletePending(ctx context.Context, externalID string) error {
	return r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		Delete(&PendingStatus{}).Error
}

// ListByConversation returns one page of a conversation's history,
// newest first.
func (r *Repo) ListByConversation(ctx context.Context, conversationID string, page, limit int) ([]Message, error) {
	if page < 1 {
		page = 1
	}
	var msgs []Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// ChatSummaries lists every conversation with its latest message and an
// unread count. Which statuses count as unread is the caller's policy.
func (r *Repo) ChatSummaries(ctx context.Context, unreadStatuses []string) ([]ChatSummary, error) {
	if len(unreadStatuses) == 0 {
		unreadStatuses = []string{string(event.StatusDelivered)}
	}
	var out []ChatSummary
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.conversation_id AS conversation_id,
		       m.body            AS last_body,
		       m.status          AS last_status,
		       m.direction       AS last_direction,
		       m.created_at      AS last_at,
		       g.unread_count    AS unread_count
		FROM processed_messages m
		JOIN (
			SELECT conversation_id,
			       MAX(id) AS last_id,
			       SUM(CASE WHEN direction = ? AND status IN ? THEN 1 ELSE 0 END) AS unread_count
			FROM processed_messages
			GROUP BY conversation_id
		) g ON g.last_id = m.id
		ORDER BY m.created_at DESC`,
		string(event.DirectionInbound), unreadStatuses,
	).Scan(&out).Error
	return out, err
}
