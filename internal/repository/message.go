package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.clinic.sync/internal/model"
)

// MessageRepository 消息数据访问
// whatsapp_messages 按 (chat_id, external_id) 唯一，写入走 upsert
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository 创建消息仓库
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// UpsertMessages 批量写入消息记录
func (r *MessageRepository) UpsertMessages(ctx context.Context, chatID string, messages []model.Message) error {
	if len(messages) == 0 {
		return nil
	}

	query := `
		INSERT INTO whatsapp_messages (chat_id, external_id, content, from_me, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (chat_id, external_id)
		DO UPDATE SET content = EXCLUDED.content, status = EXCLUDED.status
	`

	batch := &pgx.Batch{}
	for _, msg := range messages {
		var createdAt time.Time
		if msg.Timestamp > 0 {
			createdAt = time.Unix(msg.Timestamp, 0).UTC()
		} else {
			createdAt = time.Now().UTC()
		}

		status := msg.Status
		if status == "" {
			status = "sent"
		}

		batch.Queue(query, chatID, msg.ExternalID, msg.Content, msg.FromMe, status, createdAt)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range messages {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ListByChat 读取会话消息，按时间倒序
func (r *MessageRepository) ListByChat(ctx context.Context, chatID string, limit int) ([]model.Message, error) {
	query := `
		SELECT external_id, content, from_me, status,
		       COALESCE(EXTRACT(EPOCH FROM created_at)::bigint, 0)
		FROM whatsapp_messages
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ExternalID, &m.Content, &m.FromMe, &m.Status, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
