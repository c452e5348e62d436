package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.clinic.sync/internal/model"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository 会话数据访问
// whatsapp_chats 按 (instance_id, remote_jid) 唯一，写入走 upsert
type ChatRepository struct {
	db *pgxpool.Pool
}

// NewChatRepository 创建会话仓库
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// UpsertChats 批量写入协调后的会话列表
func (r *ChatRepository) UpsertChats(ctx context.Context, instanceID string, chats []model.Conversation) error {
	if len(chats) == 0 {
		return nil
	}

	query := `
		INSERT INTO whatsapp_chats
			(instance_id, remote_jid, name, profile_pic_url, unread_count, last_message_content, last_message_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'open')
		ON CONFLICT (instance_id, remote_jid)
		DO UPDATE SET
			name = EXCLUDED.name,
			profile_pic_url = EXCLUDED.profile_pic_url,
			unread_count = EXCLUDED.unread_count,
			last_message_content = EXCLUDED.last_message_content,
			last_message_time = EXCLUDED.last_message_time,
			status = EXCLUDED.status
	`

	batch := &pgx.Batch{}
	for _, chat := range chats {
		var lastMessageTime time.Time
		if chat.LastActivity > 0 {
			lastMessageTime = time.Unix(chat.LastActivity, 0).UTC()
		} else {
			lastMessageTime = time.Now().UTC()
		}

		batch.Queue(query,
			instanceID,
			chat.ID,
			chat.DisplayName,
			chat.AvatarURL,
			chat.UnreadCount,
			chat.LastMessage,
			lastMessageTime,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range chats {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ListOpen 读取未锁定的会话，按最后消息时间倒序
// 首轮同步用它做快速路径种子
func (r *ChatRepository) ListOpen(ctx context.Context, instanceID string) ([]model.Conversation, error) {
	query := `
		SELECT remote_jid, COALESCE(name, ''), COALESCE(profile_pic_url, ''),
		       COALESCE(unread_count, 0), COALESCE(last_message_content, ''),
		       COALESCE(EXTRACT(EPOCH FROM last_message_time)::bigint, 0)
		FROM whatsapp_chats
		WHERE instance_id = $1 AND status <> 'locked'
		ORDER BY last_message_time DESC
	`

	rows, err := r.db.Query(ctx, query, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.AvatarURL,
			&c.UnreadCount, &c.LastMessage, &c.LastActivity); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// ChatID 查找会话行的内部 UUID
func (r *ChatRepository) ChatID(ctx context.Context, instanceID, remoteJID string) (string, error) {
	query := `SELECT id FROM whatsapp_chats WHERE instance_id = $1 AND remote_jid = $2`

	var id string
	err := r.db.QueryRow(ctx, query, instanceID, remoteJID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrChatNotFound
	}
	return id, err
}

// MarkRead 更新会话的已读时间并清零未读数
func (r *ChatRepository) MarkRead(ctx context.Context, instanceID, remoteJID string) error {
	query := `
		UPDATE whatsapp_chats
		SET last_read_at = NOW(), unread_count = 0
		WHERE instance_id = $1 AND remote_jid = $2
	`
	_, err := r.db.Exec(ctx, query, instanceID, remoteJID)
	return err
}
