package nats

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"sudooom.clinic.sync/internal/model"
)

// ChatUpdateEvent 会话更新事件载荷
type ChatUpdateEvent struct {
	Instance    string               `json:"instance"`
	Chats       []model.Conversation `json:"chats"`
	TotalUnread int                  `json:"total_unread"`
	UpdatedAt   int64                `json:"updated_at"`
}

// LeadImportEvent 线索导入事件载荷
type LeadImportEvent struct {
	Instance   string   `json:"instance"`
	Count      int      `json:"count"`
	Names      []string `json:"names"`
	ImportedAt int64    `json:"imported_at"`
}

// EventPublisher 同步事件发布器
// 其他服务（看板后端、通知）订阅这些事件，避免各自轮询数据库
type EventPublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewEventPublisher 创建事件发布器
func NewEventPublisher(nc *nats.Conn) *EventPublisher {
	return &EventPublisher{
		nc:     nc,
		logger: slog.Default(),
	}
}

// PublishChatsUpdated 发布会话列表协调完成事件
func (p *EventPublisher) PublishChatsUpdated(instance string, chats []model.Conversation) error {
	totalUnread := 0
	for _, chat := range chats {
		totalUnread += chat.UnreadCount
	}

	event := ChatUpdateEvent{
		Instance:    instance,
		Chats:       chats,
		TotalUnread: totalUnread,
		UpdatedAt:   time.Now().Unix(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal chat update event", "error", err)
		return err
	}

	subject := BuildChatUpdatedSubject(instance)
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish chat update", "subject", subject, "error", err)
		return err
	}

	p.logger.Debug("Published chat update", "subject", subject, "chats", len(chats))
	return nil
}

// PublishLeadsImported 发布线索导入事件
func (p *EventPublisher) PublishLeadsImported(instance string, names []string) error {
	event := LeadImportEvent{
		Instance:   instance,
		Count:      len(names),
		Names:      names,
		ImportedAt: time.Now().Unix(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal lead import event", "error", err)
		return err
	}

	subject := BuildLeadImportedSubject(instance)
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish lead import", "subject", subject, "error", err)
		return err
	}

	p.logger.Debug("Published lead import", "subject", subject, "count", len(names))
	return nil
}
