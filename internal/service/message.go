package service

import (
	"context"
	"log/slog"
	"time"

	"sudooom.clinic.sync/internal/chat"
	apperrors "sudooom.clinic.sync/internal/errors"
	"sudooom.clinic.sync/internal/gateway"
	"sudooom.clinic.sync/internal/model"
	"sudooom.clinic.sync/internal/readstate"
)

// MessageGateway 消息网关操作
type MessageGateway interface {
	FindMessages(ctx context.Context, instance, remoteJID string, limit int) ([]gateway.MessageEnvelope, error)
	SendText(ctx context.Context, instance, number, text string) (*gateway.SendResult, error)
	MarkMessageAsRead(ctx context.Context, instance, remoteJID string) error
	GetBase64FromMediaMessage(ctx context.Context, instance string, envelope *gateway.MessageEnvelope, convertToMp4 bool) (string, error)
}

// ChatRowStore 会话行的存储侧操作
type ChatRowStore interface {
	ChatID(ctx context.Context, instanceID, remoteJID string) (string, error)
	MarkRead(ctx context.Context, instanceID, remoteJID string) error
}

// MessageRowStore 消息行的存储侧操作
type MessageRowStore interface {
	UpsertMessages(ctx context.Context, chatID string, messages []model.Message) error
}

// MessageService 消息服务
//
// 打开的会话的取数、发送、已读标记和媒体拉取。网关是权威来源，
// 存储写入是尽力而为的缓存同步，失败只记日志不向上传播。
type MessageService struct {
	gw      MessageGateway
	chats   ChatRowStore
	msgs    MessageRowStore
	tracker readstate.Tracker
	sync    *SyncService
	media   *MediaCache

	instanceName string
	instanceID   string
	logger       *slog.Logger
}

// NewMessageService 创建消息服务
func NewMessageService(gw MessageGateway, chats ChatRowStore,
	msgs MessageRowStore, tracker readstate.Tracker,
	syncSvc *SyncService, media *MediaCache, instanceName, instanceID string) *MessageService {
	return &MessageService{
		gw:           gw,
		chats:        chats,
		msgs:         msgs,
		tracker:      tracker,
		sync:         syncSvc,
		media:        media,
		instanceName: instanceName,
		instanceID:   instanceID,
		logger:       slog.Default(),
	}
}

// History 拉取会话消息记录并同步到存储
func (s *MessageService) History(ctx context.Context, remoteJID string, limit int) ([]model.Message, error) {
	envelopes, err := s.gw.FindMessages(ctx, s.instanceName, remoteJID, limit)
	if err != nil {
		return nil, apperrors.ErrGatewayError.Wrap(err)
	}

	messages := make([]model.Message, 0, len(envelopes))
	for i := range envelopes {
		env := &envelopes[i]
		content := chat.Classify(env)

		msg := model.Message{
			Content:   content.Preview,
			Kind:      content.Kind.String(),
			Timestamp: chat.NormalizeTimestamp(env.MessageTimestamp),
			Status:    env.Status,
		}
		if env.Key != nil {
			msg.ExternalID = env.Key.ID
			msg.FromMe = env.Key.FromMe
		}
		messages = append(messages, msg)
	}

	// 存储同步尽力而为，失败不影响返回
	if chatID, err := s.chats.ChatID(ctx, s.instanceID, remoteJID); err == nil {
		if err := s.msgs.UpsertMessages(ctx, chatID, messages); err != nil {
			s.logger.Warn("Message upsert failed", "remoteJid", remoteJID, "error", err)
		}
	} else {
		s.logger.Debug("Chat row not found, skipping message sync", "remoteJid", remoteJID)
	}

	return messages, nil
}

// Send 发送文本消息
func (s *MessageService) Send(ctx context.Context, number, text string) (*gateway.SendResult, error) {
	result, err := s.gw.SendText(ctx, s.instanceName, number, text)
	if err != nil {
		s.logger.Warn("Send failed", "number", number, "error", err)
		return nil, apperrors.ErrSendFailed.Wrap(err)
	}
	return result, nil
}

// MarkRead 标记会话已读
//
// 已读时间取会话当前的最后活动时间而不是操作时刻，这样打开之后
// 到达的消息仍计为未读；会话未知时退回墙钟。网关侧与存储侧的标记
// 都是尽力而为，本地已读记录是权威。
func (s *MessageService) MarkRead(ctx context.Context, remoteJID string) error {
	ts := time.Now().Unix()
	if conv, ok := s.sync.Find(remoteJID); ok && conv.LastActivity > 0 {
		ts = conv.LastActivity
	}

	if err := s.tracker.Set(ctx, remoteJID, ts); err != nil {
		return apperrors.ErrServerError.Wrap(err)
	}
	s.sync.SuppressUnread(remoteJID)

	if err := s.gw.MarkMessageAsRead(ctx, s.instanceName, remoteJID); err != nil {
		s.logger.Warn("Gateway mark-as-read failed", "remoteJid", remoteJID, "error", err)
	}
	if err := s.chats.MarkRead(ctx, s.instanceID, remoteJID); err != nil {
		s.logger.Warn("Store mark-as-read failed", "remoteJid", remoteJID, "error", err)
	}
	return nil
}

// Media 拉取媒体内容，命中缓存时不回源
func (s *MessageService) Media(ctx context.Context, envelope *gateway.MessageEnvelope, convertToMp4 bool) (string, error) {
	if envelope == nil || envelope.Key == nil || envelope.Key.ID == "" {
		return "", apperrors.ErrInvalidParams
	}

	key := envelope.Key.ID
	if data, ok := s.media.Get(key); ok {
		return data, nil
	}

	data, err := s.gw.GetBase64FromMediaMessage(ctx, s.instanceName, envelope, convertToMp4)
	if err != nil {
		return "", apperrors.ErrMediaUnavailable.Wrap(err)
	}
	if data == "" {
		return "", apperrors.ErrMediaUnavailable
	}

	s.media.Put(key, data)
	return data, nil
}
