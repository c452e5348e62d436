package service

import (
	"context"
	"log/slog"
	"sync"

	"sudooom.clinic.sync/internal/chat"
	"sudooom.clinic.sync/internal/gateway"
	"sudooom.clinic.sync/internal/model"
	"sudooom.clinic.sync/internal/readstate"
)

// ChatFetcher 网关侧的会话列表来源
type ChatFetcher interface {
	FindChats(ctx context.Context, instance string) ([]gateway.ChatSummary, error)
}

// ChatStore 持久化存储侧的会话读写
type ChatStore interface {
	ListOpen(ctx context.Context, instanceID string) ([]model.Conversation, error)
	UpsertChats(ctx context.Context, instanceID string, chats []model.Conversation) error
}

// ChatEventPublisher 协调完成后的事件出口
type ChatEventPublisher interface {
	PublishChatsUpdated(instance string, chats []model.Conversation) error
}

// SyncService 会话同步服务
//
// 持有协调循环的全部状态：上一轮协调结果（current）、首轮加载标记、
// 取数代次。每一轮：持久化存储快速路径（仅首轮播种）→ 网关拉取 →
// 已读快照 → chat.Reconcile → 落库 → 发事件。任何一步 I/O 失败都
// 记日志后放弃本轮，上一轮结果继续对外提供（宁可稍旧，不可清空）。
type SyncService struct {
	fetcher   ChatFetcher
	store     ChatStore
	tracker   readstate.Tracker
	publisher ChatEventPublisher

	instanceName string
	instanceID   string
	logger       *slog.Logger

	mu      sync.RWMutex
	current []model.Conversation
	seeded  bool  // 已尝试过存储快速路径
	loaded  bool  // 至少成功协调过一轮
	nextGen int64 // 取数代次，单调递增
	applied int64 // 最近一次已应用的代次
}

// NewSyncService 创建会话同步服务
func NewSyncService(fetcher ChatFetcher, store ChatStore, tracker readstate.Tracker,
	publisher ChatEventPublisher, instanceName, instanceID string) *SyncService {
	return &SyncService{
		fetcher:      fetcher,
		store:        store,
		tracker:      tracker,
		publisher:    publisher,
		instanceName: instanceName,
		instanceID:   instanceID,
		logger:       slog.Default(),
	}
}

// Snapshot 返回最近一轮协调结果的拷贝
func (s *SyncService) Snapshot() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Conversation, len(s.current))
	copy(out, s.current)
	return out
}

// Loaded 是否至少成功协调过一轮
// 调用方用它区分"尚无数据"与"确认为空"，不要靠列表是否为空判断
func (s *SyncService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Find 按 ID 查找当前列表中的会话
func (s *SyncService) Find(conversationID string) (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.current {
		if c.ID == conversationID {
			return c, true
		}
	}
	return model.Conversation{}, false
}

// SuppressUnread 将会话未读数就地清零
// 标记已读后立即生效，不必等下一轮协调
func (s *SyncService) SuppressUnread(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.current {
		if s.current[i].ID == conversationID {
			s.current[i].UnreadCount = 0
			return
		}
	}
}

// SyncOnce 执行一轮协调
func (s *SyncService) SyncOnce(ctx context.Context) error {
	s.seedFromStore(ctx)

	// 代次标记：响应只在没有更新代次被应用时生效，丢弃迟到的旧响应
	s.mu.Lock()
	s.nextGen++
	gen := s.nextGen
	s.mu.Unlock()

	summaries, err := s.fetcher.FindChats(ctx, s.instanceName)
	if err != nil {
		// 瞬时失败：放弃本轮，上一轮列表继续展示
		s.logger.Warn("Chat fetch failed, keeping previous list", "error", err)
		return err
	}

	incoming := s.mapIncoming(summaries)

	current := s.Snapshot()
	snapshot, err := s.tracker.Snapshot(ctx, unionIDs(current, incoming))
	if err != nil {
		s.logger.Warn("Read-state snapshot failed, proceeding without suppression", "error", err)
		snapshot = map[string]int64{}
	}

	merged := chat.Reconcile(current, incoming, snapshot)

	s.mu.Lock()
	if gen <= s.applied {
		s.mu.Unlock()
		s.logger.Warn("Stale sync response discarded", "gen", gen, "applied", s.applied)
		return nil
	}
	s.applied = gen
	s.current = merged
	s.loaded = true
	s.mu.Unlock()

	if err := s.store.UpsertChats(ctx, s.instanceID, merged); err != nil {
		s.logger.Warn("Chat upsert failed", "error", err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishChatsUpdated(s.instanceName, merged); err != nil {
			s.logger.Warn("Chat update publish failed", "error", err)
		}
	}

	s.logger.Debug("Sync pass complete", "chats", len(merged))
	return nil
}

// seedFromStore 首轮用存储数据播种，网关可用前列表即可展示
func (s *SyncService) seedFromStore(ctx context.Context) {
	s.mu.Lock()
	if s.seeded {
		s.mu.Unlock()
		return
	}
	s.seeded = true
	s.mu.Unlock()

	stored, err := s.store.ListOpen(ctx, s.instanceID)
	if err != nil {
		s.logger.Warn("Store fast path failed", "error", err)
		return
	}

	s.mu.Lock()
	if len(s.current) == 0 {
		s.current = stored
	}
	s.mu.Unlock()
	s.logger.Debug("Seeded from store", "chats", len(stored))
}

// mapIncoming 将网关摘要转换为统一的会话模型
// 状态广播不是会话，直接丢弃；归档会话已在客户端层过滤
func (s *SyncService) mapIncoming(summaries []gateway.ChatSummary) []model.Conversation {
	incoming := make([]model.Conversation, 0, len(summaries))
	for _, summary := range summaries {
		jid := summary.JID()
		if jid == "" || chat.IsStatusJID(jid) {
			continue
		}

		incoming = append(incoming, model.Conversation{
			ID:           jid,
			DisplayName:  summary.DisplayName(),
			LastMessage:  chat.Classify(summary.LastMessage).Preview,
			LastActivity: chat.NormalizeTimestamp(summary.ActivityTimestamp()),
			UnreadCount:  summary.UnreadCount,
			AvatarURL:    summary.Avatar(),
			IsGroup:      summary.IsGroup || chat.IsGroupJID(jid),
		})
	}
	return incoming
}

func unionIDs(current, incoming []model.Conversation) []string {
	seen := make(map[string]struct{}, len(current)+len(incoming))
	ids := make([]string, 0, len(current)+len(incoming))
	for _, list := range [][]model.Conversation{current, incoming} {
		for _, c := range list {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			ids = append(ids, c.ID)
		}
	}
	return ids
}
