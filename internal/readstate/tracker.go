package readstate

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix 已读状态的存储键前缀，完整键为 chat_last_read_<会话ID>
const KeyPrefix = "chat_last_read_"

// Tracker 已读状态记录
//
// 记录"用户在时间 T 已看过会话 X"。写入时不做任何比较（它不是逻辑
// 时钟），协调器无条件信任存储值，调用方不要用过期值重复写入。
// 条目一旦创建不过期；每个部署独立维护，不跨设备同步。
type Tracker interface {
	// Get 查询会话的已读时间（秒），从未记录时返回 0
	Get(ctx context.Context, conversationID string) (int64, error)
	// Set 记录已读时间；调用方应传会话当前的最后活动时间，
	// 未知时用当前墙钟，这样打开之后到达的消息仍计为未读
	Set(ctx context.Context, conversationID string, ts int64) error
	// Snapshot 批量查询，协调前对并集 ID 取一次快照
	Snapshot(ctx context.Context, conversationIDs []string) (map[string]int64, error)
}

// RedisTracker 基于 Redis 的已读状态记录
type RedisTracker struct {
	client   *redis.Client
	instance string
	logger   *slog.Logger
}

// NewRedisTracker 创建 Redis 已读状态记录，键按实例隔离
func NewRedisTracker(client *redis.Client, instance string) *RedisTracker {
	return &RedisTracker{
		client:   client,
		instance: instance,
		logger:   slog.Default(),
	}
}

func (t *RedisTracker) key(conversationID string) string {
	return t.instance + ":" + KeyPrefix + conversationID
}

// Get 查询已读时间，缺失返回 0
func (t *RedisTracker) Get(ctx context.Context, conversationID string) (int64, error) {
	val, err := t.client.Get(ctx, t.key(conversationID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	ts, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// 键被外部写坏时当作未记录
		t.logger.Warn("Invalid read-state value, treating as unset",
			"conversationId", conversationID, "value", val)
		return 0, nil
	}
	return ts, nil
}

// Set 记录已读时间，键永不过期
func (t *RedisTracker) Set(ctx context.Context, conversationID string, ts int64) error {
	return t.client.Set(ctx, t.key(conversationID), ts, 0).Err()
}

// Snapshot Pipeline 批量查询已读时间，只返回有记录的条目
func (t *RedisTracker) Snapshot(ctx context.Context, conversationIDs []string) (map[string]int64, error) {
	if len(conversationIDs) == 0 {
		return map[string]int64{}, nil
	}

	pipe := t.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(conversationIDs))
	for i, id := range conversationIDs {
		cmds[i] = pipe.Get(ctx, t.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	snapshot := make(map[string]int64, len(conversationIDs))
	for i, cmd := range cmds {
		val, err := cmd.Result()
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		snapshot[conversationIDs[i]] = ts
	}
	return snapshot, nil
}

// MemoryTracker 进程内的已读状态记录，测试和单进程部署使用
type MemoryTracker struct {
	mu      sync.RWMutex
	entries map[string]int64
}

// NewMemoryTracker 创建内存已读状态记录
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{entries: make(map[string]int64)}
}

func (t *MemoryTracker) Get(_ context.Context, conversationID string) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[conversationID], nil
}

func (t *MemoryTracker) Set(_ context.Context, conversationID string, ts int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[conversationID] = ts
	return nil
}

func (t *MemoryTracker) Snapshot(_ context.Context, conversationIDs []string) (map[string]int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := make(map[string]int64, len(conversationIDs))
	for _, id := range conversationIDs {
		if ts, ok := t.entries[id]; ok {
			snapshot[id] = ts
		}
	}
	return snapshot, nil
}
