package readstate

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryTracker_GetUnset(t *testing.T) {
	tracker := NewMemoryTracker()

	ts, err := tracker.Get(context.Background(), "a@s.whatsapp.net")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ts != 0 {
		t.Errorf("Expected 0 for unset conversation, got %d", ts)
	}
}

// TestMemoryTracker_SetOverwrites 写入不做比较，后写覆盖前写，包括回退
func TestMemoryTracker_SetOverwrites(t *testing.T) {
	tracker := NewMemoryTracker()
	ctx := context.Background()

	if err := tracker.Set(ctx, "a@s.whatsapp.net", 2000); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := tracker.Set(ctx, "a@s.whatsapp.net", 1000); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ts, err := tracker.Get(ctx, "a@s.whatsapp.net")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ts != 1000 {
		t.Errorf("Expected last write to win, got %d", ts)
	}
}

func TestMemoryTracker_Snapshot(t *testing.T) {
	tracker := NewMemoryTracker()
	ctx := context.Background()

	tracker.Set(ctx, "a@s.whatsapp.net", 100)
	tracker.Set(ctx, "b@s.whatsapp.net", 200)

	snapshot, err := tracker.Snapshot(ctx, []string{"a@s.whatsapp.net", "b@s.whatsapp.net", "c@s.whatsapp.net"})
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if len(snapshot) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(snapshot))
	}
	if snapshot["a@s.whatsapp.net"] != 100 || snapshot["b@s.whatsapp.net"] != 200 {
		t.Errorf("Unexpected snapshot contents: %v", snapshot)
	}
	if _, ok := snapshot["c@s.whatsapp.net"]; ok {
		t.Error("Unset conversation must not appear in snapshot")
	}
}

// getTestRedisClient 连接本地 Redis，不可用时跳过测试
func getTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("跳过集成测试: 无法连接 Redis: %v", err)
	}
	return client
}

func TestRedisTracker_RoundTrip(t *testing.T) {
	client := getTestRedisClient(t)
	defer client.Close()

	tracker := NewRedisTracker(client, "clinic_test")
	ctx := context.Background()
	id := "roundtrip@s.whatsapp.net"
	defer client.Del(ctx, tracker.key(id))

	ts, err := tracker.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ts != 0 {
		t.Errorf("Expected 0 before any Set, got %d", ts)
	}

	if err := tracker.Set(ctx, id, 1700000000); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ts, err = tracker.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ts != 1700000000 {
		t.Errorf("Expected 1700000000, got %d", ts)
	}
}

func TestRedisTracker_KeyFormat(t *testing.T) {
	tracker := NewRedisTracker(nil, "clinic_42")

	expected := "clinic_42:" + KeyPrefix + "a@s.whatsapp.net"
	if got := tracker.key("a@s.whatsapp.net"); got != expected {
		t.Errorf("Expected key '%s', got '%s'", expected, got)
	}
}

func TestRedisTracker_InvalidValue(t *testing.T) {
	client := getTestRedisClient(t)
	defer client.Close()

	tracker := NewRedisTracker(client, "clinic_test")
	ctx := context.Background()
	id := "corrupt@s.whatsapp.net"
	defer client.Del(ctx, tracker.key(id))

	if err := client.Set(ctx, tracker.key(id), "not-a-number", 0).Err(); err != nil {
		t.Fatalf("Failed to seed corrupt value: %v", err)
	}

	ts, err := tracker.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ts != 0 {
		t.Errorf("Expected corrupt value to read as 0, got %d", ts)
	}
}

func TestRedisTracker_Snapshot(t *testing.T) {
	client := getTestRedisClient(t)
	defer client.Close()

	tracker := NewRedisTracker(client, "clinic_test")
	ctx := context.Background()
	ids := []string{"snap-a@s.whatsapp.net", "snap-b@s.whatsapp.net", "snap-missing@s.whatsapp.net"}
	defer func() {
		for _, id := range ids {
			client.Del(ctx, tracker.key(id))
		}
	}()

	tracker.Set(ctx, ids[0], 100)
	tracker.Set(ctx, ids[1], 200)

	snapshot, err := tracker.Snapshot(ctx, ids)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snapshot) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(snapshot))
	}
	if snapshot[ids[0]] != 100 || snapshot[ids[1]] != 200 {
		t.Errorf("Unexpected snapshot contents: %v", snapshot)
	}
}
