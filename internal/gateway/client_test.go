package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sudooom.clinic.sync/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	client := NewClient(config.GatewayConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
	return client, server
}

func TestInstanceName(t *testing.T) {
	if got := InstanceName("42"); got != "clinic_42" {
		t.Errorf("Expected 'clinic_42', got '%s'", got)
	}
}

// TestClient_APIKeyHeader 所有请求都带部署级 apikey 请求头
func TestClient_APIKeyHeader(t *testing.T) {
	var gotKey, gotContentType string
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("apikey")
		gotContentType = r.Header.Get("Content-Type")
		json.NewEncoder(w).Encode([]ChatSummary{})
	})
	defer server.Close()

	if _, err := client.FindChats(context.Background(), "clinic_1"); err != nil {
		t.Fatalf("FindChats failed: %v", err)
	}
	if gotKey != "test-key" {
		t.Errorf("Expected apikey header 'test-key', got '%s'", gotKey)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected JSON content type, got '%s'", gotContentType)
	}
}

func TestClient_FindChats_BareArray(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/findChats/clinic_1" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]ChatSummary{
			{ID: "a@s.whatsapp.net", PushName: "Maria"},
			{ID: "b@s.whatsapp.net", Archive: true},
			{ID: "c@s.whatsapp.net", UnreadCount: -3},
		})
	})
	defer server.Close()

	chats, err := client.FindChats(context.Background(), "clinic_1")
	if err != nil {
		t.Fatalf("FindChats failed: %v", err)
	}

	if len(chats) != 2 {
		t.Fatalf("Expected archived chat filtered out, got %d chats", len(chats))
	}
	if chats[0].JID() != "a@s.whatsapp.net" {
		t.Errorf("Unexpected first chat: %s", chats[0].JID())
	}
	if chats[1].UnreadCount != 0 {
		t.Errorf("Expected negative unread clamped to 0, got %d", chats[1].UnreadCount)
	}
}

// TestClient_FindChats_WrappedShape 兼容 {messages:[...]} 形态的响应
func TestClient_FindChats_WrappedShape(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"messages": []ChatSummary{
				{RemoteJID: "a@s.whatsapp.net", Name: "Clínica"},
			},
		})
	})
	defer server.Close()

	chats, err := client.FindChats(context.Background(), "clinic_1")
	if err != nil {
		t.Fatalf("FindChats failed: %v", err)
	}
	if len(chats) != 1 || chats[0].JID() != "a@s.whatsapp.net" {
		t.Errorf("Unexpected chats: %+v", chats)
	}
}

func TestClient_FindMessages(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		where := body["where"].(map[string]any)
		key := where["key"].(map[string]any)
		if key["remoteJid"] != "a@s.whatsapp.net" {
			t.Errorf("Unexpected remoteJid filter: %v", key["remoteJid"])
		}
		options := body["options"].(map[string]any)
		if options["limit"].(float64) != 50 {
			t.Errorf("Unexpected limit: %v", options["limit"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"messages": map[string]any{
				"records": []MessageEnvelope{
					{Key: &MessageKey{ID: "m1"}, MessageTimestamp: 1700000000},
				},
			},
		})
	})
	defer server.Close()

	msgs, err := client.FindMessages(context.Background(), "clinic_1", "a@s.whatsapp.net", 50)
	if err != nil {
		t.Fatalf("FindMessages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Key.ID != "m1" {
		t.Errorf("Unexpected messages: %+v", msgs)
	}
}

func TestClient_SendText(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["number"] != "5511987654321" || body["text"] != "Olá" {
			t.Errorf("Unexpected send payload: %v", body)
		}
		json.NewEncoder(w).Encode(SendResult{
			Key:    &MessageKey{ID: "sent-1", FromMe: true},
			Status: "PENDING",
		})
	})
	defer server.Close()

	result, err := client.SendText(context.Background(), "clinic_1", "5511987654321", "Olá")
	if err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	if result.Key == nil || result.Key.ID != "sent-1" {
		t.Errorf("Unexpected send result: %+v", result)
	}
}

func TestClient_StatusError(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"instance not found"}`, http.StatusNotFound)
	})
	defer server.Close()

	_, err := client.FindChats(context.Background(), "clinic_1")
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %T", err)
	}
	if statusErr.Status != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", statusErr.Status)
	}
}

// TestClient_CreateInstance_AlreadyExists 实例已存在时转为获取现有实例的二维码
func TestClient_CreateInstance_AlreadyExists(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/instance/create":
			http.Error(w, `{"error":"already in use"}`, http.StatusForbidden)
		case "/instance/connect/clinic_1":
			json.NewEncoder(w).Encode(map[string]any{"base64": "data:image/png;base64,QR"})
		default:
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
	})
	defer server.Close()

	payload, err := client.CreateInstance(context.Background(), "clinic_1")
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	if payload.QRCode == nil || payload.QRCode.Base64 != "data:image/png;base64,QR" {
		t.Errorf("Expected QR from connect fallback, got %+v", payload.QRCode)
	}
	if payload.Instance.InstanceName != "clinic_1" {
		t.Errorf("Expected instance name filled in, got '%s'", payload.Instance.InstanceName)
	}
}

func TestClient_ConnectInstance_WrappedQR(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"qrcode": map[string]any{"base64": "QR", "pairingCode": "ABCD-1234"},
		})
	})
	defer server.Close()

	qr, err := client.ConnectInstance(context.Background(), "clinic_1")
	if err != nil {
		t.Fatalf("ConnectInstance failed: %v", err)
	}
	if qr.Base64 != "QR" || qr.PairingCode != "ABCD-1234" {
		t.Errorf("Unexpected QR payload: %+v", qr)
	}
}

func TestClient_ConnectionState(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"instance": map[string]any{"state": StateOpen},
		})
	})
	defer server.Close()

	state, err := client.ConnectionState(context.Background(), "clinic_1")
	if err != nil {
		t.Fatalf("ConnectionState failed: %v", err)
	}
	if state != StateOpen {
		t.Errorf("Expected state 'open', got '%s'", state)
	}
}

func TestChatSummary_Resolvers(t *testing.T) {
	viaKey := ChatSummary{Key: &MessageKey{RemoteJID: "k@s.whatsapp.net"}}
	if viaKey.JID() != "k@s.whatsapp.net" {
		t.Errorf("Expected JID from key, got '%s'", viaKey.JID())
	}

	named := ChatSummary{Name: "fallback", VerifiedName: "verified", PushName: "push"}
	if named.DisplayName() != "push" {
		t.Errorf("Expected pushName to win, got '%s'", named.DisplayName())
	}

	viaLast := ChatSummary{LastMessage: &MessageEnvelope{MessageTimestamp: 1700000000}}
	if viaLast.ActivityTimestamp() != 1700000000 {
		t.Errorf("Expected timestamp from last message, got %d", viaLast.ActivityTimestamp())
	}
}
