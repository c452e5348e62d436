package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"sudooom.clinic.sync/internal/config"
)

// StateOpen 网关连接就绪状态
const StateOpen = "open"

// InstanceName 根据诊所 ID 推导网关实例名
func InstanceName(clinicID string) string {
	return "clinic_" + clinicID
}

// Client 消息网关 HTTP 客户端
// 鉴权使用部署级 apikey 请求头
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient 创建网关客户端
func NewClient(cfg config.GatewayConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default(),
	}
}

// do 发送请求并解析 JSON 响应
// out 为 nil 时忽略响应体；非 2xx 一律返回错误
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   string(payload),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}

// StatusError 网关返回的非 2xx 状态
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway: %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// FindChats 获取实例的会话列表
// 兼容两种响应形态（裸数组或 {messages:[...]}），过滤已归档会话
func (c *Client) FindChats(ctx context.Context, instance string) ([]ChatSummary, error) {
	var raw json.RawMessage
	body := map[string]any{"where": map[string]any{}}
	if err := c.do(ctx, http.MethodPost, "/chat/findChats/"+instance, body, &raw); err != nil {
		return nil, err
	}

	var all []ChatSummary
	if err := json.Unmarshal(raw, &all); err != nil {
		var wrapper struct {
			Messages []ChatSummary `json:"messages"`
		}
		if err2 := json.Unmarshal(raw, &wrapper); err2 != nil {
			return nil, fmt.Errorf("gateway: decode chats: %w", err)
		}
		all = wrapper.Messages
	}

	chats := make([]ChatSummary, 0, len(all))
	for _, chat := range all {
		if chat.Archive {
			continue
		}
		if chat.UnreadCount < 0 {
			chat.UnreadCount = 0
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

// FindMessages 获取单个会话的消息记录，按时间倒序
func (c *Client) FindMessages(ctx context.Context, instance, remoteJID string, limit int) ([]MessageEnvelope, error) {
	body := map[string]any{
		"where": map[string]any{
			"key": map[string]any{"remoteJid": remoteJID},
		},
		"options": map[string]any{
			"limit": limit,
			"sort":  map[string]any{"order": "DESC"},
		},
	}

	var resp struct {
		Messages struct {
			Records []MessageEnvelope `json:"records"`
		} `json:"messages"`
	}
	if err := c.do(ctx, http.MethodPost, "/chat/findMessages/"+instance, body, &resp); err != nil {
		return nil, err
	}
	return resp.Messages.Records, nil
}

// SendText 发送文本消息
func (c *Client) SendText(ctx context.Context, instance, number, text string) (*SendResult, error) {
	body := map[string]any{
		"number": number,
		"text":   text,
		"options": map[string]any{
			"delay":       1200,
			"presence":    "composing",
			"linkPreview": false,
		},
	}

	var result SendResult
	if err := c.do(ctx, http.MethodPost, "/message/sendText/"+instance, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkMessageAsRead 在网关侧将会话标记为已读
func (c *Client) MarkMessageAsRead(ctx context.Context, instance, remoteJID string) error {
	body := map[string]any{"remoteJid": remoteJID}
	return c.do(ctx, http.MethodPost, "/chat/markMessageAsRead/"+instance, body, nil)
}

// GetBase64FromMediaMessage 拉取媒体内容（base64 编码）
func (c *Client) GetBase64FromMediaMessage(ctx context.Context, instance string, envelope *MessageEnvelope, convertToMp4 bool) (string, error) {
	body := map[string]any{
		"message":      envelope,
		"convertToMp4": convertToMp4,
	}

	var resp struct {
		Base64 string `json:"base64"`
	}
	if err := c.do(ctx, http.MethodPost, "/chat/getBase64FromMediaMessage/"+instance, body, &resp); err != nil {
		return "", err
	}
	return resp.Base64, nil
}

// ConnectionState 查询实例连接状态，state 为 open 表示已连接
func (c *Client) ConnectionState(ctx context.Context, instance string) (string, error) {
	var resp struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	if err := c.do(ctx, http.MethodGet, "/instance/connectionState/"+instance, nil, &resp); err != nil {
		return "", err
	}
	return resp.Instance.State, nil
}

// CreateInstance 创建网关实例并生成配对二维码
// 实例已存在时（409/403）转为获取现有实例的二维码
func (c *Client) CreateInstance(ctx context.Context, instance string) (*InstancePayload, error) {
	body := map[string]any{
		"instanceName": instance,
		"token":        uuid.NewString(),
		"qrcode":       true,
		"integration":  "WHATSAPP-BAILEYS",
	}

	var payload InstancePayload
	err := c.do(ctx, http.MethodPost, "/instance/create", body, &payload)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && (statusErr.Status == http.StatusConflict || statusErr.Status == http.StatusForbidden) {
			qr, qrErr := c.ConnectInstance(ctx, instance)
			if qrErr != nil {
				return nil, qrErr
			}
			payload.Instance.InstanceName = instance
			payload.QRCode = qr
			return &payload, nil
		}
		return nil, err
	}
	return &payload, nil
}

// ConnectInstance 获取现有实例的配对二维码
func (c *Client) ConnectInstance(ctx context.Context, instance string) (*QRCode, error) {
	var resp struct {
		QRCode      *QRCode `json:"qrcode,omitempty"`
		Base64      string  `json:"base64,omitempty"`
		Code        string  `json:"code,omitempty"`
		PairingCode string  `json:"pairingCode,omitempty"`
	}
	if err := c.do(ctx, http.MethodGet, "/instance/connect/"+instance, nil, &resp); err != nil {
		return nil, err
	}

	if resp.QRCode != nil {
		return resp.QRCode, nil
	}
	return &QRCode{Base64: resp.Base64, Code: resp.Code, PairingCode: resp.PairingCode}, nil
}

// DeleteInstance 删除网关实例
func (c *Client) DeleteInstance(ctx context.Context, instance string) error {
	c.logger.Info("Deleting gateway instance", "instance", instance)
	return c.do(ctx, http.MethodDelete, "/instance/delete/"+instance, nil, nil)
}
