package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"sudooom.clinic.sync/internal/gateway"
	"sudooom.clinic.sync/internal/service"
	"sudooom.clinic.sync/pkg/response"
)

// ChatHandler 会话处理器
type ChatHandler struct {
	syncService    *service.SyncService
	messageService *service.MessageService
	messageLimit   int
}

// NewChatHandler 创建会话处理器
func NewChatHandler(syncService *service.SyncService, messageService *service.MessageService, messageLimit int) *ChatHandler {
	if messageLimit <= 0 {
		messageLimit = 20
	}
	return &ChatHandler{
		syncService:    syncService,
		messageService: messageService,
		messageLimit:   messageLimit,
	}
}

// ListChats 获取协调后的会话列表
// GET /api/v1/chats
func (h *ChatHandler) ListChats(c *gin.Context) {
	chats := h.syncService.Snapshot()

	var result []gin.H
	for _, chat := range chats {
		result = append(result, gin.H{
			"id":            chat.ID,
			"display_name":  chat.DisplayName,
			"last_message":  chat.LastMessage,
			"last_activity": chat.LastActivity,
			"unread_count":  chat.UnreadCount,
			"avatar_url":    chat.AvatarURL,
			"is_group":      chat.IsGroup,
		})
	}

	response.Success(c, gin.H{
		"list":   result,
		"loaded": h.syncService.Loaded(),
	})
}

// GetMessages 获取会话消息记录
// GET /api/v1/chats/:jid/messages
func (h *ChatHandler) GetMessages(c *gin.Context) {
	jid := c.Param("jid")
	if jid == "" {
		response.Error(c, response.CodeInvalidParams)
		return
	}

	limit := h.messageLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	messages, err := h.messageService.History(c.Request.Context(), jid, limit)
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}

	var result []gin.H
	for _, msg := range messages {
		result = append(result, gin.H{
			"external_id": msg.ExternalID,
			"from_me":     msg.FromMe,
			"kind":        msg.Kind,
			"content":     msg.Content,
			"timestamp":   msg.Timestamp,
			"status":      msg.Status,
		})
	}

	response.Success(c, gin.H{"list": result})
}

// SendTextRequest 发送文本请求
type SendTextRequest struct {
	Number string `json:"number" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// SendText 发送文本消息
// POST /api/v1/messages
func (h *ChatHandler) SendText(c *gin.Context) {
	var req SendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidParams, err.Error())
		return
	}

	result, err := h.messageService.Send(c.Request.Context(), req.Number, req.Text)
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}

	data := gin.H{"status": result.Status}
	if result.Key != nil {
		data["external_id"] = result.Key.ID
	}
	response.Success(c, data)
}

// MarkRead 标记会话已读
// POST /api/v1/chats/:jid/read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	jid := c.Param("jid")
	if jid == "" {
		response.Error(c, response.CodeInvalidParams)
		return
	}

	if err := h.messageService.MarkRead(c.Request.Context(), jid); err != nil {
		response.ErrorFromAppError(c, err)
		return
	}
	response.Success(c, nil)
}

// MediaRequest 媒体拉取请求
type MediaRequest struct {
	Message      *gateway.MessageEnvelope `json:"message" binding:"required"`
	ConvertToMp4 bool                     `json:"convert_to_mp4"`
}

// GetMedia 拉取媒体内容
// POST /api/v1/media
func (h *ChatHandler) GetMedia(c *gin.Context) {
	var req MediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidParams, err.Error())
		return
	}

	data, err := h.messageService.Media(c.Request.Context(), req.Message, req.ConvertToMp4)
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}
	response.Success(c, gin.H{"base64": data})
}
