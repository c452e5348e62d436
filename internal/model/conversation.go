package model

// Conversation 会话信息（协调后的统一视图）
// ID 使用网关分配的 remoteJid，在同一实例内唯一，是合并时的唯一键
type Conversation struct {
	ID           string `json:"id"`                   // remoteJid（如 5511999999999@s.whatsapp.net）
	DisplayName  string `json:"display_name"`         // 显示名称，可能退化为原始 ID 或占位符
	LastMessage  string `json:"last_message"`         // 最后一条消息摘要
	LastActivity int64  `json:"last_activity"`        // 最后活动时间（秒），0 表示未知
	UnreadCount  int    `json:"unread_count"`         // 未读数，非负
	AvatarURL    string `json:"avatar_url,omitempty"` // 头像地址，可为空
	IsGroup      bool   `json:"is_group"`             // 是否群聊
}
