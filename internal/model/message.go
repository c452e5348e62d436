package model

// Message 消息记录（持久化存储的一行）
type Message struct {
	ExternalID string `json:"external_id"` // 网关分配的消息 ID
	FromMe     bool   `json:"from_me"`     // 是否本端发出
	Kind       string `json:"kind"`        // 内容类型（text/image/video/audio/sticker/unknown）
	Content    string `json:"content"`     // 文本内容或媒体摘要
	Timestamp  int64  `json:"timestamp"`   // 消息时间（秒）
	Status     string `json:"status"`      // 投递状态
}
