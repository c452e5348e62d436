package gateway

// MessageKey 消息键（网关侧的消息标识）
type MessageKey struct {
	ID        string `json:"id,omitempty"`
	RemoteJID string `json:"remoteJid,omitempty"`
	FromMe    bool   `json:"fromMe,omitempty"`
}

// MessageContent 消息内容信封
// 各字段互斥，每条消息只会命中其中一个；统一通过 chat.Classify 解读，
// 不要在别处散落类型判断
type MessageContent struct {
	Conversation        string        `json:"conversation,omitempty"`
	ExtendedTextMessage *ExtendedText `json:"extendedTextMessage,omitempty"`
	ImageMessage        *MediaMessage `json:"imageMessage,omitempty"`
	VideoMessage        *MediaMessage `json:"videoMessage,omitempty"`
	AudioMessage        *MediaMessage `json:"audioMessage,omitempty"`
	StickerMessage      *MediaMessage `json:"stickerMessage,omitempty"`
}

// ExtendedText 引用/带格式文本
type ExtendedText struct {
	Text string `json:"text,omitempty"`
}

// MediaMessage 媒体内容（图片/视频/音频/贴纸共用的字段子集）
type MediaMessage struct {
	Caption  string `json:"caption,omitempty"`
	Mimetype string `json:"mimetype,omitempty"`
	URL      string `json:"url,omitempty"`
	Seconds  int    `json:"seconds,omitempty"`
}

// MessageEnvelope 网关消息信封
type MessageEnvelope struct {
	Key              *MessageKey     `json:"key,omitempty"`
	PushName         string          `json:"pushName,omitempty"`
	Message          *MessageContent `json:"message,omitempty"`
	MessageTimestamp int64           `json:"messageTimestamp,omitempty"`
	Status           string          `json:"status,omitempty"`
}

// ChatSummary findChats 返回的会话摘要
// 不同网关版本的字段命名不一致（id/remoteJid/key.remoteJid、
// profilePicUrl/profilePictureUrl），通过访问方法统一解析
type ChatSummary struct {
	ID                string           `json:"id,omitempty"`
	RemoteJID         string           `json:"remoteJid,omitempty"`
	Key               *MessageKey      `json:"key,omitempty"`
	Name              string           `json:"name,omitempty"`
	PushName          string           `json:"pushName,omitempty"`
	VerifiedName      string           `json:"verifiedName,omitempty"`
	ProfilePicURL     string           `json:"profilePicUrl,omitempty"`
	ProfilePictureURL string           `json:"profilePictureUrl,omitempty"`
	UnreadCount       int              `json:"unreadCount,omitempty"`
	Archive           bool             `json:"archive,omitempty"`
	IsGroup           bool             `json:"isGroup,omitempty"`
	LastMessage       *MessageEnvelope `json:"lastMessage,omitempty"`
	MessageTimestamp  int64            `json:"messageTimestamp,omitempty"`
	Timestamp         int64            `json:"timestamp,omitempty"`
}

// JID 解析会话标识，按 id、remoteJid、key.remoteJid 的优先级取第一个非空值
func (c *ChatSummary) JID() string {
	if c.ID != "" {
		return c.ID
	}
	if c.RemoteJID != "" {
		return c.RemoteJID
	}
	if c.Key != nil {
		return c.Key.RemoteJID
	}
	return ""
}

// DisplayName 解析显示名称，优先用户自设昵称
func (c *ChatSummary) DisplayName() string {
	if c.PushName != "" {
		return c.PushName
	}
	if c.VerifiedName != "" {
		return c.VerifiedName
	}
	return c.Name
}

// Avatar 解析头像地址
func (c *ChatSummary) Avatar() string {
	if c.ProfilePicURL != "" {
		return c.ProfilePicURL
	}
	return c.ProfilePictureURL
}

// ActivityTimestamp 解析最后活动时间，0 表示未知
// 可能是秒或毫秒，调用方须先做单位归一化再比较
func (c *ChatSummary) ActivityTimestamp() int64 {
	if c.MessageTimestamp != 0 {
		return c.MessageTimestamp
	}
	if c.Timestamp != 0 {
		return c.Timestamp
	}
	if c.LastMessage != nil {
		return c.LastMessage.MessageTimestamp
	}
	return 0
}

// InstancePayload 实例创建/连接返回
type InstancePayload struct {
	Instance struct {
		InstanceName string `json:"instanceName"`
		InstanceID   string `json:"instanceId"`
		Status       string `json:"status"`
	} `json:"instance"`
	Hash struct {
		APIKey string `json:"apikey"`
	} `json:"hash"`
	QRCode *QRCode `json:"qrcode,omitempty"`
}

// QRCode 配对二维码
type QRCode struct {
	Base64      string `json:"base64,omitempty"`
	Code        string `json:"code,omitempty"`
	PairingCode string `json:"pairingCode,omitempty"`
}

// SendResult 发送确认
type SendResult struct {
	Key    *MessageKey `json:"key,omitempty"`
	Status string      `json:"status,omitempty"`
}
