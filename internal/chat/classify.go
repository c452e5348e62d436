package chat

import "sudooom.clinic.sync/internal/gateway"

// Kind 消息内容类型（和类型，信封各分支互斥）
type Kind int

const (
	KindText Kind = iota
	KindExtendedText
	KindImage
	KindVideo
	KindAudio
	KindSticker
	KindUnknown
)

// String 返回类型的存储标识
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindExtendedText:
		return "extended_text"
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindSticker:
		return "sticker"
	default:
		return "unknown"
	}
}

// IsMedia 是否可通过网关拉取媒体内容
func (k Kind) IsMedia() bool {
	switch k {
	case KindImage, KindVideo, KindAudio, KindSticker:
		return true
	}
	return false
}

// 媒体消息无标题时的摘要文案
const (
	previewImage   = "Imagem"
	previewVideo   = "Vídeo"
	previewAudio   = "Áudio"
	previewSticker = "Figurinha"
)

// Content 分类结果：类型标签 + 可读摘要
type Content struct {
	Kind    Kind
	Preview string
}

// Classify 从网关消息信封提取内容类型和摘要
//
// 这是和类型的唯一构造点。按固定优先级检查：纯文本 → 扩展文本 →
// 图片 → 视频 → 音频 → 贴纸；全部未命中时落到 Unknown 并返回
// 通用占位文案，这是正常回退而不是错误。
func Classify(env *gateway.MessageEnvelope) Content {
	if env == nil || env.Message == nil {
		return Content{Kind: KindUnknown, Preview: PreviewPlaceholder}
	}

	m := env.Message
	switch {
	case m.Conversation != "":
		return Content{Kind: KindText, Preview: m.Conversation}
	case m.ExtendedTextMessage != nil && m.ExtendedTextMessage.Text != "":
		return Content{Kind: KindExtendedText, Preview: m.ExtendedTextMessage.Text}
	case m.ImageMessage != nil:
		return Content{Kind: KindImage, Preview: mediaPreview(m.ImageMessage, previewImage)}
	case m.VideoMessage != nil:
		return Content{Kind: KindVideo, Preview: mediaPreview(m.VideoMessage, previewVideo)}
	case m.AudioMessage != nil:
		return Content{Kind: KindAudio, Preview: previewAudio}
	case m.StickerMessage != nil:
		return Content{Kind: KindSticker, Preview: previewSticker}
	default:
		return Content{Kind: KindUnknown, Preview: PreviewPlaceholder}
	}
}

func mediaPreview(media *gateway.MediaMessage, label string) string {
	if media.Caption != "" {
		return media.Caption
	}
	return label
}
