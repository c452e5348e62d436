package nats

// NATS Subject 常量定义
const (
	// SubjectChatUpdatedPrefix 会话列表协调完成事件前缀
	// 完整格式: clinic.chat.updated.{instance}
	SubjectChatUpdatedPrefix = "clinic.chat.updated."

	// SubjectLeadImportedPrefix 线索导入事件前缀
	// 完整格式: clinic.lead.imported.{instance}
	SubjectLeadImportedPrefix = "clinic.lead.imported."
)

// BuildChatUpdatedSubject 构建会话更新事件 Subject
func BuildChatUpdatedSubject(instance string) string {
	return SubjectChatUpdatedPrefix + instance
}

// BuildLeadImportedSubject 构建线索导入事件 Subject
func BuildLeadImportedSubject(instance string) string {
	return SubjectLeadImportedPrefix + instance
}
