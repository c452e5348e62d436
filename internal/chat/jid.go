package chat

import "strings"

// 网关 ID 的域后缀
const (
	domainIndividual = "@s.whatsapp.net"
	domainGroup      = "@g.us"
)

// IsGroupJID 判断是否群聊 ID
func IsGroupJID(id string) bool {
	return strings.Contains(id, domainGroup)
}

// IsStatusJID 判断是否状态广播 ID
func IsStatusJID(id string) bool {
	return strings.Contains(id, "status")
}

// IsIndividualJID 判断是否私聊 ID
func IsIndividualJID(id string) bool {
	return strings.Contains(id, domainIndividual)
}

// LocalPart 提取 ID 的本地部分（@ 之前），没有 @ 时返回原值
func LocalPart(id string) string {
	if i := strings.IndexByte(id, '@'); i >= 0 {
		return id[:i]
	}
	return id
}
