package model

// Lead CRM 线索（从 WhatsApp 会话导入的联系人）
type Lead struct {
	ID       string `json:"id,omitempty"`
	ClinicID string `json:"clinic_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`    // 规范化前的本地号码（remoteJid 的本地部分）
	StageID  string `json:"stage_id"` // 所属漏斗阶段
	Status   string `json:"status"`
	Source   string `json:"source"` // 来源标记，导入时为 WhatsApp
}
