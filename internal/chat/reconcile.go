package chat

import (
	"sort"
	"strings"

	"sudooom.clinic.sync/internal/model"
)

// PreviewPlaceholder 网关在没有真实内容时返回的通用占位文案
// 上游措辞变更会使判定失效，属于已知限制
const PreviewPlaceholder = "Mensagem"

// msThreshold 时间戳超过该值视为毫秒（约 5138 年的秒值，不会误伤正常秒值）
const msThreshold int64 = 100_000_000_000

// NormalizeTimestamp 将毫秒级时间戳统一为秒
// 两个数据源的单位不保证一致，任何比较或排序前都必须先归一化
func NormalizeTimestamp(ts int64) int64 {
	if ts > msThreshold {
		return ts / 1000
	}
	return ts
}

// FallbackName 名称不可用时的展示回退：ID 的本地部分
func FallbackName(id string) string {
	return LocalPart(id)
}

// GoodName 判断名称是否可用
// 退化形态：空、等于原始 ID、包含 @ 域后缀、等于本地号码回退值
func GoodName(name, id string) bool {
	if name == "" {
		return false
	}
	if name == id {
		return false
	}
	if strings.Contains(name, "@") {
		return false
	}
	if name == FallbackName(id) {
		return false
	}
	return true
}

// Reconcile 合并内存中的会话列表与网关新拉取的列表
//
// 纯函数，无任何 I/O；调用方负责取数与落库。合并键是会话 ID：
//   - 仅存在于 current：保留（网关瞬时缺失不等于会话消失，避免列表闪烁）
//   - 仅存在于 incoming：收录为新会话
//   - 两边都有：逐字段按质量规则合并，本地已知的好名称不被远端的退化值覆盖
//
// incoming 为空（上游取数失败在本层表现为空列表）时原样返回 current，
// 不会把列表坍缩为空；未读数始终服从 readState 的压制规则。
// 结果按活动时间降序稳定排序，时间相同保持并集构建顺序。
func Reconcile(current, incoming []model.Conversation, readState map[string]int64) []model.Conversation {
	merged := make([]model.Conversation, 0, len(current)+len(incoming))

	if len(incoming) == 0 {
		merged = append(merged, current...)
		finalize(merged, readState)
		return merged
	}

	incomingByID := indexByID(incoming)
	currentByID := indexByID(current)

	seen := make(map[string]struct{}, len(current)+len(incoming))
	for _, cur := range current {
		if _, dup := seen[cur.ID]; dup {
			continue
		}
		seen[cur.ID] = struct{}{}

		if inc, ok := incomingByID[cur.ID]; ok {
			merged = append(merged, mergeEntry(cur, inc))
		} else {
			cur.LastActivity = NormalizeTimestamp(cur.LastActivity)
			merged = append(merged, cur)
		}
	}
	for _, inc := range incoming {
		if _, ok := currentByID[inc.ID]; ok {
			continue
		}
		if _, dup := seen[inc.ID]; dup {
			continue
		}
		seen[inc.ID] = struct{}{}

		inc.LastActivity = NormalizeTimestamp(inc.LastActivity)
		if !GoodName(inc.DisplayName, inc.ID) {
			inc.DisplayName = FallbackName(inc.ID)
		}
		if inc.UnreadCount < 0 {
			inc.UnreadCount = 0
		}
		merged = append(merged, inc)
	}

	finalize(merged, readState)
	return merged
}

// mergeEntry 逐字段合并同一会话的新旧两条记录
func mergeEntry(cur, inc model.Conversation) model.Conversation {
	out := cur
	out.LastActivity = NormalizeTimestamp(cur.LastActivity)

	// 名称不降级：旧值可用就保留，否则依次尝试新值、回退格式
	if !GoodName(out.DisplayName, out.ID) {
		if GoodName(inc.DisplayName, inc.ID) {
			out.DisplayName = inc.DisplayName
		} else {
			out.DisplayName = FallbackName(out.ID)
		}
	}

	if inc.LastMessage != "" && inc.LastMessage != PreviewPlaceholder {
		out.LastMessage = inc.LastMessage
	}

	if ts := NormalizeTimestamp(inc.LastActivity); ts != 0 {
		out.LastActivity = ts
	}

	if inc.AvatarURL != "" {
		out.AvatarURL = inc.AvatarURL
	}

	// 未读数以网关为准，后续由 readState 压制
	out.UnreadCount = inc.UnreadCount
	if out.UnreadCount < 0 {
		out.UnreadCount = 0
	}

	out.IsGroup = cur.IsGroup || inc.IsGroup
	return out
}

// finalize 应用已读压制并按活动时间降序稳定排序
func finalize(merged []model.Conversation, readState map[string]int64) {
	for i := range merged {
		if ts, ok := readState[merged[i].ID]; ok && NormalizeTimestamp(ts) >= merged[i].LastActivity {
			merged[i].UnreadCount = 0
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].LastActivity > merged[j].LastActivity
	})
}

func indexByID(list []model.Conversation) map[string]model.Conversation {
	m := make(map[string]model.Conversation, len(list))
	for _, c := range list {
		if _, ok := m[c.ID]; ok {
			continue // 同一输入内的重复 ID 取首次出现
		}
		m[c.ID] = c
	}
	return m
}
