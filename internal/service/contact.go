package service

import (
	"context"
	"log/slog"
	"sort"

	"sudooom.clinic.sync/internal/chat"
	"sudooom.clinic.sync/internal/gateway"
	"sudooom.clinic.sync/internal/model"
)

// LeadStore 线索读写
type LeadStore interface {
	ListPhones(ctx context.Context, clinicID string) ([]string, error)
	DefaultStageID(ctx context.Context, clinicID string) (string, error)
	InsertLeads(ctx context.Context, leads []model.Lead) error
}

// LeadEventPublisher 线索导入事件出口
type LeadEventPublisher interface {
	PublishLeadsImported(instance string, names []string) error
}

// ContactService 联系人导入服务
//
// 把网关侧的私聊会话导入为 CRM 线索。号码匹配用规范形式做精确比较；
// 两个不同的存量号码归一化后相同视为歧义，记日志跳过等待人工处理，
// 不做静默合并。
type ContactService struct {
	fetcher   ChatFetcher
	leads     LeadStore
	publisher LeadEventPublisher

	clinicID     string
	instanceName string
	logger       *slog.Logger
}

// NewContactService 创建联系人导入服务
func NewContactService(fetcher ChatFetcher, leads LeadStore, publisher LeadEventPublisher,
	clinicID, instanceName string) *ContactService {
	return &ContactService{
		fetcher:      fetcher,
		leads:        leads,
		publisher:    publisher,
		clinicID:     clinicID,
		instanceName: instanceName,
		logger:       slog.Default(),
	}
}

// ImportOnce 执行一轮导入
func (s *ContactService) ImportOnce(ctx context.Context) error {
	summaries, err := s.fetcher.FindChats(ctx, s.instanceName)
	if err != nil {
		s.logger.Warn("Contact fetch failed", "error", err)
		return err
	}

	private := filterPrivateChats(summaries)
	if len(private) == 0 {
		return nil
	}

	phones, err := s.leads.ListPhones(ctx, s.clinicID)
	if err != nil {
		s.logger.Warn("Lead phone listing failed", "error", err)
		return err
	}

	known, ambiguous := canonicalIndex(phones)
	for canon := range ambiguous {
		s.logger.Warn("Ambiguous phone mapping, flagged for manual review",
			"canonical", canon)
	}

	newLeads := s.collectNewLeads(private, known)
	if len(newLeads) == 0 {
		return nil
	}

	stageID, err := s.leads.DefaultStageID(ctx, s.clinicID)
	if err != nil {
		s.logger.Error("Default pipeline stage lookup failed", "error", err)
		return err
	}
	for i := range newLeads {
		newLeads[i].StageID = stageID
	}

	if err := s.leads.InsertLeads(ctx, newLeads); err != nil {
		s.logger.Error("Lead insert failed", "error", err)
		return err
	}

	names := make([]string, len(newLeads))
	for i, lead := range newLeads {
		names[i] = lead.Name
	}
	s.logger.Info("Imported leads from chats", "count", len(newLeads))

	if s.publisher != nil {
		if err := s.publisher.PublishLeadsImported(s.instanceName, names); err != nil {
			s.logger.Warn("Lead import publish failed", "error", err)
		}
	}
	return nil
}

// collectNewLeads 过滤出存量线索中没有的号码
func (s *ContactService) collectNewLeads(private []gateway.ChatSummary, known map[string]string) []model.Lead {
	var leads []model.Lead
	imported := make(map[string]struct{})

	for _, summary := range private {
		local := chat.LocalPart(summary.JID())
		canon, err := chat.CanonicalPhone(local)
		if err != nil {
			s.logger.Debug("Skipping chat with unusable phone", "jid", summary.JID(), "error", err)
			continue
		}
		if _, exists := known[canon]; exists {
			continue
		}
		if _, dup := imported[canon]; dup {
			continue
		}
		imported[canon] = struct{}{}

		leads = append(leads, model.Lead{
			ClinicID: s.clinicID,
			Name:     leadName(summary),
			Phone:    local,
			Status:   "open",
			Source:   "WhatsApp",
		})
	}
	return leads
}

// leadName 线索命名：优先用户自设昵称，全部缺失时回退为号码标签
func leadName(summary gateway.ChatSummary) string {
	if name := summary.DisplayName(); chat.GoodName(name, summary.JID()) {
		return name
	}
	return "WhatsApp " + chat.LocalPart(summary.JID())
}

// filterPrivateChats 只保留私聊会话，按活动时间倒序
func filterPrivateChats(summaries []gateway.ChatSummary) []gateway.ChatSummary {
	private := make([]gateway.ChatSummary, 0, len(summaries))
	for _, summary := range summaries {
		jid := summary.JID()
		if jid == "" || summary.IsGroup || chat.IsGroupJID(jid) || chat.IsStatusJID(jid) {
			continue
		}
		if !chat.IsIndividualJID(jid) {
			continue
		}
		private = append(private, summary)
	}

	sort.SliceStable(private, func(i, j int) bool {
		return chat.NormalizeTimestamp(private[i].ActivityTimestamp()) >
			chat.NormalizeTimestamp(private[j].ActivityTimestamp())
	})
	return private
}

// canonicalIndex 建立规范号码索引，返回歧义集合（同一规范形式对应
// 多个不同的存量号码）
func canonicalIndex(phones []string) (known map[string]string, ambiguous map[string]struct{}) {
	known = make(map[string]string, len(phones))
	ambiguous = make(map[string]struct{})

	for _, phone := range phones {
		canon, err := chat.CanonicalPhone(phone)
		if err != nil {
			continue
		}
		if prev, ok := known[canon]; ok && prev != phone {
			ambiguous[canon] = struct{}{}
			continue
		}
		known[canon] = phone
	}
	return known, ambiguous
}
