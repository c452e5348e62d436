package service

import (
	"context"
	"errors"
	"testing"

	"sudooom.clinic.sync/internal/gateway"
	"sudooom.clinic.sync/internal/model"
)

type stubLeadStore struct {
	phones   []string
	stageID  string
	stageErr error
	inserted []model.Lead
}

func (s *stubLeadStore) ListPhones(_ context.Context, _ string) ([]string, error) {
	return s.phones, nil
}

func (s *stubLeadStore) DefaultStageID(_ context.Context, _ string) (string, error) {
	if s.stageErr != nil {
		return "", s.stageErr
	}
	return s.stageID, nil
}

func (s *stubLeadStore) InsertLeads(_ context.Context, leads []model.Lead) error {
	s.inserted = append(s.inserted, leads...)
	return nil
}

type stubLeadPublisher struct {
	names []string
	calls int
}

func (p *stubLeadPublisher) PublishLeadsImported(_ string, names []string) error {
	p.calls++
	p.names = names
	return nil
}

func privateChat(jid, pushName string, ts int64) gateway.ChatSummary {
	return gateway.ChatSummary{ID: jid, PushName: pushName, MessageTimestamp: ts}
}

func TestContactService_ImportsNewLeads(t *testing.T) {
	fetcher := &stubFetcher{chats: []gateway.ChatSummary{
		privateChat("5511987654321@s.whatsapp.net", "Maria Silva", 200),
		privateChat("5521912345678@s.whatsapp.net", "João Souza", 100),
		{ID: "123456-7890@g.us", PushName: "Grupo da Clínica", MessageTimestamp: 300},
		{ID: "status@broadcast", MessageTimestamp: 400},
	}}
	store := &stubLeadStore{stageID: "stage-1"}
	publisher := &stubLeadPublisher{}
	svc := NewContactService(fetcher, store, publisher, "clinic-42", "clinic_42")

	if err := svc.ImportOnce(context.Background()); err != nil {
		t.Fatalf("ImportOnce failed: %v", err)
	}

	if len(store.inserted) != 2 {
		t.Fatalf("Expected 2 leads imported, got %d", len(store.inserted))
	}
	first := store.inserted[0]
	if first.Name != "Maria Silva" || first.Phone != "5511987654321" {
		t.Errorf("Unexpected first lead: %+v", first)
	}
	if first.StageID != "stage-1" || first.Status != "open" || first.Source != "WhatsApp" {
		t.Errorf("Unexpected lead defaults: %+v", first)
	}
	if first.ClinicID != "clinic-42" {
		t.Errorf("Unexpected clinic: %s", first.ClinicID)
	}

	if publisher.calls != 1 || len(publisher.names) != 2 {
		t.Errorf("Expected import event with 2 names, got %d calls / %v", publisher.calls, publisher.names)
	}
}

// TestContactService_CanonicalMatch 存量号码格式不同也能精确匹配，不重复导入
func TestContactService_CanonicalMatch(t *testing.T) {
	fetcher := &stubFetcher{chats: []gateway.ChatSummary{
		privateChat("5511987654321@s.whatsapp.net", "Maria Silva", 100),
	}}
	store := &stubLeadStore{
		phones:  []string{"(11) 98765-4321"}, // 同一号码的本地书写形式
		stageID: "stage-1",
	}
	svc := NewContactService(fetcher, store, nil, "clinic-42", "clinic_42")

	if err := svc.ImportOnce(context.Background()); err != nil {
		t.Fatalf("ImportOnce failed: %v", err)
	}
	if len(store.inserted) != 0 {
		t.Errorf("Expected known phone skipped, imported %d leads", len(store.inserted))
	}
}

// TestContactService_AmbiguousPhoneSkipped 歧义号码标记待人工处理，不静默合并
func TestContactService_AmbiguousPhoneSkipped(t *testing.T) {
	fetcher := &stubFetcher{chats: []gateway.ChatSummary{
		privateChat("5511987654321@s.whatsapp.net", "Maria Silva", 100),
	}}
	store := &stubLeadStore{
		// 两个不同存量号码归一化后相同
		phones:  []string{"11987654321", "(11) 98765-4321"},
		stageID: "stage-1",
	}
	svc := NewContactService(fetcher, store, nil, "clinic-42", "clinic_42")

	if err := svc.ImportOnce(context.Background()); err != nil {
		t.Fatalf("ImportOnce failed: %v", err)
	}
	if len(store.inserted) != 0 {
		t.Errorf("Expected ambiguous phone not re-imported, got %d leads", len(store.inserted))
	}
}

func TestContactService_DedupWithinBatch(t *testing.T) {
	fetcher := &stubFetcher{chats: []gateway.ChatSummary{
		privateChat("5511987654321@s.whatsapp.net", "Maria Silva", 200),
		privateChat("5511987654321@s.whatsapp.net", "Maria S.", 100),
	}}
	store := &stubLeadStore{stageID: "stage-1"}
	svc := NewContactService(fetcher, store, nil, "clinic-42", "clinic_42")

	if err := svc.ImportOnce(context.Background()); err != nil {
		t.Fatalf("ImportOnce failed: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Errorf("Expected duplicate phone imported once, got %d leads", len(store.inserted))
	}
}

// TestContactService_LeadNameFallback 昵称缺失或退化为原始 ID 时回退为号码标签
func TestContactService_LeadNameFallback(t *testing.T) {
	fetcher := &stubFetcher{chats: []gateway.ChatSummary{
		privateChat("5511987654321@s.whatsapp.net", "", 100),
	}}
	store := &stubLeadStore{stageID: "stage-1"}
	svc := NewContactService(fetcher, store, nil, "clinic-42", "clinic_42")

	if err := svc.ImportOnce(context.Background()); err != nil {
		t.Fatalf("ImportOnce failed: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("Expected 1 lead, got %d", len(store.inserted))
	}
	if store.inserted[0].Name != "WhatsApp 5511987654321" {
		t.Errorf("Unexpected fallback name: '%s'", store.inserted[0].Name)
	}
}

func TestContactService_NoNewLeadsNoStageLookup(t *testing.T) {
	fetcher := &stubFetcher{chats: []gateway.ChatSummary{
		privateChat("5511987654321@s.whatsapp.net", "Maria Silva", 100),
	}}
	store := &stubLeadStore{
		phones:   []string{"5511987654321"},
		stageErr: errors.New("must not be called"),
	}
	svc := NewContactService(fetcher, store, nil, "clinic-42", "clinic_42")

	if err := svc.ImportOnce(context.Background()); err != nil {
		t.Fatalf("Expected no error when nothing to import, got %v", err)
	}
}

func TestContactService_StageLookupFailure(t *testing.T) {
	fetcher := &stubFetcher{chats: []gateway.ChatSummary{
		privateChat("5511987654321@s.whatsapp.net", "Maria Silva", 100),
	}}
	store := &stubLeadStore{stageErr: errors.New("no pipeline stage")}
	svc := NewContactService(fetcher, store, nil, "clinic-42", "clinic_42")

	if err := svc.ImportOnce(context.Background()); err == nil {
		t.Fatal("Expected stage lookup failure to propagate")
	}
	if len(store.inserted) != 0 {
		t.Error("Expected no leads inserted on stage failure")
	}
}
