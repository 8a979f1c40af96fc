package queueconsole

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/usecase/moderation"
)

type stubQueueService struct {
	items       []moderation.QueueItem
	filter      moderation.QueueFilter
	transitions []moderation.TransitionInput
	err         error
}

func (s *stubQueueService) ListQueue(_ context.Context, filter moderation.QueueFilter) ([]moderation.QueueItem, error) {
	s.filter = filter
	return s.items, nil
}

func (s *stubQueueService) GetRecord(_ context.Context, recordID string) (domainmoderation.ContentRecord, error) {
	for _, item := range s.items {
		if item.Record.ID == recordID {
			return item.Record, nil
		}
	}
	return domainmoderation.ContentRecord{}, &domainmoderation.NotFoundError{RecordID: recordID}
}

func (s *stubQueueService) QueueStats(context.Context) (moderation.QueueStats, error) {
	return moderation.QueueStats{
		ByStatus: map[domainmoderation.Status]int64{domainmoderation.StatusPending: int64(len(s.items))},
		Total:    int64(len(s.items)),
	}, nil
}

func (s *stubQueueService) ApplyTransition(_ context.Context, input moderation.TransitionInput) (domainmoderation.ContentRecord, error) {
	s.transitions = append(s.transitions, input)
	if s.err != nil {
		return domainmoderation.ContentRecord{}, s.err
	}
	return domainmoderation.ContentRecord{ID: input.RecordID, Status: domainmoderation.StatusApproved}, nil
}

func testItems() []moderation.QueueItem {
	return []moderation.QueueItem{
		{
			Record:      domainmoderation.ContentRecord{ID: "r1", Kind: domainmoderation.KindPost, Status: domainmoderation.StatusPending, SpamScore: 90},
			SpamBand:    domainmoderation.BandHigh,
			QualityBand: domainmoderation.BandLow,
		},
		{
			Record:      domainmoderation.ContentRecord{ID: "r2", Kind: domainmoderation.KindComment, Status: domainmoderation.StatusAppealed},
			SpamBand:    domainmoderation.BandLow,
			QualityBand: domainmoderation.BandMedium,
		},
	}
}

func runeKey(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func loadedModel(t *testing.T, svc *stubQueueService, actor string) *queueModel {
	t.Helper()

	model := NewQueueModel(context.Background(), svc, Options{Actor: actor}).(*queueModel)
	msg := model.loadQueueCmd()()
	if _, cmd := model.Update(msg); cmd != nil {
		model.Update(cmd())
	}
	return model
}

func TestQueueModelLoadsQueueAndDetail(t *testing.T) {
	svc := &stubQueueService{items: testItems()}
	model := loadedModel(t, svc, "mod-1")

	if len(model.items) != 2 || !model.hasDetail || model.detail.ID != "r1" {
		t.Fatalf("model = items %d detail %v %q", len(model.items), model.hasDetail, model.detail.ID)
	}
	if svc.filter.Status != "" {
		t.Fatalf("default view filter = %q, want actionable queue", svc.filter.Status)
	}

	view := model.View()
	if !strings.Contains(view, "r1 [pending]") || !strings.Contains(view, "view=actionable") {
		t.Fatalf("View() missing queue rows:\n%s", view)
	}
}

func TestQueueModelNavigationLoadsSelectedDetail(t *testing.T) {
	model := loadedModel(t, &stubQueueService{items: testItems()}, "mod-1")

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyDown})
	if model.selectedIndex != 1 || cmd == nil {
		t.Fatalf("selectedIndex = %d, cmd nil = %v", model.selectedIndex, cmd == nil)
	}
	model.Update(cmd())
	if model.detail.ID != "r2" {
		t.Fatalf("detail = %q, want r2", model.detail.ID)
	}

	if _, cmd := model.Update(tea.KeyMsg{Type: tea.KeyDown}); cmd != nil || model.selectedIndex != 1 {
		t.Fatalf("down at the end should be a no-op")
	}
}

func TestQueueModelStaleDetailIsIgnored(t *testing.T) {
	model := loadedModel(t, &stubQueueService{items: testItems()}, "mod-1")

	model.Update(detailLoadedMsg{recordID: "r2", record: domainmoderation.ContentRecord{ID: "r2"}})
	if model.detail.ID != "r1" {
		t.Fatalf("detail = %q, stale message should be dropped", model.detail.ID)
	}
}

func TestQueueModelQuickApprove(t *testing.T) {
	svc := &stubQueueService{items: testItems()}
	model := loadedModel(t, svc, "mod-1")

	_, cmd := model.Update(runeKey("a"))
	if cmd == nil {
		t.Fatal("approve should return a command")
	}
	model.Update(cmd())

	if len(svc.transitions) != 1 {
		t.Fatalf("transitions = %d, want 1", len(svc.transitions))
	}
	got := svc.transitions[0]
	if got.RecordID != "r1" || got.Action != domainmoderation.ActionApprove || got.ActorID != "mod-1" || !got.Quick {
		t.Fatalf("transition input = %+v", got)
	}
	if !strings.Contains(model.status, "approve done") || len(model.auditLogs) != 1 {
		t.Fatalf("status = %q audit = %v", model.status, model.auditLogs)
	}
}

func TestQueueModelActionFailureIsReported(t *testing.T) {
	svc := &stubQueueService{
		items: testItems(),
		err:   &domainmoderation.TransitionError{RecordID: "r1", Current: domainmoderation.StatusApproved, Action: domainmoderation.ActionReject},
	}
	model := loadedModel(t, svc, "mod-1")

	_, cmd := model.Update(runeKey("x"))
	model.Update(cmd())

	if !strings.Contains(model.status, "reject failed") {
		t.Fatalf("status = %q", model.status)
	}
	if !strings.Contains(model.auditLogs[0], "invalid_transition") {
		t.Fatalf("audit log = %v", model.auditLogs)
	}
	if !errors.Is(svc.err, domainmoderation.ErrInvalidTransition) {
		t.Fatal("stub error should be an invalid transition")
	}
}

func TestQueueModelRequiresActor(t *testing.T) {
	svc := &stubQueueService{items: testItems()}
	model := loadedModel(t, svc, "")

	if _, cmd := model.Update(runeKey("a")); cmd != nil {
		t.Fatal("approve without actor should not run")
	}
	if len(svc.transitions) != 0 || !strings.Contains(model.status, "--actor") {
		t.Fatalf("status = %q transitions = %d", model.status, len(svc.transitions))
	}
}

func TestQueueModelCyclesStatusView(t *testing.T) {
	svc := &stubQueueService{items: testItems()}
	model := loadedModel(t, svc, "mod-1")

	_, cmd := model.Update(runeKey("f"))
	cmd()
	if svc.filter.Status != domainmoderation.StatusPending {
		t.Fatalf("filter after one cycle = %q, want pending", svc.filter.Status)
	}
	for range statusViews {
		model.Update(runeKey("f"))
	}
	if model.viewIndex != 1 {
		t.Fatalf("viewIndex = %d, want wrap to 1", model.viewIndex)
	}
}
