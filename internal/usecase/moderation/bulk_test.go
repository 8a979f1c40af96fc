package moderation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	domainmoderation "modqueue/internal/domain/moderation"
)

func TestApplyBulkReportsEveryItem(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	ingest(t, env.svc, "b1", 50, 10)
	ingest(t, env.svc, "b2", 50, 10)
	ingest(t, env.svc, "b3", 50, 10)
	mustTransition(t, env.svc, TransitionInput{RecordID: "b2", Action: domainmoderation.ActionApprove, ActorID: "mod-1", Reason: "ok"})

	result, err := env.svc.ApplyBulk(ctx, BulkInput{
		RecordIDs: []string{"b1", "b2", " ", "missing", "b3", "b1"},
		Action:    domainmoderation.ActionReject,
		ActorID:   "mod-bulk",
		Reason:    "Spam wave",
	})
	if err != nil {
		t.Fatalf("ApplyBulk() error = %v", err)
	}

	if result.Succeeded != 2 || result.Failed != 2 || result.Skipped != 0 || result.Cancelled {
		t.Fatalf("result = %+v", result)
	}
	want := []struct {
		id      string
		outcome BulkOutcome
		kind    domainmoderation.ErrorKind
		status  domainmoderation.Status
	}{
		{"b1", BulkApplied, domainmoderation.ErrorKindNone, domainmoderation.StatusRejected},
		{"b2", BulkFailed, domainmoderation.ErrorKindInvalidTransition, domainmoderation.StatusApproved},
		{"missing", BulkFailed, domainmoderation.ErrorKindNotFound, ""},
		{"b3", BulkApplied, domainmoderation.ErrorKindNone, domainmoderation.StatusRejected},
	}
	if len(result.Items) != len(want) {
		t.Fatalf("items = %+v", result.Items)
	}
	for i, w := range want {
		item := result.Items[i]
		if item.RecordID != w.id || item.Outcome != w.outcome || item.ErrorKind != w.kind || item.Status != w.status {
			t.Fatalf("item[%d] = %+v, want %+v", i, item, w)
		}
	}

	b1, err := env.svc.GetRecord(ctx, "b1")
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if len(b1.History) != 1 {
		t.Fatalf("duplicate id applied twice: history=%d", len(b1.History))
	}
}

func TestApplyBulkValidatesInput(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	if _, err := env.svc.ApplyBulk(ctx, BulkInput{RecordIDs: []string{"", " "}, Action: domainmoderation.ActionApprove, ActorID: "mod", Reason: "ok"}); !errors.Is(err, domainmoderation.ErrValidation) {
		t.Fatalf("empty ids error = %v", err)
	}
	if _, err := env.svc.ApplyBulk(ctx, BulkInput{RecordIDs: []string{"x"}, Action: "ban", ActorID: "mod", Reason: "ok"}); !errors.Is(err, domainmoderation.ErrValidation) {
		t.Fatalf("unknown action error = %v", err)
	}
	if _, err := env.svc.ApplyBulk(ctx, BulkInput{RecordIDs: []string{"x"}, Action: domainmoderation.ActionApprove, Reason: "ok"}); !errors.Is(err, domainmoderation.ErrValidation) {
		t.Fatalf("missing actor error = %v", err)
	}
}

func TestApplyBulkRunsInParallel(t *testing.T) {
	env := setupServiceWithOptions(t, Options{BulkConcurrency: 4})
	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("p%02d", i)
		ingest(t, env.svc, id, 50, 10)
		ids = append(ids, id)
	}

	result, err := env.svc.ApplyBulk(context.Background(), BulkInput{RecordIDs: ids, Action: domainmoderation.ActionApprove, ActorID: "mod", Quick: true})
	if err != nil {
		t.Fatalf("ApplyBulk() error = %v", err)
	}
	if result.Succeeded != len(ids) {
		t.Fatalf("result = %+v", result)
	}
	for i, item := range result.Items {
		if item.RecordID != ids[i] {
			t.Fatalf("items out of request order at %d: %s", i, item.RecordID)
		}
	}

	stats, err := env.svc.QueueStats(context.Background())
	if err != nil {
		t.Fatalf("QueueStats() error = %v", err)
	}
	if stats.ByStatus[domainmoderation.StatusApproved] != int64(len(ids)) {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestApplyBulkCancelledBeforeStart(t *testing.T) {
	env := setupService(t)
	ingest(t, env.svc, "c1", 50, 10)
	ingest(t, env.svc, "c2", 50, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := env.svc.ApplyBulk(ctx, BulkInput{RecordIDs: []string{"c1", "c2"}, Action: domainmoderation.ActionApprove, ActorID: "mod", Reason: "ok"})
	if err != nil {
		t.Fatalf("ApplyBulk() error = %v", err)
	}
	if !result.Cancelled || result.Skipped != 2 || result.Succeeded != 0 {
		t.Fatalf("result = %+v", result)
	}
	for _, item := range result.Items {
		if item.Outcome != BulkSkipped {
			t.Fatalf("item = %+v", item)
		}
	}
}

func TestApplyBulkCancelledMidRun(t *testing.T) {
	env := setupServiceWithOptions(t, Options{BulkConcurrency: 1})
	ingest(t, env.svc, "m1", 50, 10)
	ingest(t, env.svc, "m2", 50, 10)
	ingest(t, env.svc, "m3", 50, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.publisher.onSend = cancel

	result, err := env.svc.ApplyBulk(ctx, BulkInput{RecordIDs: []string{"m1", "m2", "m3"}, Action: domainmoderation.ActionReject, ActorID: "mod", Reason: "spam"})
	if err != nil {
		t.Fatalf("ApplyBulk() error = %v", err)
	}
	if !result.Cancelled || result.Succeeded != 1 || result.Skipped != 2 {
		t.Fatalf("result = %+v", result)
	}
	if result.Items[0].Outcome != BulkApplied {
		t.Fatalf("first item = %+v", result.Items[0])
	}

	for _, id := range []string{"m2", "m3"} {
		got, err := env.svc.GetRecord(context.Background(), id)
		if err != nil {
			t.Fatalf("GetRecord(%s) error = %v", id, err)
		}
		if got.Status != domainmoderation.StatusPending {
			t.Fatalf("skipped record %s changed to %s", id, got.Status)
		}
	}
}

func TestApplyBulkCancelAfterLastItemIsNotCancelled(t *testing.T) {
	env := setupServiceWithOptions(t, Options{BulkConcurrency: 1})
	ingest(t, env.svc, "l1", 50, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.publisher.onSend = cancel

	result, err := env.svc.ApplyBulk(ctx, BulkInput{RecordIDs: []string{"l1"}, Action: domainmoderation.ActionApprove, ActorID: "mod", Reason: "ok"})
	if err != nil {
		t.Fatalf("ApplyBulk() error = %v", err)
	}
	if ctx.Err() == nil {
		t.Fatal("context should be cancelled by the publisher hook")
	}
	if result.Cancelled || result.Succeeded != 1 || result.Skipped != 0 {
		t.Fatalf("result = %+v, want one applied item and Cancelled=false", result)
	}
}
