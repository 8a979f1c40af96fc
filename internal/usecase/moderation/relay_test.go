package moderation

import (
	"context"
	"errors"
	"testing"

	domainmoderation "modqueue/internal/domain/moderation"
)

func TestRelayEventsAdvancesCursor(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	ingest(t, env.svc, "e1", 50, 10)
	ingest(t, env.svc, "e2", 50, 10)
	mustTransition(t, env.svc, TransitionInput{RecordID: "e1", Action: domainmoderation.ActionReject, ActorID: "mod", Reason: "spam"})
	mustTransition(t, env.svc, TransitionInput{RecordID: "e2", Action: domainmoderation.ActionApprove, ActorID: "mod", Reason: "ok"})
	mustTransition(t, env.svc, TransitionInput{RecordID: "e1", Action: domainmoderation.ActionSubmitAppeal, ActorID: "author-e1"})

	relayed := &testPublisher{}
	env.svc.publisher = relayed

	first, err := env.svc.RelayEvents(ctx, RelayInput{Batch: 2})
	if err != nil {
		t.Fatalf("RelayEvents() error = %v", err)
	}
	if first.Delivered != 2 || first.Cursor != 2 {
		t.Fatalf("first batch = %+v", first)
	}
	second, err := env.svc.RelayEvents(ctx, RelayInput{Batch: 2})
	if err != nil {
		t.Fatalf("RelayEvents() error = %v", err)
	}
	if second.Delivered != 1 || second.Cursor != 3 {
		t.Fatalf("second batch = %+v", second)
	}

	events := relayed.published()
	if len(events) != 3 || events[2].Action != domainmoderation.AuditAppealSubmitted || events[2].Reason != domainmoderation.DefaultAppealReason {
		t.Fatalf("relayed = %+v", events)
	}
	if env.cache.value(relayCursorKey) != "3" {
		t.Fatalf("cursor = %q", env.cache.value(relayCursorKey))
	}

	idle, err := env.svc.RelayEvents(ctx, RelayInput{})
	if err != nil || idle.Delivered != 0 || idle.Cursor != 3 {
		t.Fatalf("idle relay = %+v, %v", idle, err)
	}
}

func TestRelayEventsKeepsCursorOnFailure(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	ingest(t, env.svc, "f1", 50, 10)
	mustTransition(t, env.svc, TransitionInput{RecordID: "f1", Action: domainmoderation.ActionReject, ActorID: "mod", Reason: "spam"})

	env.svc.publisher = &testPublisher{err: errors.New("broker down")}
	result, err := env.svc.RelayEvents(ctx, RelayInput{})
	if err == nil {
		t.Fatalf("RelayEvents() expected error")
	}
	if result.Delivered != 0 || result.Undelivered != 1 || result.Cursor != 0 {
		t.Fatalf("result = %+v", result)
	}
	if _, found, _ := env.cache.Get(ctx, relayCursorKey); found {
		t.Fatalf("cursor must not move when nothing was delivered")
	}

	recovered := &testPublisher{}
	env.svc.publisher = recovered
	if _, err := env.svc.RelayEvents(ctx, RelayInput{}); err != nil {
		t.Fatalf("RelayEvents() after recovery error = %v", err)
	}
	if len(recovered.published()) != 1 {
		t.Fatalf("entry was not redelivered")
	}
}

func TestSeedRelayCursorSkipsHistory(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	ingest(t, env.svc, "s1", 50, 10)
	mustTransition(t, env.svc, TransitionInput{RecordID: "s1", Action: domainmoderation.ActionReject, ActorID: "mod", Reason: "spam"})
	mustTransition(t, env.svc, TransitionInput{RecordID: "s1", Action: domainmoderation.ActionSubmitAppeal, ActorID: "author-s1"})

	cursor, seeded, err := env.svc.SeedRelayCursor(ctx)
	if err != nil {
		t.Fatalf("SeedRelayCursor() error = %v", err)
	}
	if !seeded || cursor != 2 {
		t.Fatalf("SeedRelayCursor() = %d, %v; want 2, true", cursor, seeded)
	}

	relayed := &testPublisher{}
	env.svc.publisher = relayed
	idle, err := env.svc.RelayEvents(ctx, RelayInput{})
	if err != nil || idle.Delivered != 0 || idle.Cursor != 2 {
		t.Fatalf("relay after seed = %+v, %v", idle, err)
	}

	ingest(t, env.svc, "s2", 50, 10)
	mustTransition(t, env.svc, TransitionInput{RecordID: "s2", Action: domainmoderation.ActionApprove, ActorID: "mod", Reason: "ok"})
	fresh, err := env.svc.RelayEvents(ctx, RelayInput{})
	if err != nil || fresh.Delivered != 1 || fresh.Cursor != 3 {
		t.Fatalf("relay after new transition = %+v, %v", fresh, err)
	}
	if events := relayed.published(); len(events) != 1 || events[0].RecordID != "s2" {
		t.Fatalf("relayed = %+v", events)
	}
}

func TestSeedRelayCursorKeepsExistingCursor(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	ingest(t, env.svc, "k1", 50, 10)
	mustTransition(t, env.svc, TransitionInput{RecordID: "k1", Action: domainmoderation.ActionReject, ActorID: "mod", Reason: "spam"})
	if err := env.cache.Set(ctx, relayCursorKey, "0", 0); err != nil {
		t.Fatalf("set cursor: %v", err)
	}

	cursor, seeded, err := env.svc.SeedRelayCursor(ctx)
	if err != nil {
		t.Fatalf("SeedRelayCursor() error = %v", err)
	}
	if seeded || cursor != 0 {
		t.Fatalf("SeedRelayCursor() = %d, %v; want existing cursor 0", cursor, seeded)
	}
	if env.cache.value(relayCursorKey) != "0" {
		t.Fatalf("cursor = %q", env.cache.value(relayCursorKey))
	}
}
