package moderation

import (
	"errors"
	"testing"
	"time"
)

func TestNextFollowsTransitionTable(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		to     Status
		audit  AuditAction
	}{
		{StatusPending, ActionApprove, StatusApproved, AuditApproved},
		{StatusPending, ActionReject, StatusRejected, AuditRejected},
		{StatusRejected, ActionSubmitAppeal, StatusAppealed, AuditAppealSubmitted},
		{StatusAppealed, ActionApprove, StatusApproved, AuditApproved},
		{StatusAppealed, ActionReject, StatusRejected, AuditRejected},
	}
	for _, tc := range cases {
		got, err := Next("r1", tc.from, tc.action)
		if err != nil {
			t.Fatalf("Next(%s, %s) error = %v", tc.from, tc.action, err)
		}
		if got.To != tc.to || got.Audit != tc.audit || got.From != tc.from {
			t.Fatalf("Next(%s, %s) = %+v", tc.from, tc.action, got)
		}
	}
}

func TestNextRejectsIllegalMoves(t *testing.T) {
	illegal := []struct {
		from   Status
		action Action
	}{
		{StatusApproved, ActionApprove},
		{StatusApproved, ActionReject},
		{StatusApproved, ActionSubmitAppeal},
		{StatusRejected, ActionApprove},
		{StatusRejected, ActionReject},
		{StatusPending, ActionSubmitAppeal},
		{StatusAppealed, ActionSubmitAppeal},
	}
	for _, tc := range illegal {
		_, err := Next("r1", tc.from, tc.action)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Next(%s, %s) error = %v, want ErrInvalidTransition", tc.from, tc.action, err)
		}
		var te *TransitionError
		if !errors.As(err, &te) || te.Current != tc.from || te.Action != tc.action {
			t.Fatalf("Next(%s, %s) transition error = %#v", tc.from, tc.action, te)
		}
		if KindOf(err) != ErrorKindInvalidTransition {
			t.Fatalf("KindOf() = %q", KindOf(err))
		}
	}
}

func TestNextRejectsUnknownAction(t *testing.T) {
	_, err := Next("r1", StatusPending, Action("delete"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Next(delete) error = %v, want ErrValidation", err)
	}
}

func TestAllowedActions(t *testing.T) {
	if got := AllowedActions(StatusRejected); len(got) != 1 || got[0] != ActionSubmitAppeal {
		t.Fatalf("AllowedActions(rejected) = %v", got)
	}
	if got := AllowedActions(StatusApproved); len(got) != 0 {
		t.Fatalf("AllowedActions(approved) = %v", got)
	}
	if got := AllowedActions(StatusAppealed); len(got) != 2 {
		t.Fatalf("AllowedActions(appealed) = %v", got)
	}
}

func TestParseAction(t *testing.T) {
	for raw, want := range map[string]Action{
		"approve":       ActionApprove,
		" Reject ":      ActionReject,
		"submitAppeal":  ActionSubmitAppeal,
		"appeal":        ActionSubmitAppeal,
		"submit-appeal": ActionSubmitAppeal,
	} {
		got, err := ParseAction(raw)
		if err != nil || got != want {
			t.Fatalf("ParseAction(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseAction("ban"); !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseAction(ban) error = %v", err)
	}
}

func TestHasUnresolvedAppeal(t *testing.T) {
	rejected := AuditEntry{Action: AuditRejected}
	appealed := AuditEntry{Action: AuditAppealSubmitted}

	if HasUnresolvedAppeal(nil) {
		t.Fatalf("empty history should have no open appeal")
	}
	if !HasUnresolvedAppeal([]AuditEntry{rejected, appealed}) {
		t.Fatalf("trailing AppealSubmitted should be open")
	}
	if HasUnresolvedAppeal([]AuditEntry{rejected, appealed, rejected}) {
		t.Fatalf("appeal followed by Rejected should be resolved")
	}

	err := CheckAppeal(ContentRecord{ID: "r9", Status: StatusAppealed, History: []AuditEntry{rejected, appealed}})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("CheckAppeal() error = %v, want ErrInvalidTransition", err)
	}
}

func TestVerifyHistory(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	record := ContentRecord{
		ID:     "r2",
		Status: StatusAppealed,
		History: []AuditEntry{
			{Seq: 1, Action: AuditRejected, FromStatus: StatusPending, ToStatus: StatusRejected, Reason: "spam", Timestamp: ts},
			{Seq: 2, Action: AuditAppealSubmitted, FromStatus: StatusRejected, ToStatus: StatusAppealed, Reason: DefaultAppealReason, Timestamp: ts},
		},
	}
	if err := VerifyHistory(record); err != nil {
		t.Fatalf("VerifyHistory() error = %v", err)
	}

	record.Status = StatusRejected
	if err := VerifyHistory(record); err == nil {
		t.Fatalf("VerifyHistory() expected status mismatch")
	}

	record.Status = StatusAppealed
	record.History[1].Timestamp = ts.Add(-time.Second)
	if err := VerifyHistory(record); err == nil {
		t.Fatalf("VerifyHistory() expected backwards timestamp error")
	}

	if err := VerifyHistory(ContentRecord{ID: "fresh", Status: StatusPending}); err != nil {
		t.Fatalf("VerifyHistory(pending, empty) error = %v", err)
	}
}

func TestCommitTimestampNeverGoesBackwards(t *testing.T) {
	last := AuditEntry{Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	earlier := last.Timestamp.Add(-time.Minute)

	if got := CommitTimestamp(earlier, last, true); !got.Equal(last.Timestamp) {
		t.Fatalf("CommitTimestamp() = %v, want %v", got, last.Timestamp)
	}
	later := last.Timestamp.Add(time.Minute)
	if got := CommitTimestamp(later, last, true); !got.Equal(later) {
		t.Fatalf("CommitTimestamp() = %v, want %v", got, later)
	}
	if got := CommitTimestamp(earlier, AuditEntry{}, false); !got.Equal(earlier) {
		t.Fatalf("CommitTimestamp(no history) = %v", got)
	}
}
