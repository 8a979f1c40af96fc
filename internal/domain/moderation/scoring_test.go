package moderation

import (
	"errors"
	"sort"
	"testing"
	"time"
)

func TestQualityBandBoundaries(t *testing.T) {
	for score, want := range map[int]Band{0: BandLow, 39: BandLow, 40: BandMedium, 69: BandMedium, 70: BandHigh, 100: BandHigh} {
		if got := QualityBand(score); got != want {
			t.Fatalf("QualityBand(%d) = %s, want %s", score, got, want)
		}
	}
}

func TestSpamBandBoundaries(t *testing.T) {
	for score, want := range map[int]Band{0: BandLow, 30: BandLow, 31: BandMedium, 60: BandMedium, 61: BandHigh, 100: BandHigh} {
		if got := SpamBand(score); got != want {
			t.Fatalf("SpamBand(%d) = %s, want %s", score, got, want)
		}
	}
}

func TestValidateScore(t *testing.T) {
	if err := ValidateScore("spam_score", 100); err != nil {
		t.Fatalf("ValidateScore(100) error = %v", err)
	}
	if err := ValidateScore("spam_score", 101); !errors.Is(err, ErrValidation) {
		t.Fatalf("ValidateScore(101) error = %v", err)
	}
	if err := ValidateScore("quality_score", -1); !errors.Is(err, ErrValidation) {
		t.Fatalf("ValidateScore(-1) error = %v", err)
	}
}

func TestTriageLessOrdersRiskFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []ContentRecord{
		{ID: "clean", SpamScore: 5, QualityScore: 90, SubmittedAt: base},
		{ID: "spammy", SpamScore: 80, QualityScore: 90, SubmittedAt: base.Add(time.Hour)},
		{ID: "low-quality", SpamScore: 5, QualityScore: 10, SubmittedAt: base.Add(2 * time.Hour)},
		{ID: "clean-older", SpamScore: 5, QualityScore: 90, SubmittedAt: base.Add(-time.Hour)},
	}
	sort.SliceStable(records, func(i, j int) bool { return TriageLess(records[i], records[j]) })

	want := []string{"spammy", "low-quality", "clean-older", "clean"}
	for i, id := range want {
		if records[i].ID != id {
			t.Fatalf("position %d = %s, want %s (order %v)", i, records[i].ID, id, ids(records))
		}
	}
}

func ids(records []ContentRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestReasonPolicyResolve(t *testing.T) {
	policy := DefaultReasonPolicy()
	approve := Transition{From: StatusPending, To: StatusApproved, Audit: AuditApproved}
	appeal := Transition{From: StatusRejected, To: StatusAppealed, Audit: AuditAppealSubmitted, ReasonOptional: true}

	if _, err := policy.Resolve(approve, "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("Resolve(blank approve) error = %v, want ErrValidation", err)
	}
	if got, err := policy.Resolve(approve, " Quick approve "); err != nil || got != "Quick approve" {
		t.Fatalf("Resolve(quick approve) = %q, %v", got, err)
	}
	if got, err := policy.Resolve(appeal, ""); err != nil || got != DefaultAppealReason {
		t.Fatalf("Resolve(blank appeal) = %q, %v", got, err)
	}

	policy.RejectBoilerplate = true
	if _, err := policy.Resolve(approve, "quick APPROVE"); !errors.Is(err, ErrValidation) {
		t.Fatalf("Resolve(boilerplate) error = %v, want ErrValidation", err)
	}

	policy.MinLength = 10
	if _, err := policy.Resolve(approve, "ok"); !errors.Is(err, ErrValidation) {
		t.Fatalf("Resolve(short) error = %v, want ErrValidation", err)
	}
}
