package moderation

import (
	"fmt"
	"strings"
)

// Band is an advisory bucket derived from a numeric score. Bands never change status.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

const (
	MinScore = 0
	MaxScore = 100
)

func QualityBand(score int) Band {
	switch {
	case score < 40:
		return BandLow
	case score < 70:
		return BandMedium
	default:
		return BandHigh
	}
}

func SpamBand(score int) Band {
	switch {
	case score <= 30:
		return BandLow
	case score <= 60:
		return BandMedium
	default:
		return BandHigh
	}
}

func ParseBand(raw string) (Band, error) {
	switch b := Band(strings.ToLower(strings.TrimSpace(raw))); b {
	case BandLow, BandMedium, BandHigh:
		return b, nil
	default:
		return "", NewValidationError("band", fmt.Sprintf("unknown band %q", raw))
	}
}

func ValidateScore(field string, score int) error {
	if score < MinScore || score > MaxScore {
		return NewValidationError(field, fmt.Sprintf("must be within [%d,%d], got %d", MinScore, MaxScore, score))
	}
	return nil
}

func bandWeight(b Band) int {
	switch b {
	case BandHigh:
		return 2
	case BandMedium:
		return 1
	default:
		return 0
	}
}

// TriageLess orders records for the default queue: riskier spam first, then lower
// quality, then older submissions.
func TriageLess(a ContentRecord, b ContentRecord) bool {
	if sa, sb := bandWeight(SpamBand(a.SpamScore)), bandWeight(SpamBand(b.SpamScore)); sa != sb {
		return sa > sb
	}
	if qa, qb := bandWeight(QualityBand(a.QualityScore)), bandWeight(QualityBand(b.QualityScore)); qa != qb {
		return qa < qb
	}
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.ID < b.ID
}
