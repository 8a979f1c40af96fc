package moderation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ReasonPolicy decides which reasons are acceptable at the engine boundary.
type ReasonPolicy struct {
	AppealDefault     string
	RejectBoilerplate bool
	Boilerplate       []string
	MinLength         int
}

func DefaultReasonPolicy() ReasonPolicy {
	return ReasonPolicy{
		AppealDefault: DefaultAppealReason,
		Boilerplate:   []string{"Quick approve", "Quick reject"},
		MinLength:     1,
	}
}

// Resolve returns the reason to record for t, or a *ValidationError.
func (p ReasonPolicy) Resolve(t Transition, reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" && t.ReasonOptional {
		reason = strings.TrimSpace(p.AppealDefault)
		if reason == "" {
			reason = DefaultAppealReason
		}
		return reason, nil
	}
	if reason == "" {
		return "", NewValidationError("reason", fmt.Sprintf("a reason is required to move a record to %s", t.To))
	}
	if t.ReasonOptional {
		return reason, nil
	}

	minLength := p.MinLength
	if minLength < 1 {
		minLength = 1
	}
	if utf8.RuneCountInString(reason) < minLength {
		return "", NewValidationError("reason", fmt.Sprintf("must be at least %d characters", minLength))
	}
	if p.RejectBoilerplate && p.isBoilerplate(reason) {
		return "", NewValidationError("reason", fmt.Sprintf("boilerplate reason %q is not accepted", reason))
	}
	return reason, nil
}

func (p ReasonPolicy) isBoilerplate(reason string) bool {
	for _, b := range p.Boilerplate {
		if strings.EqualFold(strings.TrimSpace(b), reason) {
			return true
		}
	}
	return false
}
