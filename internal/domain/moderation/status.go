package moderation

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a content record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusAppealed Status = "appealed"
)

var allStatuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusAppealed}

func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func ParseStatus(raw string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range allStatuses {
		if s == candidate {
			return s, nil
		}
	}
	return "", NewValidationError("status", fmt.Sprintf("unknown status %q", raw))
}

// Kind is the type of moderatable content.
type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
	KindUser    Kind = "user"
)

func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindPost, KindComment, KindUser:
		return k, nil
	default:
		return "", NewValidationError("kind", fmt.Sprintf("unknown kind %q", raw))
	}
}

// Action is a transition a caller may request.
type Action string

const (
	ActionApprove      Action = "approve"
	ActionReject       Action = "reject"
	ActionSubmitAppeal Action = "submitAppeal"
)

func ParseAction(raw string) (Action, error) {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "approve":
		return ActionApprove, nil
	case "reject":
		return ActionReject, nil
	case "submitappeal", "appeal", "submit-appeal":
		return ActionSubmitAppeal, nil
	default:
		return "", NewValidationError("action", fmt.Sprintf("unknown action %q", raw))
	}
}

// AuditAction is the name recorded in the audit trail for a committed transition.
type AuditAction string

const (
	AuditApproved        AuditAction = "Approved"
	AuditRejected        AuditAction = "Rejected"
	AuditAppealSubmitted AuditAction = "AppealSubmitted"
)

// Target is the status an audit action leaves the record in.
func (a AuditAction) Target() (Status, bool) {
	switch a {
	case AuditApproved:
		return StatusApproved, true
	case AuditRejected:
		return StatusRejected, true
	case AuditAppealSubmitted:
		return StatusAppealed, true
	default:
		return "", false
	}
}

// SystemActor identifies automated transitions.
const SystemActor = "SYSTEM"
