package moderation

// Transition is the outcome of a legal move through the state machine.
type Transition struct {
	From           Status
	To             Status
	Audit          AuditAction
	ReasonOptional bool
}

// Next resolves action from the given status. Illegal moves return a *TransitionError.
func Next(recordID string, from Status, action Action) (Transition, error) {
	switch action {
	case ActionApprove:
		switch from {
		case StatusPending, StatusAppealed:
			return Transition{From: from, To: StatusApproved, Audit: AuditApproved}, nil
		}
	case ActionReject:
		switch from {
		case StatusPending, StatusAppealed:
			return Transition{From: from, To: StatusRejected, Audit: AuditRejected}, nil
		}
	case ActionSubmitAppeal:
		if from == StatusRejected {
			return Transition{From: from, To: StatusAppealed, Audit: AuditAppealSubmitted, ReasonOptional: true}, nil
		}
	default:
		return Transition{}, NewValidationError("action", "unknown action "+string(action))
	}
	return Transition{}, &TransitionError{RecordID: recordID, Current: from, Action: action}
}

// AllowedActions lists the actions legal from status, in table order.
func AllowedActions(status Status) []Action {
	out := make([]Action, 0, 2)
	for _, action := range []Action{ActionApprove, ActionReject, ActionSubmitAppeal} {
		if _, err := Next("", status, action); err == nil {
			out = append(out, action)
		}
	}
	return out
}
