package moderation

// DefaultAppealReason is recorded when an appeal is submitted without a reason.
const DefaultAppealReason = "User requested review"

// HasUnresolvedAppeal reports whether the latest appeal in history has not yet been
// followed by an approval or rejection.
func HasUnresolvedAppeal(history []AuditEntry) bool {
	for i := len(history) - 1; i >= 0; i-- {
		switch history[i].Action {
		case AuditAppealSubmitted:
			return true
		case AuditApproved, AuditRejected:
			return false
		}
	}
	return false
}

// CheckAppeal rejects a second appeal while one is still open.
func CheckAppeal(record ContentRecord) error {
	if HasUnresolvedAppeal(record.History) {
		return &TransitionError{
			RecordID: record.ID,
			Current:  record.Status,
			Action:   ActionSubmitAppeal,
			Detail:   "an appeal is already awaiting review",
		}
	}
	return nil
}
