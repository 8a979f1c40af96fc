package moderation

import (
	"fmt"
	"time"
)

type Author struct {
	ID          string
	DisplayName string
}

// ContentRecord is the moderatable unit and its lifecycle state.
type ContentRecord struct {
	ID             string
	Kind           Kind
	Author         Author
	Body           string
	SubmittedAt    time.Time
	Status         Status
	Flags          []string
	QualityScore   int
	SpamScore      int
	ModeratorNotes string
	Version        uint64
	UpdatedAt      time.Time
	History        []AuditEntry
}

// AuditEntry is one committed transition. Entries are never edited.
type AuditEntry struct {
	EntryID     uint64
	RecordID    string
	Seq         uint64
	Action      AuditAction
	ModeratorID string
	Timestamp   time.Time
	Reason      string
	FromStatus  Status
	ToStatus    Status
}

func (e AuditEntry) IsTerminal() bool {
	return e.Action == AuditApproved || e.Action == AuditRejected
}

// ResolvesAppeal reports whether the entry closed an open appeal.
func (e AuditEntry) ResolvesAppeal() bool {
	return e.IsTerminal() && e.FromStatus == StatusAppealed
}

// HasFlag reports whether the record carries the advisory tag.
func (r ContentRecord) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

func (r ContentRecord) LastEntry() (AuditEntry, bool) {
	if len(r.History) == 0 {
		return AuditEntry{}, false
	}
	return r.History[len(r.History)-1], true
}

// ReplayStatus derives the status implied by an audit trail.
func ReplayStatus(history []AuditEntry) (Status, error) {
	status := StatusPending
	for i, entry := range history {
		target, ok := entry.Action.Target()
		if !ok {
			return "", fmt.Errorf("entry %d: unknown audit action %q", i+1, entry.Action)
		}
		if entry.FromStatus != status {
			return "", fmt.Errorf("entry %d: from %s does not follow %s", i+1, entry.FromStatus, status)
		}
		if entry.ToStatus != target {
			return "", fmt.Errorf("entry %d: action %s cannot land in %s", i+1, entry.Action, entry.ToStatus)
		}
		status = target
	}
	return status, nil
}

// VerifyHistory checks that the record status, ordering and reasons agree with its trail.
func VerifyHistory(record ContentRecord) error {
	replayed, err := ReplayStatus(record.History)
	if err != nil {
		return fmt.Errorf("record %q: %w", record.ID, err)
	}
	if replayed != record.Status {
		return fmt.Errorf("record %q: status %s disagrees with history (%s)", record.ID, record.Status, replayed)
	}

	var prev time.Time
	for i, entry := range record.History {
		if entry.Seq != uint64(i+1) {
			return fmt.Errorf("record %q: entry %d has seq %d", record.ID, i+1, entry.Seq)
		}
		if entry.Timestamp.Before(prev) {
			return fmt.Errorf("record %q: entry %d timestamp goes backwards", record.ID, i+1)
		}
		if entry.IsTerminal() && entry.Reason == "" {
			return fmt.Errorf("record %q: terminal entry %d has no reason", record.ID, i+1)
		}
		prev = entry.Timestamp
	}
	return nil
}

// CommitTimestamp keeps timestamps non-decreasing within one record history.
func CommitTimestamp(now time.Time, last AuditEntry, hasLast bool) time.Time {
	now = now.UTC()
	if hasLast && now.Before(last.Timestamp) {
		return last.Timestamp
	}
	return now
}
