package moderation

import "time"

// TransitionEvent is emitted after a transition commits. Delivery is the dispatcher's concern.
type TransitionEvent struct {
	EntryID    uint64      `json:"entry_id"`
	RecordID   string      `json:"record_id"`
	Action     AuditAction `json:"action"`
	FromStatus Status      `json:"from_status"`
	ToStatus   Status      `json:"to_status"`
	ActorID    string      `json:"actor_id"`
	Reason     string      `json:"reason"`
	Timestamp  time.Time   `json:"timestamp"`
}

func EventFromEntry(entry AuditEntry) TransitionEvent {
	return TransitionEvent{
		EntryID:    entry.EntryID,
		RecordID:   entry.RecordID,
		Action:     entry.Action,
		FromStatus: entry.FromStatus,
		ToStatus:   entry.ToStatus,
		ActorID:    entry.ModeratorID,
		Reason:     entry.Reason,
		Timestamp:  entry.Timestamp,
	}
}
