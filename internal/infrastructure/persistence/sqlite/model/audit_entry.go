package model

import "time"

// AuditEntry rows are insert-only. (record_id, seq) is unique so two writers cannot
// both claim the same position in a history.
type AuditEntry struct {
	EntryID     uint64    `gorm:"column:entry_id;primaryKey;autoIncrement"`
	RecordID    string    `gorm:"column:record_id;type:text;not null;uniqueIndex:idx_audit_record_seq,priority:1"`
	Seq         uint64    `gorm:"column:seq;not null;uniqueIndex:idx_audit_record_seq,priority:2"`
	Action      string    `gorm:"column:action;type:text;not null"`
	ModeratorID string    `gorm:"column:moderator_id;type:text;not null"`
	Timestamp   time.Time `gorm:"column:timestamp;not null;index"`
	Reason      string    `gorm:"column:reason;type:text;not null"`
	FromStatus  string    `gorm:"column:from_status;type:text;not null"`
	ToStatus    string    `gorm:"column:to_status;type:text;not null"`
}

func (AuditEntry) TableName() string {
	return "audit_entries"
}
