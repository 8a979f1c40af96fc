package model

// All lists every table the moderation store migrates.
func All() []any {
	return []any{
		&ContentRecord{},
		&RecordFlag{},
		&AuditEntry{},
		&KV{},
	}
}
