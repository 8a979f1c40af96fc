package ports

import (
	"context"
	"time"

	"modqueue/internal/domain/moderation"
)

type RecordFilter struct {
	Statuses []moderation.Status
	Kind     moderation.Kind
	Flag     string
	AuthorID string
}

type RecordCreate struct {
	RecordID     string
	Kind         moderation.Kind
	Author       moderation.Author
	Body         string
	SubmittedAt  time.Time
	Flags        []string
	QualityScore int
	SpamScore    int
}

type AuditEntryCreate struct {
	RecordID    string
	Seq         uint64
	Action      moderation.AuditAction
	ModeratorID string
	Timestamp   time.Time
	Reason      string
	FromStatus  moderation.Status
	ToStatus    moderation.Status
}

// StatusChange is a compare-and-set on status and version.
type StatusChange struct {
	RecordID        string
	ExpectedStatus  moderation.Status
	ExpectedVersion uint64
	NextStatus      moderation.Status
	Notes           string
	UpdatedAt       time.Time
}

// RecordReadRepository returns records without history; callers load history explicitly.
type RecordReadRepository interface {
	GetRecord(ctx context.Context, recordID string) (moderation.ContentRecord, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]moderation.ContentRecord, error)
	ListAuditEntries(ctx context.Context, recordID string) ([]moderation.AuditEntry, error)
	ListAuditEntriesAfter(ctx context.Context, afterEntryID uint64, limit int) ([]moderation.AuditEntry, error)
	CountByStatus(ctx context.Context) (map[moderation.Status]int64, error)
}

// RecordRepository is the content record store and audit log. Mutations must run inside
// a UnitOfWork so the audit append and the status change commit together.
type RecordRepository interface {
	RecordReadRepository
	CreateRecord(ctx context.Context, input RecordCreate) (moderation.ContentRecord, error)
	AppendAuditEntry(ctx context.Context, input AuditEntryCreate) (moderation.AuditEntry, error)
	CompareAndSetStatus(ctx context.Context, change StatusChange) (uint64, error)
	UpdateScores(ctx context.Context, recordID string, qualityScore int, spamScore int, updatedAt time.Time) error
	LatestEntryID(ctx context.Context) (uint64, error)
}
