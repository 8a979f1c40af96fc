package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"modqueue/internal/domain/moderation"
	"modqueue/internal/errs"
	"modqueue/internal/infrastructure/persistence/sqlite/model"
	"modqueue/internal/ports"
)

type RecordRepository struct {
	db *gorm.DB
}

var _ ports.RecordRepository = (*RecordRepository)(nil)

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *RecordRepository) GetRecord(ctx context.Context, recordID string) (moderation.ContentRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return moderation.ContentRecord{}, err
	}

	var row model.ContentRecord
	if err := db.Where("record_id = ?", recordID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return moderation.ContentRecord{}, &moderation.NotFoundError{RecordID: recordID}
		}
		return moderation.ContentRecord{}, wrapDBError(err, "query content record")
	}

	flags, err := listFlags(db, []string{recordID})
	if err != nil {
		return moderation.ContentRecord{}, err
	}
	return mapRecord(row, flags[recordID]), nil
}

func (r *RecordRepository) ListRecords(ctx context.Context, filter ports.RecordFilter) ([]moderation.ContentRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.ContentRecord{})
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", string(filter.Kind))
	}
	if author := strings.TrimSpace(filter.AuthorID); author != "" {
		query = query.Where("author_id = ?", author)
	}
	if flag := strings.TrimSpace(filter.Flag); flag != "" {
		sub := db.Model(&model.RecordFlag{}).Select("record_id").Where("flag = ?", flag)
		query = query.Where("record_id IN (?)", sub)
	}

	var rows []model.ContentRecord
	if err := query.Order("submitted_at asc").Order("record_id asc").Find(&rows).Error; err != nil {
		return nil, wrapDBError(err, "query content records")
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.RecordID)
	}
	flags, err := listFlags(db, ids)
	if err != nil {
		return nil, err
	}

	items := make([]moderation.ContentRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapRecord(row, flags[row.RecordID]))
	}
	return items, nil
}

func (r *RecordRepository) ListAuditEntries(ctx context.Context, recordID string) ([]moderation.AuditEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.AuditEntry
	if err := db.Where("record_id = ?", recordID).Order("seq asc").Find(&rows).Error; err != nil {
		return nil, wrapDBError(err, "query audit entries")
	}
	return mapEntries(rows), nil
}

func (r *RecordRepository) ListAuditEntriesAfter(ctx context.Context, afterEntryID uint64, limit int) ([]moderation.AuditEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.AuditEntry{}).Where("entry_id > ?", afterEntryID).Order("entry_id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.AuditEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrapDBError(err, "query audit entries after cursor")
	}
	return mapEntries(rows), nil
}

// LatestEntryID returns the highest audit entry id, or 0 for an empty log.
func (r *RecordRepository) LatestEntryID(ctx context.Context) (uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var latest uint64
	if err := db.Model(&model.AuditEntry{}).Select("COALESCE(MAX(entry_id), 0)").Scan(&latest).Error; err != nil {
		return 0, wrapDBError(err, "query latest audit entry id")
	}
	return latest, nil
}

func (r *RecordRepository) CountByStatus(ctx context.Context) (map[moderation.Status]int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status string
		Total  int64
	}
	if err := db.Model(&model.ContentRecord{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, wrapDBError(err, "count records by status")
	}

	out := make(map[moderation.Status]int64, len(rows))
	for _, row := range rows {
		out[moderation.Status(row.Status)] = row.Total
	}
	return out, nil
}

func (r *RecordRepository) CreateRecord(ctx context.Context, input ports.RecordCreate) (moderation.ContentRecord, error) {
	if ports.TxFromContext(ctx) == nil {
		var created moderation.ContentRecord
		if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			row, err := r.CreateRecord(ports.WithTxContext(ctx, tx), input)
			if err != nil {
				return err
			}
			created = row
			return nil
		}); err != nil {
			return moderation.ContentRecord{}, err
		}
		return created, nil
	}

	db, err := r.dbFromContext(ctx)
	if err != nil {
		return moderation.ContentRecord{}, err
	}

	row := model.ContentRecord{
		RecordID:     input.RecordID,
		Kind:         string(input.Kind),
		AuthorID:     input.Author.ID,
		AuthorName:   input.Author.DisplayName,
		Body:         input.Body,
		SubmittedAt:  input.SubmittedAt.UTC(),
		Status:       string(moderation.StatusPending),
		QualityScore: input.QualityScore,
		SpamScore:    input.SpamScore,
		UpdatedAt:    input.SubmittedAt.UTC(),
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return moderation.ContentRecord{}, wrapDBError(result.Error, "insert content record")
	}
	if result.RowsAffected == 0 {
		return moderation.ContentRecord{}, moderation.NewValidationError("record_id", fmt.Sprintf("record %q already exists", input.RecordID))
	}

	if len(input.Flags) > 0 {
		flagRows := make([]model.RecordFlag, 0, len(input.Flags))
		for _, flag := range input.Flags {
			flagRows = append(flagRows, model.RecordFlag{RecordID: row.RecordID, Flag: flag})
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&flagRows).Error; err != nil {
			return moderation.ContentRecord{}, wrapDBError(err, "insert record flags")
		}
	}

	return mapRecord(row, input.Flags), nil
}

func (r *RecordRepository) AppendAuditEntry(ctx context.Context, input ports.AuditEntryCreate) (moderation.AuditEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return moderation.AuditEntry{}, err
	}

	row := model.AuditEntry{
		RecordID:    input.RecordID,
		Seq:         input.Seq,
		Action:      string(input.Action),
		ModeratorID: input.ModeratorID,
		Timestamp:   input.Timestamp.UTC(),
		Reason:      input.Reason,
		FromStatus:  string(input.FromStatus),
		ToStatus:    string(input.ToStatus),
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return moderation.AuditEntry{}, wrapDBError(result.Error, "insert audit entry")
	}
	if result.RowsAffected == 0 {
		// Another writer already took this position in the history.
		return moderation.AuditEntry{}, &moderation.StaleRecordError{RecordID: input.RecordID, ExpectedVersion: input.Seq - 1}
	}
	return mapEntry(row), nil
}

func (r *RecordRepository) CompareAndSetStatus(ctx context.Context, change ports.StatusChange) (uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	next := change.ExpectedVersion + 1
	result := db.Model(&model.ContentRecord{}).
		Where("record_id = ? AND status = ? AND version = ?", change.RecordID, string(change.ExpectedStatus), change.ExpectedVersion).
		Updates(map[string]any{
			"status":          string(change.NextStatus),
			"moderator_notes": change.Notes,
			"version":         next,
			"updated_at":      change.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return 0, wrapDBError(result.Error, "update record status")
	}
	if result.RowsAffected == 0 {
		return 0, &moderation.StaleRecordError{RecordID: change.RecordID, ExpectedVersion: change.ExpectedVersion}
	}
	return next, nil
}

func (r *RecordRepository) UpdateScores(ctx context.Context, recordID string, qualityScore int, spamScore int, updatedAt time.Time) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.ContentRecord{}).
		Where("record_id = ?", recordID).
		Updates(map[string]any{
			"quality_score": qualityScore,
			"spam_score":    spamScore,
			"updated_at":    updatedAt.UTC(),
		})
	if result.Error != nil {
		return wrapDBError(result.Error, "update record scores")
	}
	if result.RowsAffected == 0 {
		return &moderation.NotFoundError{RecordID: recordID}
	}
	return nil
}

// wrapDBError records the stack at the storage boundary so logs show where the query failed.
func wrapDBError(err error, msg string) error {
	return errs.Wrap(errs.WithStack(err), msg)
}

func listFlags(db *gorm.DB, recordIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(recordIDs))
	if len(recordIDs) == 0 {
		return out, nil
	}

	var rows []model.RecordFlag
	if err := db.Where("record_id IN ?", recordIDs).Order("record_id asc").Order("flag asc").Find(&rows).Error; err != nil {
		return nil, wrapDBError(err, "query record flags")
	}
	for _, row := range rows {
		out[row.RecordID] = append(out[row.RecordID], row.Flag)
	}
	return out, nil
}

func mapRecord(row model.ContentRecord, flags []string) moderation.ContentRecord {
	return moderation.ContentRecord{
		ID:   row.RecordID,
		Kind: moderation.Kind(row.Kind),
		Author: moderation.Author{
			ID:          row.AuthorID,
			DisplayName: row.AuthorName,
		},
		Body:           row.Body,
		SubmittedAt:    row.SubmittedAt.UTC(),
		Status:         moderation.Status(row.Status),
		Flags:          flags,
		QualityScore:   row.QualityScore,
		SpamScore:      row.SpamScore,
		ModeratorNotes: row.ModeratorNotes,
		Version:        row.Version,
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}

func mapEntries(rows []model.AuditEntry) []moderation.AuditEntry {
	items := make([]moderation.AuditEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEntry(row))
	}
	return items
}

func mapEntry(row model.AuditEntry) moderation.AuditEntry {
	return moderation.AuditEntry{
		EntryID:     row.EntryID,
		RecordID:    row.RecordID,
		Seq:         row.Seq,
		Action:      moderation.AuditAction(row.Action),
		ModeratorID: row.ModeratorID,
		Timestamp:   row.Timestamp.UTC(),
		Reason:      row.Reason,
		FromStatus:  moderation.Status(row.FromStatus),
		ToStatus:    moderation.Status(row.ToStatus),
	}
}
