package moderation

import (
	"context"
	"sort"
	"strings"

	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/ports"
)

// GetRecord returns the record with flags and full history.
func (s *Service) GetRecord(ctx context.Context, recordID string) (domainmoderation.ContentRecord, error) {
	if err := s.checkReady(ctx); err != nil {
		return domainmoderation.ContentRecord{}, err
	}
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return domainmoderation.ContentRecord{}, domainmoderation.NewValidationError("record_id", "record id is required")
	}

	var record domainmoderation.ContentRecord
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		got, err := s.repo.GetRecord(txCtx, recordID)
		if err != nil {
			return err
		}
		history, err := s.repo.ListAuditEntries(txCtx, recordID)
		if err != nil {
			return err
		}
		got.History = history
		record = got
		return nil
	}); err != nil {
		return domainmoderation.ContentRecord{}, err
	}
	return record, nil
}

// ListQueue returns records in triage order. Without a status filter it lists the
// actionable queue: pending and appealed records.
func (s *Service) ListQueue(ctx context.Context, filter QueueFilter) ([]QueueItem, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}

	statuses := []domainmoderation.Status{domainmoderation.StatusPending, domainmoderation.StatusAppealed}
	if filter.Status != "" {
		statuses = []domainmoderation.Status{filter.Status}
	}
	records, err := s.repo.ListRecords(ctx, ports.RecordFilter{
		Statuses: statuses,
		Kind:     filter.Kind,
		Flag:     strings.TrimSpace(filter.Flag),
	})
	if err != nil {
		return nil, err
	}

	items := make([]QueueItem, 0, len(records))
	for _, record := range records {
		item := QueueItem{
			Record:      record,
			QualityBand: domainmoderation.QualityBand(record.QualityScore),
			SpamBand:    domainmoderation.SpamBand(record.SpamScore),
		}
		if filter.QualityBand != "" && item.QualityBand != filter.QualityBand {
			continue
		}
		if filter.SpamBand != "" && item.SpamBand != filter.SpamBand {
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return domainmoderation.TriageLess(items[i].Record, items[j].Record)
	})
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (s *Service) QueueStats(ctx context.Context) (QueueStats, error) {
	if err := s.checkReady(ctx); err != nil {
		return QueueStats{}, err
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{ByStatus: make(map[domainmoderation.Status]int64, len(counts))}
	for _, status := range domainmoderation.AllStatuses() {
		stats.ByStatus[status] = counts[status]
		stats.Total += counts[status]
	}
	return stats, nil
}
