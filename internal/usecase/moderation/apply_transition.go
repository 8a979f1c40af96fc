package moderation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"modqueue/internal/bootstrap/logging"
	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/errs"
	"modqueue/internal/infrastructure/metrics"
	"modqueue/internal/ports"
)

// ApplyTransition validates action against the record's committed state and, when legal,
// appends the audit entry and moves the status in one transaction. The returned record
// carries the full history as committed.
func (s *Service) ApplyTransition(ctx context.Context, input TransitionInput) (domainmoderation.ContentRecord, error) {
	started := time.Now()
	record, entry, err := s.commitTransition(ctx, input)
	metrics.ObserveTransition(string(input.Action), transitionOutcome(err), time.Since(started))
	if err != nil {
		return domainmoderation.ContentRecord{}, err
	}

	s.afterCommit(ctx, record, entry)
	return record, nil
}

func (s *Service) commitTransition(ctx context.Context, input TransitionInput) (domainmoderation.ContentRecord, domainmoderation.AuditEntry, error) {
	if err := s.checkReady(ctx); err != nil {
		return domainmoderation.ContentRecord{}, domainmoderation.AuditEntry{}, err
	}
	if err := ctx.Err(); err != nil {
		return domainmoderation.ContentRecord{}, domainmoderation.AuditEntry{}, errs.Wrap(err, "check context")
	}

	recordID := strings.TrimSpace(input.RecordID)
	if recordID == "" {
		return domainmoderation.ContentRecord{}, domainmoderation.AuditEntry{}, domainmoderation.NewValidationError("record_id", "record id is required")
	}
	actor := strings.TrimSpace(input.ActorID)
	if actor == "" {
		return domainmoderation.ContentRecord{}, domainmoderation.AuditEntry{}, errActorRequired
	}
	reason := input.Reason
	if strings.TrimSpace(reason) == "" && input.Quick {
		reason = s.policy.QuickReason(input.Action)
	}

	unlock, err := s.locks.acquire(ctx, recordID)
	if err != nil {
		return domainmoderation.ContentRecord{}, domainmoderation.AuditEntry{}, errs.Wrap(err, "wait for record lock")
	}
	defer unlock()

	var (
		committed domainmoderation.ContentRecord
		entry     domainmoderation.AuditEntry
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		record, err := s.repo.GetRecord(txCtx, recordID)
		if err != nil {
			return err
		}
		history, err := s.repo.ListAuditEntries(txCtx, recordID)
		if err != nil {
			return err
		}
		record.History = history

		if input.Action == domainmoderation.ActionSubmitAppeal {
			if err := domainmoderation.CheckAppeal(record); err != nil {
				return err
			}
		}
		transition, err := domainmoderation.Next(recordID, record.Status, input.Action)
		if err != nil {
			return err
		}
		resolved, err := s.policy.Reasons.Resolve(transition, reason)
		if err != nil {
			return err
		}

		last, hasLast := record.LastEntry()
		ts := domainmoderation.CommitTimestamp(s.now(), last, hasLast)

		entry, err = s.repo.AppendAuditEntry(txCtx, ports.AuditEntryCreate{
			RecordID:    recordID,
			Seq:         uint64(len(history)) + 1,
			Action:      transition.Audit,
			ModeratorID: actor,
			Timestamp:   ts,
			Reason:      resolved,
			FromStatus:  transition.From,
			ToStatus:    transition.To,
		})
		if err != nil {
			return err
		}

		version, err := s.repo.CompareAndSetStatus(txCtx, ports.StatusChange{
			RecordID:        recordID,
			ExpectedStatus:  record.Status,
			ExpectedVersion: record.Version,
			NextStatus:      transition.To,
			Notes:           resolved,
			UpdatedAt:       ts,
		})
		if err != nil {
			return err
		}

		record.Status = transition.To
		record.Version = version
		record.ModeratorNotes = resolved
		record.UpdatedAt = ts
		record.History = append(history, entry)
		committed = record
		return nil
	}); err != nil {
		return domainmoderation.ContentRecord{}, domainmoderation.AuditEntry{}, err
	}

	return committed, entry, nil
}

// afterCommit runs outside the record lock. Failures here never undo the transition.
func (s *Service) afterCommit(ctx context.Context, record domainmoderation.ContentRecord, entry domainmoderation.AuditEntry) {
	logCtx := logging.WithAttrs(
		logging.WithRecord(usecaseCtx(ctx, "apply_transition"), record.ID),
		slog.String("action", string(entry.Action)),
		slog.String("actor_id", entry.ModeratorID),
		slog.String("from", string(entry.FromStatus)),
		slog.String("to", string(entry.ToStatus)),
	)
	logging.Info(logCtx, "transition committed", slog.Uint64("seq", entry.Seq))

	s.setCacheBestEffort(ctx, cacheRecordStatusKey(record.ID), string(record.Status))

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, domainmoderation.EventFromEntry(entry)); err != nil {
		metrics.ObservePublishFailure("post_commit")
		logging.Warn(logCtx, "transition event not delivered, relay will retry", slog.Any("err", errs.Loggable(err)))
	}
}

func transitionOutcome(err error) string {
	if err == nil {
		return "applied"
	}
	return string(domainmoderation.KindOf(err))
}
