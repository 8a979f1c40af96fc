package moderation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"modqueue/internal/bootstrap/logging"
	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/infrastructure/metrics"
)

// ApplyBulk applies one action to many records. Each id is an independent transition:
// one failing never stops the others, and the result lists every id in request order.
// When ctx is cancelled, ids not yet started are reported as skipped.
func (s *Service) ApplyBulk(ctx context.Context, input BulkInput) (BulkResult, error) {
	if err := s.checkReady(ctx); err != nil {
		return BulkResult{}, err
	}

	action, err := domainmoderation.ParseAction(string(input.Action))
	if err != nil {
		return BulkResult{}, err
	}
	if strings.TrimSpace(input.ActorID) == "" {
		return BulkResult{}, errActorRequired
	}
	ids := trimmedNonEmpty(input.RecordIDs)
	if len(ids) == 0 {
		return BulkResult{}, domainmoderation.NewValidationError("record_ids", "at least one record id is required")
	}

	items := make([]BulkItem, len(ids))
	for i, id := range ids {
		items[i] = BulkItem{RecordID: id, Outcome: BulkSkipped, ErrorKind: domainmoderation.ErrorKindCancelled}
	}

	var g errgroup.Group
	g.SetLimit(s.bulkConcurrency)
	for i, id := range ids {
		i, id := i, id
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			record, err := s.ApplyTransition(ctx, TransitionInput{
				RecordID: id,
				Action:   action,
				ActorID:  input.ActorID,
				Reason:   input.Reason,
				Quick:    input.Quick,
			})
			items[i] = bulkItem(id, record, err)
			return nil
		})
	}
	_ = g.Wait()

	result := BulkResult{Items: items}
	for _, item := range items {
		switch item.Outcome {
		case BulkApplied:
			result.Succeeded++
		case BulkFailed:
			result.Failed++
		default:
			result.Skipped++
		}
		metrics.ObserveBulkItem(string(item.Outcome))
	}
	// A cancel that lands after the last item started leaves nothing unprocessed.
	result.Cancelled = result.Skipped > 0 && ctx.Err() != nil

	logging.Info(
		usecaseCtx(ctx, "apply_bulk"),
		"bulk action finished",
		slog.String("action", string(action)),
		slog.String("actor_id", input.ActorID),
		slog.Int("requested", len(ids)),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
		slog.Bool("cancelled", result.Cancelled),
	)
	return result, nil
}

func bulkItem(recordID string, record domainmoderation.ContentRecord, err error) BulkItem {
	if err == nil {
		return BulkItem{RecordID: recordID, Outcome: BulkApplied, Status: record.Status}
	}

	kind := domainmoderation.KindOf(err)
	item := BulkItem{RecordID: recordID, ErrorKind: kind, Error: err.Error()}
	// A cancelled transition rolled back, so nothing was applied for this id.
	if kind == domainmoderation.ErrorKindCancelled {
		item.Outcome = BulkSkipped
		return item
	}
	item.Outcome = BulkFailed

	var te *domainmoderation.TransitionError
	if errors.As(err, &te) {
		item.Status = te.Current
	}
	return item
}
