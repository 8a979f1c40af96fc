package moderation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"modqueue/internal/bootstrap/logging"
	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/errs"
	"modqueue/internal/infrastructure/metrics"
)

const (
	defaultRelayBatch      = 200
	defaultRelayMaxElapsed = 30 * time.Second
)

func defaultRelayBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = defaultRelayMaxElapsed
	return b
}

// RelayEvents republishes committed audit entries after the stored cursor. The cursor
// only moves past entries the publisher accepted, so delivery is at least once and
// consumers dedupe on entry_id. Entries already sent live are sent again unless the
// cursor was seeded by SeedRelayCursor.
func (s *Service) RelayEvents(ctx context.Context, input RelayInput) (RelayResult, error) {
	if err := s.checkReady(ctx); err != nil {
		return RelayResult{}, err
	}
	if s.cache == nil {
		return RelayResult{}, errors.New("cache is required to store the relay cursor")
	}
	if s.publisher == nil {
		return RelayResult{}, errors.New("event publisher is required")
	}

	batch := input.Batch
	if batch <= 0 {
		batch = s.relayBatch
	}
	logCtx := usecaseCtx(ctx, "relay_events")

	cursor, err := s.relayCursor(ctx)
	if err != nil {
		return RelayResult{}, err
	}
	entries, err := s.repo.ListAuditEntriesAfter(ctx, cursor, batch)
	if err != nil {
		return RelayResult{}, err
	}

	result := RelayResult{Cursor: cursor}
	var publishErr error
	for _, entry := range entries {
		event := domainmoderation.EventFromEntry(entry)
		operation := func() error {
			return s.publisher.Publish(ctx, event)
		}
		if err := backoff.Retry(operation, backoff.WithContext(s.relayBackOff(), ctx)); err != nil {
			publishErr = errs.Wrapf(err, "publish audit entry %d", entry.EntryID)
			break
		}
		result.Cursor = entry.EntryID
		result.Delivered++
	}
	result.Undelivered = len(entries) - result.Delivered

	if result.Cursor != cursor {
		if err := s.cache.Set(ctx, relayCursorKey, strconv.FormatUint(result.Cursor, 10), 0); err != nil {
			return result, errs.Wrap(err, "store relay cursor")
		}
	}
	metrics.ObserveRelayed(result.Delivered)

	if publishErr != nil {
		metrics.ObservePublishFailure("relay")
		logging.Warn(logCtx, "relay stopped on undeliverable entry",
			slog.Uint64("cursor", result.Cursor),
			slog.Int("delivered", result.Delivered),
			slog.Any("err", errs.Loggable(publishErr)),
		)
		return result, publishErr
	}

	logging.Info(logCtx, "relay batch delivered", slog.Uint64("cursor", result.Cursor), slog.Int("delivered", result.Delivered))
	return result, nil
}

// SeedRelayCursor points an unset relay cursor at the latest audit entry so the first
// relay starts with new transitions. An existing cursor is left alone.
func (s *Service) SeedRelayCursor(ctx context.Context) (uint64, bool, error) {
	if err := s.checkReady(ctx); err != nil {
		return 0, false, err
	}
	if s.cache == nil {
		return 0, false, errors.New("cache is required to store the relay cursor")
	}

	_, found, err := s.cache.Get(ctx, relayCursorKey)
	if err != nil {
		return 0, false, errs.Wrap(err, "load relay cursor")
	}
	if found {
		cursor, err := s.relayCursor(ctx)
		return cursor, false, err
	}

	latest, err := s.repo.LatestEntryID(ctx)
	if err != nil {
		return 0, false, err
	}
	if err := s.cache.Set(ctx, relayCursorKey, strconv.FormatUint(latest, 10), 0); err != nil {
		return 0, false, errs.Wrap(err, "store relay cursor")
	}
	logging.Info(usecaseCtx(ctx, "seed_relay_cursor"), "relay cursor seeded", slog.Uint64("cursor", latest))
	return latest, true, nil
}

func (s *Service) relayCursor(ctx context.Context) (uint64, error) {
	raw, found, err := s.cache.Get(ctx, relayCursorKey)
	if err != nil {
		return 0, errs.Wrap(err, "load relay cursor")
	}
	if !found || raw == "" {
		return 0, nil
	}
	cursor, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errs.Wrapf(err, "parse relay cursor %q", raw)
	}
	return cursor, nil
}
