package moderation

import (
	"context"
	"log/slog"
	"strings"

	"modqueue/internal/bootstrap/logging"
	"modqueue/internal/errs"
)

const (
	relayCursorKey = "relay_cursor"
)

func cacheRecordStatusKey(recordID string) string {
	return "record_status:" + recordID
}

func trimmedNonEmpty(in []string) []string {
	if len(in) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func (s *Service) setCacheBestEffort(ctx context.Context, key string, value string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.statusTTL); err != nil {
		logging.Warn(
			logging.WithAttrs(ctx, slog.String("component", "usecase.moderation")),
			"cache set failed",
			slog.String("key", key),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

func usecaseCtx(ctx context.Context, op string) context.Context {
	return logging.WithAttrs(ctx, slog.String("component", "usecase.moderation"), slog.String("op", op))
}
