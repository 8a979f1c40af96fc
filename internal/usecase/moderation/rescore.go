package moderation

import (
	"context"
	"log/slog"
	"strings"

	"modqueue/internal/bootstrap/logging"
	domainmoderation "modqueue/internal/domain/moderation"
)

// Rescore replaces the advisory scores. It never changes status or history.
func (s *Service) Rescore(ctx context.Context, input RescoreInput) (domainmoderation.ContentRecord, error) {
	if err := s.checkReady(ctx); err != nil {
		return domainmoderation.ContentRecord{}, err
	}
	recordID := strings.TrimSpace(input.RecordID)
	if recordID == "" {
		return domainmoderation.ContentRecord{}, domainmoderation.NewValidationError("record_id", "record id is required")
	}
	if err := domainmoderation.ValidateScore("quality_score", input.QualityScore); err != nil {
		return domainmoderation.ContentRecord{}, err
	}
	if err := domainmoderation.ValidateScore("spam_score", input.SpamScore); err != nil {
		return domainmoderation.ContentRecord{}, err
	}

	if err := s.repo.UpdateScores(ctx, recordID, input.QualityScore, input.SpamScore, s.now()); err != nil {
		return domainmoderation.ContentRecord{}, err
	}

	logging.Info(
		logging.WithRecord(usecaseCtx(ctx, "rescore"), recordID),
		"record rescored",
		slog.String("quality_band", string(domainmoderation.QualityBand(input.QualityScore))),
		slog.String("spam_band", string(domainmoderation.SpamBand(input.SpamScore))),
	)
	return s.GetRecord(ctx, recordID)
}
