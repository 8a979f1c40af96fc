package moderation

import (
	"context"
	"strings"

	"github.com/google/uuid"

	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/errs"
	"modqueue/internal/infrastructure/metrics"
	"modqueue/internal/ports"
)

// IngestRecord accepts new content into the queue as pending.
func (s *Service) IngestRecord(ctx context.Context, input IngestInput) (domainmoderation.ContentRecord, error) {
	if err := s.checkReady(ctx); err != nil {
		return domainmoderation.ContentRecord{}, err
	}
	if err := ctx.Err(); err != nil {
		return domainmoderation.ContentRecord{}, errs.Wrap(err, "check context")
	}

	kind, err := domainmoderation.ParseKind(input.Kind)
	if err != nil {
		return domainmoderation.ContentRecord{}, err
	}
	authorID := strings.TrimSpace(input.AuthorID)
	if authorID == "" {
		return domainmoderation.ContentRecord{}, domainmoderation.NewValidationError("author_id", "author is required")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" && kind != domainmoderation.KindUser {
		return domainmoderation.ContentRecord{}, domainmoderation.NewValidationError("body", "body is required for "+string(kind))
	}
	if err := domainmoderation.ValidateScore("quality_score", input.QualityScore); err != nil {
		return domainmoderation.ContentRecord{}, err
	}
	if err := domainmoderation.ValidateScore("spam_score", input.SpamScore); err != nil {
		return domainmoderation.ContentRecord{}, err
	}

	recordID := strings.TrimSpace(input.ID)
	if recordID == "" {
		recordID = uuid.NewString()
	}
	submittedAt := input.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = s.now()
	}

	record, err := s.repo.CreateRecord(ctx, ports.RecordCreate{
		RecordID: recordID,
		Kind:     kind,
		Author: domainmoderation.Author{
			ID:          authorID,
			DisplayName: strings.TrimSpace(input.AuthorName),
		},
		Body:         body,
		SubmittedAt:  submittedAt.UTC(),
		Flags:        trimmedNonEmpty(input.Flags),
		QualityScore: input.QualityScore,
		SpamScore:    input.SpamScore,
	})
	if err != nil {
		return domainmoderation.ContentRecord{}, err
	}

	metrics.ObserveIngest(string(kind))
	s.setCacheBestEffort(ctx, cacheRecordStatusKey(record.ID), string(record.Status))
	return record, nil
}
