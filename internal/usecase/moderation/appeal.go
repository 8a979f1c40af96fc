package moderation

import (
	"context"

	domainmoderation "modqueue/internal/domain/moderation"
)

// SubmitAppeal moves a rejected record to appealed. A blank reason records the
// policy's default appeal reason.
func (s *Service) SubmitAppeal(ctx context.Context, input AppealInput) (domainmoderation.ContentRecord, error) {
	return s.ApplyTransition(ctx, TransitionInput{
		RecordID: input.RecordID,
		Action:   domainmoderation.ActionSubmitAppeal,
		ActorID:  input.ActorID,
		Reason:   input.Reason,
	})
}
