package moderation

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/ports"
)

const defaultBulkConcurrency = 4

var errActorRequired = domainmoderation.NewValidationError("actor_id", "actor is required")

type Service struct {
	repo            ports.RecordRepository
	uow             ports.UnitOfWork
	cache           ports.Cache
	publisher       ports.EventPublisher
	policy          Policy
	bulkConcurrency int
	statusTTL       time.Duration
	relayBatch      int
	now             func() time.Time
	relayBackOff    func() backoff.BackOff
	locks           *recordLocks
}

type Options struct {
	Policy          Policy
	BulkConcurrency int
	StatusTTL       time.Duration
	RelayBatch      int
}

// NewService wires moderation usecases. cache and publisher are optional.
func NewService(repo ports.RecordRepository, uow ports.UnitOfWork, cache ports.Cache, publisher ports.EventPublisher, opts Options) *Service {
	if opts.BulkConcurrency <= 0 {
		opts.BulkConcurrency = defaultBulkConcurrency
	}
	if opts.RelayBatch <= 0 {
		opts.RelayBatch = defaultRelayBatch
	}
	if opts.Policy.isZero() {
		opts.Policy = DefaultPolicy()
	}
	return &Service{
		repo:            repo,
		uow:             uow,
		cache:           cache,
		publisher:       publisher,
		policy:          opts.Policy,
		bulkConcurrency: opts.BulkConcurrency,
		statusTTL:       opts.StatusTTL,
		relayBatch:      opts.RelayBatch,
		now:             time.Now,
		relayBackOff:    defaultRelayBackOff,
		locks:           newRecordLocks(),
	}
}

func (s *Service) Policy() Policy {
	return s.policy
}

type TransitionInput struct {
	RecordID string
	Action   domainmoderation.Action
	ActorID  string
	Reason   string
	// Quick substitutes the policy's quick reason when Reason is blank.
	Quick bool
}

type AppealInput struct {
	RecordID string
	ActorID  string
	Reason   string
}

type BulkInput struct {
	RecordIDs []string
	Action    domainmoderation.Action
	ActorID   string
	Reason    string
	Quick     bool
}

type BulkOutcome string

const (
	BulkApplied BulkOutcome = "applied"
	BulkFailed  BulkOutcome = "failed"
	BulkSkipped BulkOutcome = "skipped"
)

type BulkItem struct {
	RecordID  string
	Outcome   BulkOutcome
	Status    domainmoderation.Status
	ErrorKind domainmoderation.ErrorKind
	Error     string
}

type BulkResult struct {
	Succeeded int
	Failed    int
	Skipped   int
	Cancelled bool
	Items     []BulkItem
}

type IngestInput struct {
	ID           string
	Kind         string
	AuthorID     string
	AuthorName   string
	Body         string
	Flags        []string
	QualityScore int
	SpamScore    int
	SubmittedAt  time.Time
}

type RescoreInput struct {
	RecordID     string
	QualityScore int
	SpamScore    int
}

type QueueFilter struct {
	Status      domainmoderation.Status
	Kind        domainmoderation.Kind
	QualityBand domainmoderation.Band
	SpamBand    domainmoderation.Band
	Flag        string
	Limit       int
}

type QueueItem struct {
	Record      domainmoderation.ContentRecord
	QualityBand domainmoderation.Band
	SpamBand    domainmoderation.Band
}

type QueueStats struct {
	ByStatus map[domainmoderation.Status]int64
	Total    int64
}

type RelayInput struct {
	Batch int
}

type RelayResult struct {
	Delivered   int
	Cursor      uint64
	Undelivered int
}

func (s *Service) checkReady(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if s.repo == nil {
		return errors.New("record repository is required")
	}
	if s.uow == nil {
		return errors.New("unit of work is required")
	}
	return nil
}
