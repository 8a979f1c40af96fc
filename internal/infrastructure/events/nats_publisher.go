package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"modqueue/internal/domain/moderation"
	"modqueue/internal/errs"
	"modqueue/internal/ports"
)

const (
	DefaultSubjectPrefix = "moderation.transitions"
	defaultFlushTimeout  = 5 * time.Second
)

type natsConn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// NATSPublisher publishes each transition on "<prefix>.<to_status>".
type NATSPublisher struct {
	conn         natsConn
	prefix       string
	flushTimeout time.Duration
	closer       func()
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)

func NewNATSPublisher(url string, prefix string) (*NATSPublisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("nats url is required")
	}
	nc, err := nats.Connect(url, nats.Name("modqueue"))
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}
	p := newNATSPublisher(nc, prefix)
	p.closer = nc.Close
	return p, nil
}

func newNATSPublisher(conn natsConn, prefix string) *NATSPublisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{conn: conn, prefix: prefix, flushTimeout: defaultFlushTimeout}
}

func (p *NATSPublisher) Subject(event moderation.TransitionEvent) string {
	return p.prefix + "." + string(event.ToStatus)
}

func (p *NATSPublisher) Publish(ctx context.Context, event moderation.TransitionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(err, "marshal transition event")
	}
	if err := p.conn.Publish(p.Subject(event), payload); err != nil {
		return errs.Wrap(err, "publish transition event")
	}
	// nats rejects a flush context without a deadline; request and signal contexts have none.
	flushCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		flushCtx, cancel = context.WithTimeout(ctx, p.flushTimeout)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(flushCtx); err != nil {
		return errs.Wrap(err, "flush nats connection")
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.closer != nil {
		p.closer()
	}
}
