package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"

	"modqueue/internal/domain/moderation"
)

type fakeNATSConn struct {
	subjects  []string
	payloads  [][]byte
	deadlines []time.Time
	err       error
}

func (c *fakeNATSConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

// FlushWithContext follows nats.Conn: a context without a deadline is refused.
func (c *fakeNATSConn) FlushWithContext(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nats.ErrNoDeadlineContext
	}
	c.deadlines = append(c.deadlines, deadline)
	return ctx.Err()
}

type failingPublisher struct{ err error }

func (p failingPublisher) Publish(context.Context, moderation.TransitionEvent) error { return p.err }

func sampleEvent() moderation.TransitionEvent {
	return moderation.TransitionEvent{
		EntryID:    7,
		RecordID:   "r1",
		Action:     moderation.AuditRejected,
		FromStatus: moderation.StatusPending,
		ToStatus:   moderation.StatusRejected,
		ActorID:    "mod-1",
		Reason:     "spam",
		Timestamp:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNATSPublisherSubjectAndPayload(t *testing.T) {
	conn := &fakeNATSConn{}
	pub := newNATSPublisher(conn, " moderation.transitions. ")

	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(conn.subjects) != 1 || conn.subjects[0] != "moderation.transitions.rejected" {
		t.Fatalf("subjects = %v", conn.subjects)
	}

	var decoded moderation.TransitionEvent
	if err := json.Unmarshal(conn.payloads[0], &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.RecordID != "r1" || decoded.ToStatus != moderation.StatusRejected || decoded.EntryID != 7 {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestNATSPublisherFlushesWithoutCallerDeadline(t *testing.T) {
	conn := &fakeNATSConn{}
	pub := newNATSPublisher(conn, "")

	before := time.Now()
	if err := pub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish(background) error = %v", err)
	}
	if len(conn.deadlines) != 1 {
		t.Fatalf("flushes = %d, want 1", len(conn.deadlines))
	}
	if got := conn.deadlines[0]; got.Before(before) || got.After(before.Add(defaultFlushTimeout+time.Second)) {
		t.Fatalf("flush deadline = %v, want about %s after %v", got, defaultFlushTimeout, before)
	}
}

func TestNATSPublisherKeepsCallerDeadline(t *testing.T) {
	conn := &fakeNATSConn{}
	pub := newNATSPublisher(conn, "")

	want := time.Now().Add(time.Minute)
	ctx, cancel := context.WithDeadline(context.Background(), want)
	defer cancel()
	if err := pub.Publish(ctx, sampleEvent()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !conn.deadlines[0].Equal(want) {
		t.Fatalf("flush deadline = %v, want caller deadline %v", conn.deadlines[0], want)
	}

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	if err := pub.Publish(cancelled, sampleEvent()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Publish(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestNATSPublisherDefaultsPrefix(t *testing.T) {
	pub := newNATSPublisher(&fakeNATSConn{}, "")
	if got := pub.Subject(sampleEvent()); got != DefaultSubjectPrefix+".rejected" {
		t.Fatalf("Subject() = %q", got)
	}
}

func TestFanoutPublisherJoinsSinkErrors(t *testing.T) {
	conn := &fakeNATSConn{}
	fan := NewFanoutPublisher(
		Sink{Name: "nats", Publisher: newNATSPublisher(conn, "")},
		Sink{Name: "broken", Publisher: failingPublisher{err: errors.New("down")}},
		Sink{Name: "empty"},
	)

	err := fan.Publish(context.Background(), sampleEvent())
	if err == nil || !strings.Contains(err.Error(), "broken: down") {
		t.Fatalf("Publish() error = %v", err)
	}
	if got := FailedSinks(err); len(got) != 1 || got[0] != "broken" {
		t.Fatalf("FailedSinks() = %v", got)
	}
	if len(conn.subjects) != 1 {
		t.Fatalf("healthy sink should still receive the event")
	}
}

func TestHubStreamsEventsToWebsocketClients(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := hub.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var decoded moderation.TransitionEvent
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if decoded.RecordID != "r1" || decoded.Action != moderation.AuditRejected {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	if err := NewHub().Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}
