package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/filmfriends/backend/internal/logging"
	"github.com/filmfriends/backend/internal/metrics"
	"github.com/filmfriends/backend/internal/models"
)

// Header names set on every published event.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// msgPublisher is the subset of *nats.Conn used by NATSPublisher.
type msgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// NATSPublisher forwards appended events to NATS on
// "<prefix>.<event type>.<operation>", lower-cased.
type NATSPublisher struct {
	conn   msgPublisher
	prefix string
}

// NewNATSPublisher constructs a publisher on conn.
func NewNATSPublisher(conn msgPublisher, prefix string) *NATSPublisher {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = "filmfriends.events"
	}
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Connect dials the NATS server at url.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}

// Subject returns the subject event is published on.
func (p *NATSPublisher) Subject(event models.Event) string {
	return strings.ToLower(fmt.Sprintf("%s.%s.%s", p.prefix, event.Type, event.Operation))
}

// Observe implements social.EventSink.
func (p *NATSPublisher) Observe(ctx context.Context, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: p.Subject(event),
		Data:    data,
		Header:  nats.Header{},
	}
	// JetStream deduplicates on this header when the subject is bound to a stream.
	msg.Header.Set(nats.MsgIdHdr, strconv.FormatInt(event.ID, 10))
	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		msg.Header.Set(HeaderRequestID, requestID)
	}
	if traceID := logging.TraceIDFromContext(ctx); traceID != "" {
		msg.Header.Set(HeaderTraceID, traceID)
	}

	err = p.conn.PublishMsg(msg)
	metrics.RecordPublish(err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}

	logging.FromContext(ctx).Debug("event published", "subject", msg.Subject, "eventId", event.ID)
	return nil
}
