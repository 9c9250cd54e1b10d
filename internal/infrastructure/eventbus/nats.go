package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"flightstatus-oracle/internal/domain/entity"
	"flightstatus-oracle/internal/domain/repository"
	"flightstatus-oracle/pkg/logger"
)

// NATSPublisher publishes change feed events to NATS subjects
// <prefix>.<event type>
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

var _ repository.EventPublisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to the NATS server at url
func NewNATSPublisher(url, prefix string, log logger.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("flightstatus-oracle"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("Reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

// Subject returns the subject an event type is published on
func (p *NATSPublisher) Subject(eventType entity.EventType) string {
	return subjectFor(p.prefix, eventType)
}

func subjectFor(prefix string, eventType entity.EventType) string {
	if prefix == "" {
		return string(eventType)
	}
	return prefix + "." + string(eventType)
}

// Publish encodes the event as JSON and publishes it with the event id as header
func (p *NATSPublisher) Publish(ctx context.Context, event entity.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := nats.NewMsg(p.Subject(event.Type))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, event.ID)
	msg.Header.Set(entity.MetadataEventType, string(event.Type))
	msg.Header.Set(entity.MetadataEventSeq, strconv.FormatUint(event.Seq, 10))

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
