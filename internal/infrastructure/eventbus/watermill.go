// Package eventbus delivers oracle change feed events to in-process and external consumers.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"flightstatus-oracle/internal/domain/entity"
	"flightstatus-oracle/internal/domain/repository"
	"flightstatus-oracle/pkg/logger"
)

// Topic is the watermill topic carrying every change feed event
const Topic = "flightstatus.events"

// ErrPublisherClosed is returned by Publish after Close
var ErrPublisherClosed = errors.New("event publisher closed")

// WatermillPublisher publishes change feed events on an in-memory go channel
// pub/sub. Publish only enqueues; a single delivery goroutine hands messages to
// the pub/sub one at a time and waits for every subscriber to ack, so each
// subscriber sees events in publish order.
type WatermillPublisher struct {
	pubSub *gochannel.GoChannel
	logger logger.Logger

	outbox    chan *message.Message
	closing   chan struct{}
	drained   chan struct{}
	closeOnce sync.Once
}

var _ repository.EventPublisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher creates an in-memory publisher. bufferSize bounds both
// the outbox and the per-subscriber output channel.
func NewWatermillPublisher(bufferSize int64, log logger.Logger) *WatermillPublisher {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            bufferSize,
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NopLogger{},
	)

	p := &WatermillPublisher{
		pubSub:  pubSub,
		logger:  log,
		outbox:  make(chan *message.Message, bufferSize),
		closing: make(chan struct{}),
		drained: make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish encodes the event as JSON and queues it for delivery on Topic. It
// blocks only while the outbox is full.
func (p *WatermillPublisher) Publish(ctx context.Context, event entity.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set(entity.MetadataEventType, string(event.Type))
	msg.Metadata.Set(entity.MetadataEventSeq, strconv.FormatUint(event.Seq, 10))

	select {
	case <-p.closing:
		return ErrPublisherClosed
	default:
	}

	select {
	case p.outbox <- msg:
		return nil
	case <-p.closing:
		return ErrPublisherClosed
	case <-ctx.Done():
		return fmt.Errorf("queue %s: %w", event.Type, ctx.Err())
	}
}

// run delivers queued messages in order until Close, then flushes what is left
func (p *WatermillPublisher) run() {
	defer close(p.drained)

	for {
		select {
		case msg := <-p.outbox:
			p.deliver(msg)
		case <-p.closing:
			for {
				select {
				case msg := <-p.outbox:
					p.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (p *WatermillPublisher) deliver(msg *message.Message) {
	if err := p.pubSub.Publish(Topic, msg); err != nil {
		p.logger.Error("Failed to deliver event",
			"id", msg.UUID,
			"type", msg.Metadata.Get(entity.MetadataEventType),
			"seq", msg.Metadata.Get(entity.MetadataEventSeq),
			"error", err)
	}
}

// Subscribe returns the stream of events published after the call. Every message
// must be acked before the next one is delivered. The stream closes when ctx is
// done.
func (p *WatermillPublisher) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	messages, err := p.pubSub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", Topic, err)
	}
	return messages, nil
}

// Close flushes queued events, then closes the pub/sub and every open subscription
func (p *WatermillPublisher) Close() error {
	p.closeOnce.Do(func() { close(p.closing) })
	<-p.drained
	return p.pubSub.Close()
}
