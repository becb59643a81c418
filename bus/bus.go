package bus

import (
	"context"
	"errors"

	"github.com/mohitkumar/actionbus/logger"
	"github.com/mohitkumar/actionbus/util"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("bus closed")

// Handler receives raw payloads. Calls for one subscription never overlap
// and arrive in publish order.
type Handler func(ctx context.Context, data []byte)

type Subscription interface {
	Id() string
	Topic() string
	Unsubscribe() error
}

type Bus interface {
	Publish(ctx context.Context, topic string, data []byte) error
	Subscribe(topic string, handler Handler) (Subscription, error)
	Close() error
}

type Publisher[T any] struct {
	bus    Bus
	topic  string
	encDec util.EncoderDecoder[T]
}

func NewPublisher[T any](b Bus, topic string, encDec util.EncoderDecoder[T]) *Publisher[T] {
	return &Publisher[T]{
		bus:    b,
		topic:  topic,
		encDec: encDec,
	}
}

func (p *Publisher[T]) Topic() string {
	return p.topic
}

func (p *Publisher[T]) Publish(ctx context.Context, msg T) error {
	data, err := p.encDec.Encode(msg)
	if err != nil {
		return err
	}
	return p.bus.Publish(ctx, p.topic, data)
}

// Subscribe decodes every payload on topic and hands it to fn. Payloads that
// do not decode are dropped.
func Subscribe[T any](b Bus, topic string, encDec util.EncoderDecoder[T], fn func(ctx context.Context, msg *T)) (Subscription, error) {
	return b.Subscribe(topic, func(ctx context.Context, data []byte) {
		msg, err := encDec.Decode(data)
		if err != nil {
			logger.Debug("dropping undecodable message", zap.String("topic", topic), zap.Error(err))
			return
		}
		fn(ctx, msg)
	})
}
