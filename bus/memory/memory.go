package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mohitkumar/actionbus/bus"
	"github.com/mohitkumar/actionbus/util"
)

const DEFAULT_CAPACITY = 64

var _ bus.Bus = new(memoryBus)

type memoryBus struct {
	mu       sync.RWMutex
	subs     map[string]map[string]*subscription
	capacity int
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

type subscription struct {
	id     string
	topic  string
	bus    *memoryBus
	worker *util.Worker[[]byte]
}

func New(capacity int) *memoryBus {
	if capacity <= 0 {
		capacity = DEFAULT_CAPACITY
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &memoryBus{
		subs:     make(map[string]map[string]*subscription),
		capacity: capacity,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (b *memoryBus) Publish(ctx context.Context, topic string, data []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return bus.ErrClosed
	}
	targets := make([]*subscription, 0, len(b.subs[topic]))
	for _, s := range b.subs[topic] {
		targets = append(targets, s)
	}
	b.mu.RUnlock()

	payload := make([]byte, len(data))
	copy(payload, data)
	for _, s := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.worker.Send(payload)
	}
	return nil
}

func (b *memoryBus) Subscribe(topic string, handler bus.Handler) (bus.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, bus.ErrClosed
	}
	s := &subscription{
		id:    uuid.NewString(),
		topic: topic,
		bus:   b,
	}
	s.worker = util.NewWorker(topic+"-"+s.id, &b.wg, func(data []byte) error {
		handler(b.ctx, data)
		return nil
	}, b.capacity)
	if _, ok := b.subs[topic]; !ok {
		b.subs[topic] = make(map[string]*subscription)
	}
	b.subs[topic][s.id] = s
	s.worker.Start()
	return s, nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, s := range subs {
			s.worker.Stop()
		}
	}
	b.subs = make(map[string]map[string]*subscription)
	b.mu.Unlock()
	b.cancel()
	b.wg.Wait()
	return nil
}

func (s *subscription) Id() string {
	return s.id
}

func (s *subscription) Topic() string {
	return s.topic
}

func (s *subscription) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if subs, ok := s.bus.subs[s.topic]; ok {
		delete(subs, s.id)
		if len(subs) == 0 {
			delete(s.bus.subs, s.topic)
		}
	}
	s.worker.Stop()
	return nil
}
