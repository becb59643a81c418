package redis

import (
	"context"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	rd "github.com/go-redis/redis/v9"
	"github.com/google/uuid"
	"github.com/mohitkumar/actionbus/bus"
	"github.com/mohitkumar/actionbus/logger"
	"go.uber.org/zap"
)

const PUBLISH_RETRY_INTERVAL = 100 * time.Millisecond
const PUBLISH_MAX_RETRY = 3

var _ bus.Bus = new(redisBus)

// redisBus maps every topic to a redis pub/sub channel under the namespace.
// Each subscription reads its channel on one goroutine, which keeps the
// per subscriber ordering of the memory bus.
type redisBus struct {
	*baseDao
	mu     sync.Mutex
	subs   map[string]*redisSubscription
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type redisSubscription struct {
	id     string
	topic  string
	bus    *redisBus
	pubsub *rd.PubSub
	once   sync.Once
}

func NewRedisBus(conf Config) *redisBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &redisBus{
		baseDao: newBaseDao(conf),
		subs:    make(map[string]*redisSubscription),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (r *redisBus) channel(topic string) string {
	return r.getNamespaceKey("topic", topic)
}

func (r *redisBus) Publish(ctx context.Context, topic string, data []byte) error {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return bus.ErrClosed
	}
	channel := r.channel(topic)
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(PUBLISH_RETRY_INTERVAL), PUBLISH_MAX_RETRY), ctx)
	return backoff.Retry(func() error {
		err := r.redisClient.Publish(ctx, channel, data).Err()
		if err != nil {
			logger.Warn("error publishing to redis channel", zap.String("channel", channel), zap.Error(err))
		}
		return err
	}, b)
}

func (r *redisBus) Subscribe(topic string, handler bus.Handler) (bus.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, bus.ErrClosed
	}
	channel := r.channel(topic)
	pubsub := r.redisClient.Subscribe(r.ctx, channel)
	if _, err := pubsub.Receive(r.ctx); err != nil {
		pubsub.Close()
		return nil, err
	}
	s := &redisSubscription{
		id:     uuid.NewString(),
		topic:  topic,
		bus:    r,
		pubsub: pubsub,
	}
	r.subs[s.id] = s
	msgs := pubsub.Channel()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for msg := range msgs {
			handler(r.ctx, []byte(msg.Payload))
		}
		logger.Debug("redis subscription closed", zap.String("channel", channel), zap.String("id", s.id))
	}()
	return s, nil
}

func (r *redisBus) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	subs := r.subs
	r.subs = make(map[string]*redisSubscription)
	r.mu.Unlock()
	for _, s := range subs {
		s.close()
	}
	r.cancel()
	r.wg.Wait()
	return r.baseDao.Close()
}

func (s *redisSubscription) Id() string {
	return s.id
}

func (s *redisSubscription) Topic() string {
	return s.topic
}

func (s *redisSubscription) Unsubscribe() error {
	s.bus.mu.Lock()
	delete(s.bus.subs, s.id)
	s.bus.mu.Unlock()
	return s.close()
}

func (s *redisSubscription) close() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
	})
	return err
}
