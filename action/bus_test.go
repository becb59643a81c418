package action

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/actionbus/bus"
	"github.com/mohitkumar/actionbus/config"
	"github.com/mohitkumar/actionbus/model"
	"github.com/stretchr/testify/require"
)

// recordingBus delivers synchronously and keeps every published payload.
type recordingBus struct {
	mu        sync.Mutex
	published map[string][][]byte
	subs      map[string]map[string]bus.Handler
}

type recordingSub struct {
	id    string
	topic string
	bus   *recordingBus
}

func newRecordingBus() *recordingBus {
	return &recordingBus{
		published: make(map[string][][]byte),
		subs:      make(map[string]map[string]bus.Handler),
	}
}

func (b *recordingBus) Publish(ctx context.Context, topic string, data []byte) error {
	b.mu.Lock()
	b.published[topic] = append(b.published[topic], data)
	handlers := make([]bus.Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()
	for _, h := range handlers {
		h(ctx, data)
	}
	return nil
}

func (b *recordingBus) Subscribe(topic string, handler bus.Handler) (bus.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &recordingSub{id: uuid.NewString(), topic: topic, bus: b}
	if _, ok := b.subs[topic]; !ok {
		b.subs[topic] = make(map[string]bus.Handler)
	}
	b.subs[topic][s.id] = handler
	return s, nil
}

func (b *recordingBus) Close() error {
	return nil
}

func (s *recordingSub) Id() string    { return s.id }
func (s *recordingSub) Topic() string { return s.topic }
func (s *recordingSub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs[s.topic], s.id)
	return nil
}

func (b *recordingBus) feedbacks(t *testing.T) []model.FeedbackMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.FeedbackMessage, 0)
	for _, data := range b.published[config.TOPIC_FEEDBACK] {
		var msg model.FeedbackMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		out = append(out, msg)
	}
	return out
}

func (b *recordingBus) dispatches(t *testing.T) []model.DispatchRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.DispatchRequest, 0)
	for _, data := range b.published[config.TOPIC_DISPATCH] {
		var msg model.DispatchRequest
		require.NoError(t, json.Unmarshal(data, &msg))
		out = append(out, msg)
	}
	return out
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2022, 7, 22, 10, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type dispatchCall struct {
	timeout time.Duration
	params  map[string]string
}

// scriptedHandler finishes after finishAfter ticks with finishStatus.
type scriptedHandler struct {
	calls        []dispatchCall
	dispatchErr  error
	runErr       error
	finishAfter  int
	finishStatus model.Status
	info         map[string]string
}

func (h *scriptedHandler) HandleDispatch(rt *Runtime, timeout time.Duration, params map[string]string) error {
	h.calls = append(h.calls, dispatchCall{timeout: timeout, params: params})
	return h.dispatchErr
}

func (h *scriptedHandler) Run(rt *Runtime) error {
	if h.runErr != nil {
		return h.runErr
	}
	if h.finishAfter > 0 && rt.Tick() >= h.finishAfter {
		status := h.finishStatus
		if status == "" {
			status = model.STATUS_SUCCESS
		}
		rt.Finish(status, h.info)
	}
	return nil
}

type cancelableHandler struct {
	scriptedHandler
	cancelled int
}

func (h *cancelableHandler) Cancel(rt *Runtime) {
	h.cancelled++
	rt.Finish(model.STATUS_ABORTED, map[string]string{"reason": "cancelled"})
}

func start(id uint64, params map[string]string, timeout time.Duration) model.DispatchRequest {
	return model.DispatchRequest{
		Name:    "nav/goto",
		Id:      id,
		Command: model.COMMAND_START,
		Timeout: timeout,
		Params:  params,
	}
}
