package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mohitkumar/actionbus/bus"
	"github.com/mohitkumar/actionbus/config"
	"github.com/mohitkumar/actionbus/model"
	"github.com/mohitkumar/actionbus/util"
	c "github.com/patrickmn/go-cache"
)

// ActionStatus is the last observed traffic for one action name.
type ActionStatus struct {
	Name         string                 `json:"name"`
	LastDispatch *model.DispatchRequest `json:"lastDispatch,omitempty"`
	LastFeedback *model.FeedbackMessage `json:"lastFeedback,omitempty"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// Monitor watches both shared topics and tracks every action seen on them
// without any prior knowledge of the actions in the system.
type Monitor struct {
	cache *c.Cache
	mu    sync.Mutex
	subs  []bus.Subscription
}

func New(b bus.Bus, topics config.TopicConfig, encDecType config.EncoderDecoderType, conf config.MonitorConfig) (*Monitor, error) {
	expiration := conf.Expiration
	if expiration <= 0 {
		expiration = c.NoExpiration
	}
	cleanup := conf.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	m := &Monitor{
		cache: c.New(expiration, cleanup),
	}
	dispatchEncDec, err := util.NewEncoderDecoder[model.DispatchRequest](encDecType)
	if err != nil {
		return nil, err
	}
	feedbackEncDec, err := util.NewEncoderDecoder[model.FeedbackMessage](encDecType)
	if err != nil {
		return nil, err
	}
	dsub, err := bus.Subscribe(b, topics.Dispatch, dispatchEncDec, func(ctx context.Context, msg *model.DispatchRequest) {
		m.ObserveDispatch(*msg)
	})
	if err != nil {
		return nil, err
	}
	fsub, err := bus.Subscribe(b, topics.Feedback, feedbackEncDec, func(ctx context.Context, msg *model.FeedbackMessage) {
		m.ObserveFeedback(*msg)
	})
	if err != nil {
		dsub.Unsubscribe()
		return nil, err
	}
	m.subs = []bus.Subscription{dsub, fsub}
	return m, nil
}

func (m *Monitor) ObserveDispatch(msg model.DispatchRequest) {
	if msg.Name == "" {
		return
	}
	m.update(msg.Name, func(st *ActionStatus) {
		st.LastDispatch = &msg
	})
}

func (m *Monitor) ObserveFeedback(msg model.FeedbackMessage) {
	if msg.Name == "" || msg.Id == model.NO_REQUEST {
		return
	}
	m.update(msg.Name, func(st *ActionStatus) {
		st.LastFeedback = &msg
	})
}

func (m *Monitor) update(name string, fn func(st *ActionStatus)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := ActionStatus{Name: name}
	if v, found := m.cache.Get(name); found {
		st = v.(ActionStatus)
	}
	fn(&st)
	st.UpdatedAt = time.Now()
	m.cache.Set(name, st, c.DefaultExpiration)
}

func (m *Monitor) Get(name string) (ActionStatus, bool) {
	v, found := m.cache.Get(name)
	if !found {
		return ActionStatus{}, false
	}
	return v.(ActionStatus), true
}

func (m *Monitor) List() []ActionStatus {
	items := m.cache.Items()
	out := make([]ActionStatus, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(ActionStatus))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		s.Unsubscribe()
	}
	m.subs = nil
	return nil
}
