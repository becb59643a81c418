package action

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohitkumar/actionbus/analytics"
	"github.com/mohitkumar/actionbus/bus"
	"github.com/mohitkumar/actionbus/logger"
	"github.com/mohitkumar/actionbus/model"
	"github.com/mohitkumar/actionbus/util"
	"go.uber.org/zap"
)

type Server struct {
	fqn       string
	opts      options
	handler   Handler
	rt        *Runtime
	publisher *bus.Publisher[model.FeedbackMessage]
	sub       bus.Subscription
	tw        *util.TickWorker

	mu        sync.Mutex
	id        uint64
	state     model.State
	timeout   time.Duration
	duration  time.Duration
	feedback  model.Status
	params    map[string]string
	info      map[string]string
	startedAt time.Time
	ticks     int
	lastSent  model.Status
}

type FeedbackOverride func(msg *model.FeedbackMessage)

func WithFeedbackId(id uint64) FeedbackOverride {
	return func(msg *model.FeedbackMessage) {
		msg.Id = id
	}
}

func WithFeedbackStatus(status model.Status) FeedbackOverride {
	return func(msg *model.FeedbackMessage) {
		msg.Status = status
	}
}

func WithFeedbackDuration(duration time.Duration) FeedbackOverride {
	return func(msg *model.FeedbackMessage) {
		msg.Duration = duration
	}
}

func WithFeedbackInfo(info map[string]string) FeedbackOverride {
	return func(msg *model.FeedbackMessage) {
		msg.Info = model.CopyMap(info)
	}
}

func NewServer(fqn string, handler Handler, b bus.Bus, opts ...Option) (*Server, error) {
	if fqn == "" {
		return nil, ErrInvalidName
	}
	if handler == nil {
		return nil, ErrNilHandler
	}
	o := buildOptions(opts)
	dispatchEncDec, err := util.NewEncoderDecoder[model.DispatchRequest](o.encDecType)
	if err != nil {
		return nil, err
	}
	feedbackEncDec, err := util.NewEncoderDecoder[model.FeedbackMessage](o.encDecType)
	if err != nil {
		return nil, err
	}
	s := &Server{
		fqn:       fqn,
		opts:      o,
		handler:   handler,
		publisher: bus.NewPublisher(b, o.topics.Feedback, feedbackEncDec),
		id:        1,
		state:     model.STATE_NONE,
		feedback:  model.STATUS_IDLE,
	}
	s.rt = &Runtime{s: s}
	s.sub, err = bus.Subscribe(b, o.topics.Dispatch, dispatchEncDec, func(ctx context.Context, msg *model.DispatchRequest) {
		s.OnDispatch(ctx, *msg)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", o.topics.Dispatch, err)
	}
	return s, nil
}

func (s *Server) now() time.Time {
	return s.opts.clock()
}

// OnDispatch handles one dispatch message. Every server sees every message
// on the shared topic and keeps only the ones addressed to it.
func (s *Server) OnDispatch(ctx context.Context, msg model.DispatchRequest) {
	switch reason := model.DropReason(s.fqn, msg.Name, msg.Id); reason {
	case "":
	case model.DROP_FOREIGN_NAME:
		return
	default:
		recordDropped(s.fqn, reason)
		return
	}
	switch msg.Command {
	case model.COMMAND_START, "":
		s.start(ctx, msg)
	case model.COMMAND_CANCEL:
		s.cancel(ctx, msg)
	default:
		logger.Debug("dropping dispatch with unknown command", zap.String("action", s.fqn), zap.String("command", string(msg.Command)))
		recordDropped(s.fqn, "unknown_command")
	}
}

func (s *Server) start(ctx context.Context, msg model.DispatchRequest) {
	s.mu.Lock()
	if s.state == model.STATE_RUNNING {
		activeId := s.id
		fb := s.feedbackLocked(WithFeedbackId(msg.Id), WithFeedbackStatus(model.STATUS_REJECTED), WithFeedbackInfo(nil))
		s.mu.Unlock()
		logger.Info("rejecting dispatch, action busy", zap.String("action", s.fqn), zap.Uint64("id", msg.Id), zap.Uint64("activeId", activeId))
		analytics.RecordRejected(s.fqn, msg.Id, activeId)
		recordRejected(s.fqn)
		s.publish(ctx, fb)
		return
	}

	s.id = msg.Id
	s.timeout = msg.Timeout
	s.params = model.CopyMap(msg.Params)
	s.resetLocked()
	err := s.handler.HandleDispatch(s.rt, s.timeout, model.CopyMap(msg.Params))
	if err != nil {
		s.resetLocked()
		fb := s.feedbackLocked(WithFeedbackStatus(model.STATUS_FAILED), WithFeedbackInfo(map[string]string{"error": err.Error()}))
		s.mu.Unlock()
		logger.Error("action refused dispatch", zap.String("action", s.fqn), zap.Uint64("id", msg.Id), zap.Error(err))
		s.publish(ctx, fb)
		return
	}
	if s.state != model.STATE_DONE {
		s.state = model.STATE_RUNNING
		s.startedAt = s.now()
	}
	timeout := s.timeout
	s.mu.Unlock()
	logger.Info("dispatch accepted", zap.String("action", s.fqn), zap.Uint64("id", msg.Id), zap.Duration("timeout", timeout))
	analytics.RecordAccepted(s.fqn, msg.Id, timeout, msg.Params)
	recordAccepted(s.fqn)
}

func (s *Server) cancel(ctx context.Context, msg model.DispatchRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.STATE_RUNNING || msg.Id != s.id {
		recordDropped(s.fqn, "stale_cancel")
		return
	}
	c, ok := s.handler.(Canceler)
	if !ok {
		logger.Warn("action does not support cancel", zap.String("action", s.fqn), zap.Uint64("id", msg.Id))
		return
	}
	c.Cancel(s.rt)
	if s.state == model.STATE_RUNNING {
		s.finishLocked(model.STATUS_ABORTED)
	}
	logger.Info("action cancelled", zap.String("action", s.fqn), zap.Uint64("id", msg.Id))
}

// resetLocked clears the per request fields and returns to NONE.
func (s *Server) resetLocked() {
	s.state = model.STATE_NONE
	s.feedback = model.STATUS_IDLE
	s.duration = 0
	s.info = nil
	s.ticks = 0
	s.lastSent = ""
}

func (s *Server) finishLocked(status model.Status) {
	if s.state == model.STATE_RUNNING {
		s.duration = s.now().Sub(s.startedAt)
	}
	s.state = model.STATE_DONE
	s.feedback = status
	analytics.RecordCompleted(s.fqn, s.id, status, s.duration, s.info)
	logger.Info("action finished", zap.String("action", s.fqn), zap.Uint64("id", s.id), zap.String("status", string(status)), zap.Duration("duration", s.duration))
}

// Loop runs one tick of the server.
func (s *Server) Loop(ctx context.Context) {
	s.mu.Lock()
	switch s.state {
	case model.STATE_NONE:
		s.feedback = model.STATUS_IDLE
		s.mu.Unlock()
		return
	case model.STATE_RUNNING:
		s.feedback = model.STATUS_RUNNING
		s.ticks++
		s.duration = s.now().Sub(s.startedAt)
		if err := s.handler.Run(s.rt); err != nil && s.state == model.STATE_RUNNING {
			s.rt.Fail(map[string]string{"error": err.Error()})
		}
	}
	if s.opts.feedbackStyle == model.FEEDBACK_SINGLE && s.lastSent == s.feedback {
		s.mu.Unlock()
		return
	}
	fb := s.feedbackLocked()
	s.lastSent = s.feedback
	s.mu.Unlock()
	s.publish(ctx, fb)
}

// SendFeedback publishes the current feedback, with any field replaced by
// the given overrides.
func (s *Server) SendFeedback(ctx context.Context, overrides ...FeedbackOverride) error {
	s.mu.Lock()
	fb := s.feedbackLocked(overrides...)
	s.mu.Unlock()
	return s.publish(ctx, fb)
}

func (s *Server) feedbackLocked(overrides ...FeedbackOverride) model.FeedbackMessage {
	msg := model.FeedbackMessage{
		Header: model.Header{
			Stamp:  s.now(),
			Source: s.opts.source,
		},
		Name:     s.fqn,
		Id:       s.id,
		Status:   s.feedback,
		Duration: s.duration,
		Info:     model.CopyMap(s.info),
	}
	for _, o := range overrides {
		o(&msg)
	}
	return msg
}

func (s *Server) publish(ctx context.Context, fb model.FeedbackMessage) error {
	if err := s.publisher.Publish(ctx, fb); err != nil {
		logger.Error("error publishing feedback", zap.String("action", s.fqn), zap.String("topic", s.publisher.Topic()), zap.Error(err))
		return err
	}
	recordFeedback(s.fqn, fb.Status)
	return nil
}

// Reset returns a DONE server to NONE. It reports false in any other state.
func (s *Server) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.STATE_DONE {
		return false
	}
	s.resetLocked()
	return true
}

func (s *Server) Start(wg *sync.WaitGroup) {
	s.mu.Lock()
	if s.tw == nil {
		s.tw = util.NewTickWorker("action-server-"+s.fqn, s.opts.pollInterval, func() {
			s.Loop(context.Background())
		}, wg)
	}
	tw := s.tw
	s.mu.Unlock()
	tw.Start()
}

func (s *Server) Stop() {
	s.mu.Lock()
	tw := s.tw
	s.mu.Unlock()
	if tw != nil {
		tw.Stop()
	}
}

// Close stops ticking and leaves the dispatch topic.
func (s *Server) Close() error {
	s.Stop()
	return s.sub.Unsubscribe()
}

func (s *Server) Name() string {
	return s.fqn
}

func (s *Server) Id() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Server) State() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Server) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedback
}

func (s *Server) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *Server) Timeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

func (s *Server) Params() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CopyMap(s.params)
}

func (s *Server) FeedbackStyle() model.FeedbackStyle {
	return s.opts.feedbackStyle
}

func (s *Server) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("Server[%s]: id[%d] state[%s]", s.fqn, s.id, s.state)
}
