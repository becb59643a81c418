package action

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohitkumar/actionbus/bus"
	"github.com/mohitkumar/actionbus/logger"
	"github.com/mohitkumar/actionbus/model"
	"github.com/mohitkumar/actionbus/util"
	"go.uber.org/zap"
)

type Client struct {
	fqn       string
	opts      options
	publisher *bus.Publisher[model.DispatchRequest]
	sub       bus.Subscription

	mu         sync.Mutex
	id         uint64
	state      model.State
	timeout    time.Duration
	params     map[string]string
	lastStatus model.Status
	lastInfo   map[string]string
	duration   time.Duration
	terminal   model.Status
	done       chan struct{}
}

func NewClient(fqn string, b bus.Bus, opts ...Option) (*Client, error) {
	if fqn == "" {
		return nil, ErrInvalidName
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
	c := &Client{
		fqn:        fqn,
		opts:       o,
		publisher:  bus.NewPublisher(b, o.topics.Dispatch, dispatchEncDec),
		id:         1,
		state:      model.STATE_NONE,
		lastStatus: model.STATUS_IDLE,
	}
	c.sub, err = bus.Subscribe(b, o.topics.Feedback, feedbackEncDec, func(ctx context.Context, msg *model.FeedbackMessage) {
		c.OnFeedback(ctx, *msg)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", o.topics.Feedback, err)
	}
	return c, nil
}

// SendAction starts a new request and returns its id. The id is incremented
// before use, so the first request of a client carries id 2. The client
// state is left alone until feedback arrives.
func (c *Client) SendAction(ctx context.Context, params map[string]string, timeout time.Duration) (uint64, error) {
	c.mu.Lock()
	c.id++
	c.timeout = timeout
	c.params = model.CopyMap(params)
	c.lastStatus = model.STATUS_IDLE
	c.lastInfo = nil
	c.duration = 0
	c.terminal = ""
	c.done = make(chan struct{})
	msg := c.dispatchLocked(model.COMMAND_START)
	c.mu.Unlock()

	if err := c.publisher.Publish(ctx, msg); err != nil {
		logger.Error("error publishing dispatch", zap.String("action", c.fqn), zap.Uint64("id", msg.Id), zap.Error(err))
		return msg.Id, err
	}
	logger.Debug("dispatch sent", zap.String("action", c.fqn), zap.Uint64("id", msg.Id))
	return msg.Id, nil
}

// Cancel asks the server to abort the current request.
func (c *Client) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.done == nil {
		c.mu.Unlock()
		return ErrNoRequest
	}
	msg := c.dispatchLocked(model.COMMAND_CANCEL)
	c.mu.Unlock()
	return c.publisher.Publish(ctx, msg)
}

func (c *Client) dispatchLocked(command model.Command) model.DispatchRequest {
	return model.DispatchRequest{
		Header: model.Header{
			Stamp:  c.opts.clock(),
			Source: c.opts.source,
		},
		Name:    c.fqn,
		Id:      c.id,
		Command: command,
		Timeout: c.timeout,
		Params:  model.CopyMap(c.params),
	}
}

// OnFeedback handles one feedback message. Only feedback for the current
// request of this action changes the client. Clients of one action share
// the id space, so SUCCESS for the current id moves the client to DONE even
// after another terminal status for that id.
func (c *Client) OnFeedback(ctx context.Context, msg model.FeedbackMessage) {
	if !model.Addressed(c.fqn, msg.Name, msg.Id) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.Id != c.id {
		return
	}
	recordReceived(c.fqn, msg.Status)
	if c.terminal != "" && msg.Status != model.STATUS_SUCCESS {
		return
	}
	c.lastStatus = msg.Status
	c.lastInfo = model.CopyMap(msg.Info)
	c.duration = msg.Duration
	switch msg.Status {
	case model.STATUS_RUNNING:
		c.state = model.STATE_RUNNING
	case model.STATUS_SUCCESS:
		c.state = model.STATE_DONE
	}
	if msg.Status.IsTerminal() {
		c.terminal = msg.Status
		c.closeDoneLocked()
	}
}

func (c *Client) closeDoneLocked() {
	if c.done == nil {
		return
	}
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// Wait blocks until terminal feedback for the current request arrives. Only
// SUCCESS returns nil.
func (c *Client) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	id := c.id
	c.mu.Unlock()
	if done == nil {
		return ErrNoRequest
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id != id {
		return fmt.Errorf("request %d superseded by %d", id, c.id)
	}
	switch c.terminal {
	case model.STATUS_SUCCESS:
		return nil
	case model.STATUS_REJECTED:
		return ErrRejected
	case model.STATUS_ABORTED:
		return ErrAborted
	}
	if reason, ok := c.lastInfo["error"]; ok {
		return fmt.Errorf("%w: %s", ErrFailed, reason)
	}
	return ErrFailed
}

func (c *Client) Close() error {
	return c.sub.Unsubscribe()
}

func (c *Client) Name() string {
	return c.fqn
}

func (c *Client) Id() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *Client) State() model.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) LastStatus() model.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastStatus
}

func (c *Client) LastInfo() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.CopyMap(c.lastInfo)
}

func (c *Client) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

func (c *Client) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("Client[%s]: id[%d] state[%s]", c.fqn, c.id, c.state)
}
