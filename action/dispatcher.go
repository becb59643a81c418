package action

import (
	"context"
	"sync"
	"time"

	"github.com/mohitkumar/actionbus/bus"
)

// Dispatcher keeps one Client per action name so request ids keep
// increasing for every name it dispatches.
type Dispatcher struct {
	bus     bus.Bus
	opts    []Option
	mu      sync.Mutex
	clients map[string]*Client
}

func NewDispatcher(b bus.Bus, opts ...Option) *Dispatcher {
	return &Dispatcher{
		bus:     b,
		opts:    opts,
		clients: make(map[string]*Client),
	}
}

func (d *Dispatcher) Client(name string) (*Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.clients[name]; ok {
		return c, nil
	}
	c, err := NewClient(name, d.bus, d.opts...)
	if err != nil {
		return nil, err
	}
	d.clients[name] = c
	return c, nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, name string, params map[string]string, timeout time.Duration) (uint64, error) {
	c, err := d.Client(name)
	if err != nil {
		return 0, err
	}
	return c.SendAction(ctx, params, timeout)
}

func (d *Dispatcher) Cancel(ctx context.Context, name string) error {
	c, err := d.Client(name)
	if err != nil {
		return err
	}
	return c.Cancel(ctx)
}

func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name, c := range d.clients {
		c.Close()
		delete(d.clients, name)
	}
	return nil
}
