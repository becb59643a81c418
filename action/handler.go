package action

import (
	"time"

	"github.com/mohitkumar/actionbus/model"
)

// Handler is the action specific part of a Server. Both hooks run with the
// server state locked: they must not call back into the Server, only into
// the Runtime they are given.
type Handler interface {
	// HandleDispatch validates and initiates a request. A nil error moves
	// the server to RUNNING, an error keeps it idle and is reported to the
	// caller as FAILED feedback.
	HandleDispatch(rt *Runtime, timeout time.Duration, params map[string]string) error
	// Run is called once per tick while the request is RUNNING. It ends the
	// request through rt.Succeed, rt.Fail or rt.Finish. A returned error
	// fails the request.
	Run(rt *Runtime) error
}

// Canceler is implemented by handlers able to stop a running request when a
// CANCEL command arrives for it.
type Canceler interface {
	Cancel(rt *Runtime)
}

type Runtime struct {
	s *Server
}

func (rt *Runtime) Name() string {
	return rt.s.fqn
}

func (rt *Runtime) Id() uint64 {
	return rt.s.id
}

func (rt *Runtime) Timeout() time.Duration {
	return rt.s.timeout
}

func (rt *Runtime) Params() map[string]string {
	return model.CopyMap(rt.s.params)
}

func (rt *Runtime) Tick() int {
	return rt.s.ticks
}

func (rt *Runtime) Elapsed() time.Duration {
	if rt.s.state != model.STATE_RUNNING {
		return rt.s.duration
	}
	return rt.s.now().Sub(rt.s.startedAt)
}

// Expired reports whether the request carried a timeout and has run past it.
func (rt *Runtime) Expired() bool {
	return rt.s.timeout > 0 && rt.Elapsed() >= rt.s.timeout
}

func (rt *Runtime) SetInfo(key, value string) {
	if rt.s.info == nil {
		rt.s.info = make(map[string]string)
	}
	rt.s.info[key] = value
}

func (rt *Runtime) Succeed(info map[string]string) {
	rt.Finish(model.STATUS_SUCCESS, info)
}

func (rt *Runtime) Fail(info map[string]string) {
	rt.Finish(model.STATUS_FAILED, info)
}

// Finish moves the request to DONE with a terminal status. Non terminal
// statuses are recorded as FAILED.
func (rt *Runtime) Finish(status model.Status, info map[string]string) {
	if !status.IsTerminal() || status == model.STATUS_REJECTED {
		status = model.STATUS_FAILED
	}
	for k, v := range info {
		rt.SetInfo(k, v)
	}
	rt.s.finishLocked(status)
}

func (rt *Runtime) Done() bool {
	return rt.s.state == model.STATE_DONE
}
