package action

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/mohitkumar/actionbus/model"
)

var _ Handler = new(DelayHandler)
var _ Canceler = new(DelayHandler)

// DelayHandler succeeds once the requested delay has elapsed. The "delay"
// param, in seconds, overrides the default. A dispatch timeout shorter than
// the delay fails the request.
type DelayHandler struct {
	defaultDelay time.Duration
	delay        time.Duration
}

func NewDelayHandler(delay time.Duration) *DelayHandler {
	return &DelayHandler{
		defaultDelay: delay,
	}
}

func (h *DelayHandler) HandleDispatch(rt *Runtime, timeout time.Duration, params map[string]string) error {
	h.delay = h.defaultDelay
	if v, ok := params["delay"]; ok {
		seconds, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid delay %q: %w", v, err)
		}
		if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("delay must be a finite number, got %s", v)
		}
		if seconds < 0 {
			return fmt.Errorf("delay can not be negative, got %s", v)
		}
		h.delay = time.Duration(seconds * float64(time.Second))
	}
	return nil
}

func (h *DelayHandler) Run(rt *Runtime) error {
	elapsed := rt.Elapsed()
	if elapsed >= h.delay {
		rt.Succeed(map[string]string{"delay": h.delay.String()})
		return nil
	}
	if rt.Expired() {
		rt.Fail(map[string]string{"reason": "timeout", "remaining": (h.delay - elapsed).String()})
	}
	return nil
}

func (h *DelayHandler) Cancel(rt *Runtime) {
	rt.Finish(model.STATUS_ABORTED, map[string]string{"reason": "cancelled"})
}
