package action

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/mohitkumar/actionbus/model"
)

var _ Handler = new(JsHandler)
var _ Canceler = new(JsHandler)

// JsHandler evaluates a script on every tick. The script sees the request
// through the global $ and ends it by setting $.status to SUCCESS or FAILED.
// $.data survives between ticks of one request.
type JsHandler struct {
	expression string
	program    *goja.Program
	state      jsState
}

type jsState struct {
	Params    map[string]string `json:"params"`
	Tick      int               `json:"tick"`
	ElapsedMs int64             `json:"elapsedMs"`
	TimeoutMs int64             `json:"timeoutMs"`
	Status    string            `json:"status"`
	Info      map[string]any    `json:"info"`
	Data      map[string]any    `json:"data"`
}

func NewJsHandler(expression string) (*JsHandler, error) {
	if len(strings.TrimSpace(expression)) == 0 {
		return nil, fmt.Errorf("expression can not be empty")
	}
	program, err := goja.Compile("action", expression, false)
	if err != nil {
		return nil, fmt.Errorf("error compiling javascript %w", err)
	}
	return &JsHandler{
		expression: expression,
		program:    program,
	}, nil
}

func (h *JsHandler) HandleDispatch(rt *Runtime, timeout time.Duration, params map[string]string) error {
	h.state = jsState{
		Params:    params,
		TimeoutMs: timeout.Milliseconds(),
		Status:    string(model.STATUS_RUNNING),
		Info:      map[string]any{},
		Data:      map[string]any{},
	}
	return nil
}

func (h *JsHandler) Run(rt *Runtime) error {
	h.state.Tick = rt.Tick()
	h.state.ElapsedMs = rt.Elapsed().Milliseconds()
	data, err := json.Marshal(h.state)
	if err != nil {
		return err
	}
	vm := goja.New()
	if _, err := vm.RunString(fmt.Sprintf("var $ = %s;\n", data)); err != nil {
		return fmt.Errorf("error executing javascript %w", err)
	}
	if _, err := vm.RunProgram(h.program); err != nil {
		return fmt.Errorf("error executing javascript %w", err)
	}
	res, err := json.Marshal(vm.Get("$").Export())
	if err != nil {
		return err
	}
	var next jsState
	if err := json.Unmarshal(res, &next); err != nil {
		return fmt.Errorf("script replaced $ with an incompatible value: %w", err)
	}
	h.state.Data = next.Data
	h.state.Info = next.Info

	status := model.Status(strings.ToUpper(next.Status))
	if status != "" {
		if err := model.ValidateStatus(string(status)); err != nil {
			return fmt.Errorf("script set %w", err)
		}
	}
	switch {
	case status == "" || status == model.STATUS_RUNNING:
		if rt.Expired() {
			rt.Fail(map[string]string{"reason": "timeout"})
		}
	case status.IsTerminal():
		rt.Finish(status, stringify(next.Info))
	default:
		return fmt.Errorf("script can not set status %s", status)
	}
	return nil
}

func (h *JsHandler) Cancel(rt *Runtime) {
	rt.Finish(model.STATUS_ABORTED, map[string]string{"reason": "cancelled"})
}

func stringify(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case string:
			out[k] = val
		default:
			raw, err := json.Marshal(val)
			if err != nil {
				out[k] = fmt.Sprintf("%v", val)
				continue
			}
			out[k] = string(raw)
		}
	}
	return out
}
