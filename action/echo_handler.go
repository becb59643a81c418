package action

import (
	"time"

	"github.com/mohitkumar/actionbus/model"
	"github.com/mohitkumar/actionbus/util"
)

var _ Handler = new(EchoHandler)

// EchoHandler succeeds on its first tick. Its info is built from templates
// whose {$.param} tokens are resolved against the request params; without
// templates the params are echoed back.
type EchoHandler struct {
	templates map[string]string
	params    map[string]string
}

func NewEchoHandler(templates map[string]string) *EchoHandler {
	return &EchoHandler{
		templates: model.CopyMap(templates),
	}
}

func (h *EchoHandler) HandleDispatch(rt *Runtime, timeout time.Duration, params map[string]string) error {
	h.params = params
	return nil
}

func (h *EchoHandler) Run(rt *Runtime) error {
	if len(h.templates) == 0 {
		rt.Succeed(h.params)
		return nil
	}
	rt.Succeed(util.ResolveParams(util.ToAnyMap(h.params), h.templates))
	return nil
}
