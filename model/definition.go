package model

type HandlerKind string

const HANDLER_JAVASCRIPT HandlerKind = "javascript"
const HANDLER_DELAY HandlerKind = "delay"
const HANDLER_ECHO HandlerKind = "echo"

type ActionDefinition struct {
	Name          string            `json:"name" mapstructure:"name"`
	Kind          HandlerKind       `json:"kind" mapstructure:"kind"`
	Expression    string            `json:"expression,omitempty" mapstructure:"expression"`
	DelaySeconds  int               `json:"delaySeconds,omitempty" mapstructure:"delay_seconds"`
	Info          map[string]string `json:"info,omitempty" mapstructure:"info"`
	FeedbackStyle FeedbackStyle     `json:"feedbackStyle,omitempty" mapstructure:"feedback_style"`
}

type DispatchRunRequest struct {
	Params         map[string]string `json:"params"`
	TimeoutSeconds float64           `json:"timeoutSeconds"`
}
