package model

import (
	"fmt"
	"time"
)

type Command string

const COMMAND_START Command = "START"
const COMMAND_CANCEL Command = "CANCEL"

type Status string

const STATUS_IDLE Status = "IDLE"
const STATUS_RUNNING Status = "RUNNING"
const STATUS_REJECTED Status = "REJECTED"
const STATUS_SUCCESS Status = "SUCCESS"
const STATUS_FAILED Status = "FAILED"
const STATUS_ABORTED Status = "ABORTED"

func (s Status) IsTerminal() bool {
	switch s {
	case STATUS_REJECTED, STATUS_SUCCESS, STATUS_FAILED, STATUS_ABORTED:
		return true
	}
	return false
}

func ValidateStatus(s string) error {
	switch Status(s) {
	case STATUS_IDLE, STATUS_RUNNING, STATUS_REJECTED, STATUS_SUCCESS, STATUS_FAILED, STATUS_ABORTED:
		return nil
	}
	return fmt.Errorf("invalid status %s", s)
}

type State int

const STATE_NONE State = 0
const STATE_RUNNING State = 1
const STATE_DONE State = 2

func (s State) String() string {
	switch s {
	case STATE_NONE:
		return "NONE"
	case STATE_RUNNING:
		return "RUNNING"
	case STATE_DONE:
		return "DONE"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type FeedbackStyle string

const FEEDBACK_SINGLE FeedbackStyle = "SINGLE"
const FEEDBACK_CONTINUOUS FeedbackStyle = "CONTINUOUS"

// NO_REQUEST is never a live request id.
const NO_REQUEST uint64 = 0

type Header struct {
	Stamp  time.Time `json:"stamp" cbor:"stamp"`
	Source string    `json:"source,omitempty" cbor:"source,omitempty"`
}

type DispatchRequest struct {
	Header  Header            `json:"header" cbor:"header"`
	Name    string            `json:"name" cbor:"name"`
	Id      uint64            `json:"id" cbor:"id"`
	Command Command           `json:"command" cbor:"command"`
	Timeout time.Duration     `json:"timeout" cbor:"timeout"`
	Params  map[string]string `json:"params,omitempty" cbor:"params,omitempty"`
}

type FeedbackMessage struct {
	Header   Header            `json:"header" cbor:"header"`
	Name     string            `json:"name" cbor:"name"`
	Id       uint64            `json:"id" cbor:"id"`
	Status   Status            `json:"status" cbor:"status"`
	Duration time.Duration     `json:"duration" cbor:"duration"`
	Info     map[string]string `json:"info,omitempty" cbor:"info,omitempty"`
}

const DROP_FOREIGN_NAME = "foreign_name"
const DROP_NO_REQUEST = "no_request"

// DropReason tells why a message carrying name and id is not addressed to
// the action fqn, or returns "" when it is.
func DropReason(fqn string, name string, id uint64) string {
	if name != fqn {
		return DROP_FOREIGN_NAME
	}
	if id == NO_REQUEST {
		return DROP_NO_REQUEST
	}
	return ""
}

// Addressed reports whether a message carrying name and id targets the
// action fqn. Foreign names and the NO_REQUEST id are never addressed.
func Addressed(fqn string, name string, id uint64) bool {
	return DropReason(fqn, name, id) == ""
}

func CopyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
