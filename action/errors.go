package action

import (
	"errors"

	api "github.com/mohitkumar/actionbus/api/v1"
)

var ErrInvalidName error = api.InvalidArgumentError{Field: "fqn", Reason: "action fully-qualified name can not be empty"}
var ErrNilHandler error = api.InvalidArgumentError{Field: "handler", Reason: "action handler can not be nil"}

var (
	ErrNoRequest = errors.New("no request sent")
	ErrRejected  = errors.New("action rejected, server busy")
	ErrFailed    = errors.New("action failed")
	ErrAborted   = errors.New("action aborted")
)
