package types

import (
	"errors"

	"dusterilizer-go/errcode"
)

// Status is the latched health of a driver or task: Ok, or Error with a
// reason. It is overwritten on every poll, never accumulated.
type Status struct {
	Code   errcode.Code `json:"code"`
	Reason string       `json:"reason,omitempty"`
}

// StatusOK is the zero-fault status.
func StatusOK() Status { return Status{Code: errcode.OK} }

// StatusError builds an Error status.
func StatusError(code errcode.Code, reason string) Status {
	if code == "" || code == errcode.OK {
		code = errcode.Error
	}
	return Status{Code: code, Reason: reason}
}

// StatusOf maps an error onto a Status. A nil error is Ok.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK()
	}
	var e *errcode.E
	if errors.As(err, &e) && e.Msg != "" {
		return StatusError(e.C, e.Msg)
	}
	return StatusError(errcode.Of(err), err.Error())
}

func (s Status) OK() bool { return s.Code == "" || s.Code == errcode.OK }

func (s Status) String() string {
	if s.OK() {
		return "ok"
	}
	if s.Reason == "" {
		return "error(" + string(s.Code) + ")"
	}
	return "error(" + s.Reason + ")"
}
