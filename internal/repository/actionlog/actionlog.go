package actionlog

import "errors"

var (
	ErrDuplicateAction = errors.New("duplicate action")
	ErrEmptyActionId   = errors.New("empty action id")
)
