package task

import "errors"

var (
	ErrInvalidID        = errors.New("task: invalid id")
	ErrInvalidTitle     = errors.New("task: invalid title")
	ErrInvalidCompanyID = errors.New("task: invalid company id")
	ErrInvalidDeadline  = errors.New("task: invalid deadline")
	ErrInvalidStatus    = errors.New("task: invalid status")
	ErrInvalidPriority  = errors.New("task: invalid priority")
	ErrTaskNotFound     = errors.New("task: not found")
	ErrPermissionDenied = errors.New("task: permission denied")
)
