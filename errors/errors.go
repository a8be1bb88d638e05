package errors

import "fmt"

var (
	ErrAccountNotFound    = fmt.Errorf("account not found")
	ErrDiscussionNotFound = fmt.Errorf("discussion not found")
	ErrPermissionDenied   = fmt.Errorf("permission denied")
	ErrUnavailable        = fmt.Errorf("store unavailable")
	ErrInvalidArgument    = fmt.Errorf("invalid argument")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)
