package leave

import "errors"

var (
	ErrLeaveRecordNotFound = errors.New("leave record not found")
	ErrLeaveAlreadyDecided = errors.New("leave record has already been approved or rejected")
	ErrLeaveOverlaps       = errors.New("leave overlaps an existing pending or approved leave")
)
