package incident

import "errors"

var (
	ErrIncidentNotFound         = errors.New("incident not found")
	ErrNoOpenIncident           = errors.New("no open incident for this employee and date")
	ErrIncidentAlreadyCompleted = errors.New("incident has already been completed")
	ErrInvalidKind              = errors.New("incident kind must be late or half_day")
)
