package models

import (
	"strconv"

	dErrors "medtransit/pkg/domain-errors"
)

// Status is a trip's lifecycle state. The numeric order is meaningful:
// cancelTrip is allowed only below StatusCompleted.
type Status uint64

const (
	StatusRequested  Status = 1
	StatusAssigned   Status = 2
	StatusInProgress Status = 3
	StatusCompleted  Status = 4
	StatusCancelled  Status = 5
)

var statusNames = map[Status]string{
	StatusRequested:  "requested",
	StatusAssigned:   "assigned",
	StatusInProgress: "in_progress",
	StatusCompleted:  "completed",
	StatusCancelled:  "cancelled",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown(" + strconv.FormatUint(uint64(s), 10) + ")"
}

func (s Status) IsValid() bool {
	return s >= StatusRequested && s <= StatusCancelled
}

// IsTerminal reports whether the trip can no longer be assigned or cancelled.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseStatus accepts the numeric codes 1 through 5.
func ParseStatus(v uint64) (Status, error) {
	s := Status(v)
	if !s.IsValid() {
		return 0, dErrors.New(dErrors.CodeInvalidStatusValue, "status must be between 1 and 5")
	}
	return s, nil
}
