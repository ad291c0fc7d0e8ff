package trip

import "fmt"

// TripStatus represents the current state of a trip in its lifecycle.
type TripStatus string

const (
	StatusOpen      TripStatus = "open"
	StatusFull      TripStatus = "full"
	StatusDeparted  TripStatus = "departed"
	StatusCompleted TripStatus = "completed"
	StatusCancelled TripStatus = "cancelled"
)

// validTransitions defines the state machine for trip status transitions.
var validTransitions = map[TripStatus][]TripStatus{
	StatusOpen:      {StatusFull, StatusDeparted, StatusCancelled},
	StatusFull:      {StatusOpen, StatusDeparted, StatusCancelled},
	StatusDeparted:  {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

// IsValid returns true if the status is a recognized trip status.
func (s TripStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s TripStatus) CanTransitionTo(target TripStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s TripStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// AcceptsRiders returns true while riders may still join or leave.
func (s TripStatus) AcceptsRiders() bool {
	return s == StatusOpen || s == StatusFull
}

// String returns the string representation of the status.
func (s TripStatus) String() string {
	return string(s)
}

// ParseTripStatus converts a string to a TripStatus, returning an error if invalid.
func ParseTripStatus(s string) (TripStatus, error) {
	status := TripStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid trip status: %s", s)
	}
	return status, nil
}
