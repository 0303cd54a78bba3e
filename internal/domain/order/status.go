package order

import "fmt"

// Status is an order's lifecycle state.
//
// The nominal flow is Pending → Shipped → Delivered for Online orders, with
// Cancelled reachable from Pending or Shipped. POS sales are created directly
// in Completed since the goods change hands at the counter. Status updates
// validate membership only: any enumerated status may replace any other,
// matching the permissive behavior this engine has always had.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

// UnknownStatusError indicates a status string outside the enumerated set.
type UnknownStatusError struct {
	Value string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown order status %q", e.Value)
}

// ParseStatus validates a status string against the enumerated set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled, StatusCompleted:
		return Status(s), nil
	default:
		return "", &UnknownStatusError{Value: s}
	}
}

// Terminal reports whether no further transition is expected from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// initialStatus is the status assigned at creation, by channel.
func initialStatus(c Channel) Status {
	if c == ChannelPOS {
		return StatusCompleted
	}
	return StatusPending
}
