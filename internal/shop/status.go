package shop

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
	StatusReturned  Status = "RETURNED"
)

var allStatuses = map[Status]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusShipped:   true,
	StatusDelivered: true,
	StatusCancelled: true,
	StatusReturned:  true,
}

func (s Status) Valid() bool { return allStatuses[s] }

// validNext lists where an order may move from each status. Admins may
// reorder the fulfilment steps freely, but terminal states have no exits:
// once stock has gone back on the shelf the order is frozen.
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusShipped: true, StatusDelivered: true, StatusCancelled: true, StatusReturned: true},
	StatusConfirmed: {StatusPending: true, StatusShipped: true, StatusDelivered: true, StatusCancelled: true, StatusReturned: true},
	StatusShipped:   {StatusPending: true, StatusConfirmed: true, StatusDelivered: true, StatusCancelled: true, StatusReturned: true},
	StatusDelivered: {StatusPending: true, StatusConfirmed: true, StatusShipped: true, StatusCancelled: true, StatusReturned: true},
	StatusCancelled: {},
	StatusReturned:  {},
}

func (s Status) CanTransition(t Status) bool { return validNext[s][t] }

// Terminal statuses put stock back on the shelf. Once an order sits in one of
// them, no further transition may touch inventory again.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusReturned
}

// Cancellable reports whether a customer may still cancel from this status.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}
