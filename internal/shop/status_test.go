package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled, StatusReturned} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Status("PAID").Valid())
	assert.False(t, Status("pending").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusReturned.Terminal())
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered} {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestStatusCanTransition(t *testing.T) {
	// terminal states have no exits
	for _, from := range []Status{StatusCancelled, StatusReturned} {
		for _, to := range []Status{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled, StatusReturned} {
			assert.False(t, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
	// everything else may move anywhere, including into terminal
	assert.True(t, StatusPending.CanTransition(StatusConfirmed))
	assert.True(t, StatusShipped.CanTransition(StatusConfirmed))
	assert.True(t, StatusDelivered.CanTransition(StatusReturned))
	assert.True(t, StatusConfirmed.CanTransition(StatusCancelled))
}

func TestStatusCancellable(t *testing.T) {
	assert.True(t, StatusPending.Cancellable())
	assert.True(t, StatusConfirmed.Cancellable())
	for _, s := range []Status{StatusShipped, StatusDelivered, StatusCancelled, StatusReturned} {
		assert.False(t, s.Cancellable(), string(s))
	}
}
