package order

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"

	"github.com/shopcuathuy/marketplace-api/internal/domain/actor"
)

var allStatuses = []Status{
	StatusPending, StatusProcessing, StatusShipping, StatusDelivered, StatusCancelled,
}

var externalRoles = []actor.Role{
	actor.RoleCustomer, actor.RoleSeller, actor.RoleAdmin,
}

// allowed lists every (from, to, role) triple the lifecycle permits for
// external actors. Everything else must fail.
var allowed = map[[2]Status][]actor.Role{
	{StatusPending, StatusProcessing}:   {actor.RoleSeller, actor.RoleAdmin},
	{StatusPending, StatusCancelled}:    {actor.RoleCustomer, actor.RoleSeller, actor.RoleAdmin},
	{StatusProcessing, StatusShipping}:  {actor.RoleSeller, actor.RoleAdmin},
	{StatusProcessing, StatusCancelled}: {actor.RoleSeller, actor.RoleAdmin},
	{StatusShipping, StatusDelivered}:   {actor.RoleSeller, actor.RoleAdmin},
}

func roleAllowed(roles []actor.Role, role actor.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// TestTransition_FullGrid exercises every status x status x role combination
// and checks the outcome against the edge table.
func TestTransition_FullGrid(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			for _, role := range externalRoles {
				err := Transition(from, to, role)

				switch {
				case from == to:
					// Idempotent retry of the current status.
					assert.NoError(t, err, "%s -> %s as %s", from, to, role)
				case roleAllowed(allowed[[2]Status{from, to}], role):
					assert.NoError(t, err, "%s -> %s as %s", from, to, role)
				case len(allowed[[2]Status{from, to}]) > 0:
					assert.ErrorIs(t, err, ErrForbidden, "%s -> %s as %s", from, to, role)
				default:
					assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s as %s", from, to, role)
				}
			}
		}
	}
}

func TestTransition_SystemRole(t *testing.T) {
	// The system role exists only for shipment-driven delivery.
	assert.NoError(t, Transition(StatusShipping, StatusDelivered, actor.RoleSystem))
	assert.ErrorIs(t, Transition(StatusPending, StatusProcessing, actor.RoleSystem), ErrForbidden)
	assert.ErrorIs(t, Transition(StatusPending, StatusCancelled, actor.RoleSystem), ErrForbidden)
}

func TestTransition_CustomerCancelWindow(t *testing.T) {
	// Customers may cancel only while the order is still PENDING.
	assert.NoError(t, Transition(StatusPending, StatusCancelled, actor.RoleCustomer))
	assert.ErrorIs(t, Transition(StatusProcessing, StatusCancelled, actor.RoleCustomer), ErrForbidden)
}

func TestTransition_SellerCannotCancelShipping(t *testing.T) {
	// Once SHIPPING, the shipment flow owns the order; cancel is closed even
	// for sellers and admins.
	err := Transition(StatusShipping, StatusCancelled, actor.RoleSeller)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	err = Transition(StatusShipping, StatusCancelled, actor.RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_TerminalStates(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		for _, to := range allStatuses {
			if to == terminal {
				continue
			}
			err := Transition(terminal, to, actor.RoleAdmin)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", terminal, to)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"PENDING", StatusPending},
		{"pending", StatusPending},
		{"  Shipping ", StatusShipping},
		{"SHIPPED", StatusShipping},
		{"CANCELED", StatusCancelled},
		{"CANCELLED", StatusCancelled},
		{"delivered", StatusDelivered},
		{"confirmed", StatusProcessing},
		{"REFUNDED", StatusUnknown},
		{"", StatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseStatus(tt.in), "input %q", tt.in)
	}
}

func TestErrorsUnwrap(t *testing.T) {
	err := Transition(StatusDelivered, StatusPending, actor.RoleAdmin)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}
