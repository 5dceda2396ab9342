package order

import (
	"github.com/go-faster/errors"

	"github.com/shopcuathuy/marketplace-api/internal/domain/actor"
)

// Sentinel errors for lifecycle transitions.
var (
	// ErrInvalidTransition is returned when the requested status is not
	// reachable from the current one. Surfaced to the actor, never
	// auto-corrected.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrForbidden is returned when the actor's role is not permitted for an
	// otherwise valid edge.
	ErrForbidden = errors.New("actor not permitted for this transition")
	// ErrConflict is returned when the optimistic-concurrency precondition
	// failed; the caller must re-fetch and re-decide.
	ErrConflict = errors.New("order status changed concurrently")
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
)

// transitions is the lifecycle edge table: for each current status, the
// reachable next statuses and the roles allowed to trigger them.
//
// Customers may cancel only while PENDING. Sellers and admins may cancel
// from PENDING and PROCESSING but never once the order is SHIPPING; the
// shipment flow owns the order from that point. SHIPPING -> DELIVERED is
// either triggered directly by seller/admin or by the system when the
// shipment reaches its terminal state.
var transitions = map[Status]map[Status][]actor.Role{
	StatusPending: {
		StatusProcessing: {actor.RoleSeller, actor.RoleAdmin},
		StatusCancelled:  {actor.RoleCustomer, actor.RoleSeller, actor.RoleAdmin},
	},
	StatusProcessing: {
		StatusShipping:  {actor.RoleSeller, actor.RoleAdmin},
		StatusCancelled: {actor.RoleSeller, actor.RoleAdmin},
	},
	StatusShipping: {
		StatusDelivered: {actor.RoleSeller, actor.RoleAdmin, actor.RoleSystem},
	},
}

// Transition validates that requested is reachable from current and that
// role may trigger that edge. Requesting the status the order already has is
// a valid no-op, which makes retried requests idempotent.
func Transition(current, requested Status, role actor.Role) error {
	if requested == current {
		return nil
	}

	edges, ok := transitions[current]
	if !ok {
		return errors.Wrapf(ErrInvalidTransition, "%s is terminal", current)
	}
	roles, ok := edges[requested]
	if !ok {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", current, requested)
	}

	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	return errors.Wrapf(ErrForbidden, "%s may not move %s -> %s", role, current, requested)
}

// AllowedNext returns the statuses reachable from current, regardless of role.
// Used by read surfaces to render available actions.
func AllowedNext(current Status) []Status {
	edges, ok := transitions[current]
	if !ok {
		return nil
	}
	next := make([]Status, 0, len(edges))
	for s := range edges {
		next = append(next, s)
	}
	return next
}
