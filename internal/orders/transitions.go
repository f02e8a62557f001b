package orders

import (
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var allStatuses = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusConfirmed,
	enums.OrderStatusProcessing,
	enums.OrderStatusShipped,
	enums.OrderStatusDelivered,
	enums.OrderStatusCancelled,
	enums.OrderStatusReturned,
}

// NextStatuses lists the statuses reachable from the given one.
func NextStatuses(from enums.OrderStatus) []enums.OrderStatus {
	out := []enums.OrderStatus{}
	for _, candidate := range allStatuses {
		if from.CanTransitionTo(candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

func checkTransition(from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if from.CanTransitionTo(to) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order cannot move from "+string(from)+" to "+string(to)).
		WithDetails(map[string]any{"from": from, "to": to, "allowed": NextStatuses(from)})
}
