package orders

import (
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// checkTransition rejects moves out of DELIVERED or CANCELLED and no-op
// updates. Every other move between non-terminal statuses is accepted.
func checkTransition(from, to enums.OrderStatus) error {
	if from.IsTerminal() {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is %s and can no longer change status", from).
			WithDetails(map[string]any{"currentStatus": from, "requestedStatus": to})
	}
	if from == to {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is already %s", from).
			WithDetails(map[string]any{"currentStatus": from})
	}
	return nil
}
