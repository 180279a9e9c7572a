package httpHandler

import (
	"context"
	"errors"

	"github.com/tradeguard/platform/services/consignment-service/internal/hscode"
	"github.com/tradeguard/platform/services/consignment-service/service"
	"github.com/tradeguard/platform/services/consignment-service/shipment"
	"github.com/tradeguard/platform/services/consignment-service/store"
	"github.com/tradeguard/platform/shared/apperrors"
)

// mapError turns service and store errors into the messages the web client
// shows. Anything unknown becomes an opaque 500.
func mapError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.ErrNotFound("Consignment not found").Wrap(err)
	case errors.Is(err, store.ErrDuplicateShipmentID):
		return apperrors.ErrConflict("Shipment ID already exists").Wrap(err)
	case errors.Is(err, service.ErrInvoiceNotFound):
		return apperrors.ErrNotFound("Invoice not found").Wrap(err)
	case errors.Is(err, service.ErrInvalidStatus):
		return apperrors.ErrBadRequest("Invalid compliance status").Wrap(err)
	case errors.Is(err, shipment.ErrSameCountry):
		return apperrors.ErrValidation(shipment.ErrSameCountry.Error()).
			WithDetail("receiver_country", "must differ from sender_country")
	case errors.Is(err, hscode.ErrNotFound):
		return apperrors.ErrNotFound(hscode.ErrNotFound.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.ErrServiceUnavailable("Consignment store").Wrap(err)
	}
	return apperrors.FromError(err)
}
