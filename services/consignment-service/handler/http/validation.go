package httpHandler

import (
	"github.com/go-playground/validator/v10"

	"github.com/tradeguard/platform/services/consignment-service/shipment"
	"github.com/tradeguard/platform/shared/middleware"
)

// RegisterValidators adds the "country" rule. Call before serving.
func RegisterValidators() error {
	return middleware.RegisterValidation("country", func(fl validator.FieldLevel) bool {
		return shipment.Country(fl.Field().String()).Valid()
	})
}
