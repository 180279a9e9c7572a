// store/store.go
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tradeguard/platform/shared/contracts"
)

var (
	ErrNotFound            = errors.New("consignment not found")
	ErrDuplicateShipmentID = errors.New("shipment ID already exists")
)

// ConsignmentStore defines the interface for the storage layer.
// The API, the compliance workflow activities and the tests all talk to it.
type ConsignmentStore interface {
	// CreateConsignment stores c. A second consignment with the same
	// ShipmentID fails with ErrDuplicateShipmentID.
	CreateConsignment(ctx context.Context, c contracts.Consignment) error

	// GetConsignments lists every consignment, newest first. Invoice bytes
	// are not loaded; HasCommercialInvoice tells whether one exists.
	GetConsignments(ctx context.Context) ([]contracts.Consignment, error)

	// GetConsignment loads one consignment including its invoice.
	GetConsignment(ctx context.Context, id uuid.UUID) (contracts.Consignment, error)

	// UpdateCompliance sets the stored compliance status.
	UpdateCompliance(ctx context.Context, id uuid.UUID, status contracts.ComplianceStatus) error
}
