package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeguard/platform/shared/contracts"
)

func sample(shipmentID string, created time.Time, invoice []byte) contracts.Consignment {
	return contracts.Consignment{
		UUID:              uuid.New(),
		SenderName:        "Acme Exports",
		SenderAddress:     "12 MG Road, Pune",
		SenderCountry:     "IN",
		ReceiverName:      "Globex",
		ReceiverAddress:   "1 Main St",
		ReceiverCountry:   "US",
		ShipmentID:        shipmentID,
		ShipmentDate:      "2024-03-15",
		PackageQuantity:   3,
		HSCode:            "620520",
		TotalWeight:       42.5,
		ItemDesc:          "Cotton shirts",
		CommercialInvoice: invoice,
		Compliant:         contracts.CompliancePending,
		CreatedAt:         created,
	}
}

// exerciseStore runs the behaviour every ConsignmentStore must share.
func exerciseStore(t *testing.T, s ConsignmentStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	list, err := s.GetConsignments(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	older := sample("IN-US-240315-1111", base, []byte("%PDF-1.4 older"))
	newer := sample("IN-US-240315-2222", base.Add(time.Minute), nil)
	require.NoError(t, s.CreateConsignment(ctx, older))
	require.NoError(t, s.CreateConsignment(ctx, newer))

	dup := sample("IN-US-240315-1111", base, nil)
	assert.ErrorIs(t, s.CreateConsignment(ctx, dup), ErrDuplicateShipmentID)

	list, err = s.GetConsignments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ShipmentID, list[0].ShipmentID, "newest first")
	assert.Nil(t, list[1].CommercialInvoice, "list omits invoice bytes")
	assert.True(t, list[1].HasCommercialInvoice)
	assert.False(t, list[0].HasCommercialInvoice)

	got, err := s.GetConsignment(ctx, older.UUID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 older"), got.CommercialInvoice)
	assert.Equal(t, "2024-03-15", got.ShipmentDate)
	assert.Equal(t, 42.5, got.TotalWeight)
	assert.True(t, base.Equal(got.CreatedAt))

	_, err = s.GetConsignment(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpdateCompliance(ctx, newer.UUID, contracts.ComplianceFlagged))
	got, err = s.GetConsignment(ctx, newer.UUID)
	require.NoError(t, err)
	assert.Equal(t, contracts.ComplianceFlagged, got.Compliant)

	assert.ErrorIs(t, s.UpdateCompliance(ctx, uuid.New(), contracts.ComplianceCompliant), ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	assert.ErrorIs(t, s.CreateConsignment(ctx, sample("X", time.Now(), nil)), context.Canceled)
	_, err := s.GetConsignments(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
