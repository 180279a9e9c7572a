package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/tradeguard/platform/shared/contracts"
)

// MemoryStore keeps consignments in process memory. Used with STORE=memory
// and in tests.
type MemoryStore struct {
	consignments map[uuid.UUID]contracts.Consignment
	byShipmentID map[string]uuid.UUID
	mu           sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		consignments: make(map[uuid.UUID]contracts.Consignment),
		byShipmentID: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) CreateConsignment(ctx context.Context, c contracts.Consignment) error {
	// Check if the context is canceled or timed out
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byShipmentID[c.ShipmentID]; exists {
		return ErrDuplicateShipmentID
	}
	c.CommercialInvoice = slices.Clone(c.CommercialInvoice)
	c.HasCommercialInvoice = len(c.CommercialInvoice) > 0
	s.consignments[c.UUID] = c
	s.byShipmentID[c.ShipmentID] = c.UUID
	return nil
}

func (s *MemoryStore) GetConsignments(ctx context.Context) ([]contracts.Consignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]contracts.Consignment, 0, len(s.consignments))
	for _, c := range s.consignments {
		c.CommercialInvoice = nil
		result = append(result, c)
	}
	slices.SortFunc(result, func(a, b contracts.Consignment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) GetConsignment(ctx context.Context, id uuid.UUID) (contracts.Consignment, error) {
	if err := ctx.Err(); err != nil {
		return contracts.Consignment{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.consignments[id]
	if !ok {
		return contracts.Consignment{}, ErrNotFound
	}
	c.CommercialInvoice = slices.Clone(c.CommercialInvoice)
	return c, nil
}

func (s *MemoryStore) UpdateCompliance(ctx context.Context, id uuid.UUID, status contracts.ComplianceStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.consignments[id]
	if !ok {
		return ErrNotFound
	}
	c.Compliant = status
	s.consignments[id] = c
	return nil
}
