package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/ordershop/pkg/models"
	"github.com/google/uuid"
)

// MemoryOrderStore is an in-memory OrderStore keyed by generated UUIDs.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{
		orders: make(map[string]models.Order),
	}
}

func (s *MemoryOrderStore) Insert(ctx context.Context, order *models.Order) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order.ID = uuid.New().String()
	order.CreatedAt = time.Now().UTC()
	if order.Status == "" {
		order.Status = models.StatusPending
	}
	s.orders[order.ID] = *order
	return order.ID, nil
}

func (s *MemoryOrderStore) Get(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &order, nil
}

func (s *MemoryOrderStore) ListAll(ctx context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, order)
	}
	sortNewestFirst(orders)
	return orders, nil
}

func (s *MemoryOrderStore) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := []models.Order{}
	for _, order := range s.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	sortNewestFirst(orders)
	return orders, nil
}

func (s *MemoryOrderStore) UpdateStatus(ctx context.Context, id, status string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	order.Status = status
	s.orders[id] = order
	return &order, nil
}

func (s *MemoryOrderStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

// Len reports the number of stored orders.
func (s *MemoryOrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

func sortNewestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
