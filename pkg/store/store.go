// Package store provides durable CRUD for order records. The Mongo
// implementation backs production; the memory implementation backs tests and
// local runs without a database.
package store

import (
	"context"
	"errors"

	"github.com/example/ordershop/pkg/models"
)

// ErrNotFound is reported by every lookup, update, and delete that targets an
// id with no stored order.
var ErrNotFound = errors.New("order not found")

// OrderStore is the persistence contract for orders. Insert generates the
// record id and stamps CreatedAt, mutating the passed order; both list
// operations return newest first.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) (string, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Order, error)
	Delete(ctx context.Context, id string) error
}
