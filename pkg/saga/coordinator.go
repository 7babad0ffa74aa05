// Package saga implements the cross-service order-creation workflow: resolve
// the user, resolve the product and check stock, snapshot the price, persist
// the order, then commit the stock decrement remotely, deleting the order
// again if the decrement fails. No step retries; every failure is terminal
// for the request and the caller decides whether to retry the whole create.
package saga

import (
	"context"
	"fmt"

	"github.com/example/ordershop/pkg/models"
	"github.com/example/ordershop/pkg/store"
	"go.uber.org/zap"
)

// State names one position of a single creation attempt. Terminal states are
// StateDone and StateFailed; an attempt that ends in StateFailed after
// StateCompensating left an orphaned record only if compensation itself
// failed.
type State string

const (
	StateValidating       State = "validating"
	StateResolvingUser    State = "resolving_user"
	StateResolvingProduct State = "resolving_product"
	StatePersisting       State = "persisting"
	StateCommittingStock  State = "committing_stock"
	StateCompensating     State = "compensating"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// DirectoryClient resolves user records.
type DirectoryClient interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// CatalogClient resolves product records and requests stock decrements.
// DeductStock is treated as non-idempotent: the coordinator never retries it.
type CatalogClient interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	DeductStock(ctx context.Context, id string, quantity int) error
}

// CacheInvalidator drops any cached copy of an order. The coordinator calls
// it after a compensating delete so that a reader who cached the order during
// the persist-to-commit window cannot keep seeing a record the store no
// longer holds.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id string) error
}

// Coordinator orchestrates order creation across the store and the two
// remote services. All dependencies are injected; the coordinator holds no
// state between requests.
type Coordinator struct {
	store     store.OrderStore
	directory DirectoryClient
	catalog   CatalogClient
	cache     CacheInvalidator
	logger    *zap.Logger
}

// NewCoordinator wires a coordinator. cache may be nil when no read cache is
// configured.
func NewCoordinator(st store.OrderStore, directory DirectoryClient, catalog CatalogClient, cache CacheInvalidator, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:     st,
		directory: directory,
		catalog:   catalog,
		cache:     cache,
		logger:    logger,
	}
}

// Create runs one creation attempt. On success the returned order is
// persisted and the product's stock has been decremented exactly once. On
// error, the order is absent from the store, except when the error is
// ErrCompensationFailure, which marks the one inconsistent terminal state.
func (c *Coordinator) Create(ctx context.Context, userID, productID string, quantity int) (*models.Order, error) {
	st := c.enter(StateValidating, userID, productID)

	if userID == "" || productID == "" {
		return nil, fmt.Errorf("%w: userId and productId are required", ErrInvalidInput)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}

	st = c.advance(st, StateResolvingUser)
	user, err := c.directory.GetUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("%w: resolving user %s: %w", ErrDependencyFailure, userID, err)
	}

	st = c.advance(st, StateResolvingProduct)
	product, err := c.catalog.GetProduct(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("%w: resolving product %s: %w", ErrDependencyFailure, productID, err)
	}
	if product.Stock < quantity {
		return nil, fmt.Errorf("%w: product %s has %d, requested %d",
			ErrInsufficientStock, productID, product.Stock, quantity)
	}

	// Price snapshot: unit price observed right now, never recomputed.
	order := &models.Order{
		UserID:     userID,
		ProductID:  productID,
		Quantity:   quantity,
		TotalPrice: product.Price * float64(quantity),
		Status:     models.StatusPending,
		UserDetails: models.UserSnapshot{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
		ProductDetails: models.ProductSnapshot{
			Name:  product.Name,
			Price: product.Price,
		},
	}

	st = c.advance(st, StatePersisting)
	orderID, err := c.store.Insert(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("%w: inserting order: %w", ErrPersistenceFailure, err)
	}

	// Every step added after the insert must compensate the same way this one
	// does: a post-persist failure without a delete strands the record.
	st = c.advance(st, StateCommittingStock, zap.String("order_id", orderID))
	if err := c.catalog.DeductStock(ctx, productID, quantity); err != nil {
		return nil, c.compensate(st, orderID, err)
	}

	c.advance(st, StateDone, zap.String("order_id", orderID), zap.Float64("total_price", order.TotalPrice))
	return order, nil
}

// compensate deletes the order persisted earlier in the same attempt. A
// failed delete is the loudest event this package produces: it leaves an
// orphaned record that no later step will clean up.
func (c *Coordinator) compensate(st State, orderID string, commitErr error) error {
	st = c.advance(st, StateCompensating,
		zap.String("order_id", orderID),
		zap.Error(commitErr))

	if delErr := c.store.Delete(context.Background(), orderID); delErr != nil {
		c.logger.Error("Order compensation failed, orphaned order left in store",
			zap.String("order_id", orderID),
			zap.NamedError("commit_error", commitErr),
			zap.NamedError("delete_error", delErr))
		c.advance(st, StateFailed, zap.String("order_id", orderID))
		return &CompensationError{OrderID: orderID, CommitErr: commitErr, DeleteErr: delErr}
	}

	// The delete succeeded, but a reader may have cached the order between
	// the insert and now. Evict it; a failed eviction only extends staleness
	// until the cache TTL, so it does not change the outcome.
	if c.cache != nil {
		if err := c.cache.Invalidate(context.Background(), orderID); err != nil {
			c.logger.Warn("Failed to evict rolled-back order from cache",
				zap.String("order_id", orderID),
				zap.Error(err))
		}
	}

	c.logger.Warn("Order rolled back after stock commit failure",
		zap.String("order_id", orderID),
		zap.Error(commitErr))
	c.advance(st, StateFailed, zap.String("order_id", orderID))
	return fmt.Errorf("%w: %w", ErrStockCommitFailure, commitErr)
}

func (c *Coordinator) enter(s State, userID, productID string) State {
	c.logger.Debug("Saga started",
		zap.String("state", string(s)),
		zap.String("user_id", userID),
		zap.String("product_id", productID))
	return s
}

func (c *Coordinator) advance(from, to State, fields ...zap.Field) State {
	fields = append(fields,
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	c.logger.Debug("Saga transition", fields...)
	return to
}
