package saga

import (
	"errors"
	"fmt"

	"github.com/example/ordershop/pkg/clients"
)

// Creation outcomes. InvalidInput through InsufficientStock are rejections
// with no side effects; the remaining classes mark where the workflow broke.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUserNotFound      = errors.New("user not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDependencyFailure: a remote call failed before anything was committed.
	ErrDependencyFailure = errors.New("dependency failure")
	// ErrPersistenceFailure: the local insert failed; nothing to compensate.
	ErrPersistenceFailure = errors.New("persistence failure")
	// ErrStockCommitFailure: the stock decrement failed after the local insert
	// and the compensating delete succeeded. The store holds no trace of the
	// attempt.
	ErrStockCommitFailure = errors.New("stock commit failed")
	// ErrCompensationFailure: the stock decrement failed AND the compensating
	// delete failed, leaving an orphaned order record behind.
	ErrCompensationFailure = errors.New("compensation failed")
)

// CompensationError carries both causes of a failed compensation: the stock
// commit error that triggered it and the delete error that left the orphaned
// order in place.
type CompensationError struct {
	OrderID   string
	CommitErr error
	DeleteErr error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensation failed for order %s: stock commit: %v, delete: %v",
		e.OrderID, e.CommitErr, e.DeleteErr)
}

func (e *CompensationError) Unwrap() error {
	return ErrCompensationFailure
}

// isNotFound distinguishes "the collaborator answered: no such entity" from
// every other way a remote call can fail.
func isNotFound(err error) bool {
	return errors.Is(err, clients.ErrNotFound)
}
