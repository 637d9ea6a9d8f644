package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/omarbakri/familysouq-backend/pkg/errors"
)

// ErrInsufficient signals that a reservation asked for more units than the
// product has left. Callers decorate it with product context before it
// reaches the API surface.
var ErrInsufficient = errors.New("insufficient stock")

// Manager guards stock-limited products. Both operations must run inside the
// caller's transaction so the stock movement commits or rolls back with the
// order rows it belongs to.
type Manager interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type manager struct{}

// NewManager exposes the default stock manager implementation.
func NewManager() Manager {
	return manager{}
}

// Reserve decrements count_in_stock only when enough units remain. The
// conditional update is a single statement, so concurrent checkouts cannot
// both take the last unit: one of them sees zero rows affected.
func (manager) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reservation")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET count_in_stock = count_in_stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_limited AND count_in_stock >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		return ErrInsufficient
	}
	return nil
}

// Release returns units after a cancellation. The stock_limited guard keeps
// unlimited products untouched even if a caller passes one through.
func (manager) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock release")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET count_in_stock = count_in_stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_limited
	`, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
	}
	return nil
}
