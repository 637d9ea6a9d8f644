package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarbakri/familysouq-backend/pkg/db/models"
)

// Repository persists the order rows created by a checkout.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateFamilyOrder inserts one sub-order row.
func (r *Repository) CreateFamilyOrder(ctx context.Context, order *models.FamilyOrder) (*models.FamilyOrder, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// CreateOrderLines inserts the lines of one sub-order.
func (r *Repository) CreateOrderLines(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

// CreateUserOrder inserts the parent order row.
func (r *Repository) CreateUserOrder(ctx context.Context, order *models.UserOrder) (*models.UserOrder, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// OrderNumberExists reports whether a parent order already carries the number.
func (r *Repository) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserOrder{}).
		Where("order_number = ?", number).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AttachFamilyOrders back-patches the sub-orders with their parent's id and
// order number once the parent row exists.
func (r *Repository) AttachFamilyOrders(ctx context.Context, familyOrderIDs []uuid.UUID, userOrderID uuid.UUID, orderNumber string) error {
	if len(familyOrderIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.FamilyOrder{}).
		Where("id IN ?", familyOrderIDs).
		Updates(map[string]any{
			"user_order_id": userOrderID,
			"order_number":  orderNumber,
		}).Error
}

// FindUserOrderByID loads a parent order with its sub-orders and lines.
func (r *Repository) FindUserOrderByID(ctx context.Context, id uuid.UUID) (*models.UserOrder, error) {
	var order models.UserOrder
	err := r.db.WithContext(ctx).
		Preload("FamilyOrders", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("FamilyOrders.Lines").
		Preload("FamilyOrders.Family").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
