package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarbakri/familysouq-backend/pkg/db/models"
	"github.com/omarbakri/familysouq-backend/pkg/enums"
)

// Repository exposes order persistence for listing and status changes.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
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

// FindFamilyOrderByID loads one sub-order with its lines.
func (r *Repository) FindFamilyOrderByID(ctx context.Context, id uuid.UUID) (*models.FamilyOrder, error) {
	var order models.FamilyOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateFamilyOrderStatus overwrites the status of one sub-order. Family
// notes are only touched when non-empty so earlier notes survive.
func (r *Repository) UpdateFamilyOrderStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, familyNotes string) error {
	updates := map[string]any{"status": status}
	if familyNotes != "" {
		updates["family_notes"] = familyNotes
	}
	return r.db.WithContext(ctx).
		Model(&models.FamilyOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// FindFamilyOrdersByParent lists the sub-orders of one parent order.
func (r *Repository) FindFamilyOrdersByParent(ctx context.Context, userOrderID uuid.UUID) ([]models.FamilyOrder, error) {
	var siblings []models.FamilyOrder
	err := r.db.WithContext(ctx).
		Where("user_order_id = ?", userOrderID).
		Order("created_at ASC").
		Find(&siblings).Error
	if err != nil {
		return nil, err
	}
	return siblings, nil
}

// FindUserOrderByID loads a parent order without associations.
func (r *Repository) FindUserOrderByID(ctx context.Context, id uuid.UUID) (*models.UserOrder, error) {
	var order models.UserOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateUserOrderStatus overwrites the cached status of a parent order.
func (r *Repository) UpdateUserOrderStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.UserOrder{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListUserOrders returns a client's parent orders newest first with their
// sub-orders and lines attached.
func (r *Repository) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]models.UserOrder, error) {
	var userOrders []models.UserOrder
	err := r.db.WithContext(ctx).
		Preload("FamilyOrders", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("FamilyOrders.Lines").
		Preload("FamilyOrders.Family").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&userOrders).Error
	if err != nil {
		return nil, err
	}
	return userOrders, nil
}

// ListFamilyOrders returns a family's sub-orders newest first.
func (r *Repository) ListFamilyOrders(ctx context.Context, familyID uuid.UUID, status *enums.OrderStatus) ([]models.FamilyOrder, error) {
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Where("family_id = ?", familyID).
		Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var familyOrders []models.FamilyOrder
	if err := query.Find(&familyOrders).Error; err != nil {
		return nil, err
	}
	return familyOrders, nil
}

// CountUserOrders counts a client's parent orders, optionally by status.
func (r *Repository) CountUserOrders(ctx context.Context, userID uuid.UUID, status *enums.OrderStatus) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.UserOrder{}).
		Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountFamilyOrders counts a family's sub-orders, optionally by status.
func (r *Repository) CountFamilyOrders(ctx context.Context, familyID uuid.UUID, status *enums.OrderStatus) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.FamilyOrder{}).
		Where("family_id = ?", familyID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
