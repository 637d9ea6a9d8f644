package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarbakri/familysouq-backend/pkg/db/models"
	"github.com/omarbakri/familysouq-backend/pkg/enums"
)

// Repository exposes user-related persistence operations. Account creation
// and credentials live outside this service; the marketplace only reads.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindFamilyByID loads a user and confirms it carries the family role.
// Returns gorm.ErrRecordNotFound when the id exists but is not a family.
func (r *Repository) FindFamilyByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND role = ?", id, enums.UserRoleFamily).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
