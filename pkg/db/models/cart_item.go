package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem holds one pending line for a client. Adding the same product for
// the same family merges quantities instead of inserting a second row.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_user_family_product"`
	FamilyID  uuid.UUID `gorm:"column:family_id;type:uuid;not null;uniqueIndex:idx_cart_user_family_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_user_family_product"`
	Quantity  int       `gorm:"column:quantity;not null"`
	Family    *User     `gorm:"foreignKey:FamilyID"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
