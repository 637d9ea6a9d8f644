package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/omarbakri/familysouq-backend/pkg/enums"
)

// UserOrder is the client-facing aggregate of one checkout. Status is a
// cached projection over the family orders' statuses: it is recomputed
// whenever a family order changes and refreshed again on list reads.
type UserOrder struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index:idx_user_orders_user_created"`
	OrderNumber  string            `gorm:"column:order_number;not null;uniqueIndex"`
	TotalAmount  decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status       enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Phone        string            `gorm:"column:phone;not null;default:''"`
	Address      string            `gorm:"column:address;not null;default:''"`
	Location     string            `gorm:"column:location;not null;default:''"`
	OrderNotes   string            `gorm:"column:order_notes;not null;default:''"`
	FamilyOrders []FamilyOrder     `gorm:"foreignKey:UserOrderID"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime;index:idx_user_orders_user_created"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
