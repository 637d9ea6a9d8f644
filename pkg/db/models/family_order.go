package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/omarbakri/familysouq-backend/pkg/enums"
)

// FamilyOrder is one family's slice of a client checkout. It is created
// before its parent user order, then back-patched with the parent's id and
// order number once the parent exists. Line contents are immutable after
// creation; only Status may change.
type FamilyOrder struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserOrderID *uuid.UUID        `gorm:"column:user_order_id;type:uuid;index"`
	OrderNumber string            `gorm:"column:order_number;not null;default:''"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	FamilyID    uuid.UUID         `gorm:"column:family_id;type:uuid;not null;index"`
	Subtotal    decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Phone       string            `gorm:"column:phone;not null;default:''"`
	Address     string            `gorm:"column:address;not null;default:''"`
	Location    string            `gorm:"column:location;not null;default:''"`
	OrderNotes  string            `gorm:"column:order_notes;not null;default:''"`
	FamilyNotes string            `gorm:"column:family_notes;not null;default:''"`
	Lines       []OrderLine       `gorm:"foreignKey:FamilyOrderID;constraint:OnDelete:CASCADE"`
	Family      *User             `gorm:"foreignKey:FamilyID"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
