package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine snapshots one product position inside a family order. Prices are
// copied from the live product at checkout time and never change afterwards.
type OrderLine struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FamilyOrderID      uuid.UUID       `gorm:"column:family_order_id;type:uuid;not null"`
	ProductID          uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName        string          `gorm:"column:product_name;not null"`
	Quantity           int             `gorm:"column:quantity;not null"`
	Price              decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Discount           int             `gorm:"column:discount;not null;default:0"`
	PriceAfterDiscount decimal.Decimal `gorm:"column:price_after_discount;type:numeric(12,2);not null"`
	LineTotal          decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
}
