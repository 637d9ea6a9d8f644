package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a family's listing. CountInStock is only meaningful when
// StockLimited is set; it is mutated exclusively through the inventory
// reservation helpers so it can never be driven negative by racing checkouts.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FamilyID     uuid.UUID       `gorm:"column:family_id;type:uuid;not null;uniqueIndex:idx_products_family_name"`
	Name         string          `gorm:"column:name;not null;uniqueIndex:idx_products_family_name"`
	Description  string          `gorm:"column:description;not null;default:''"`
	Image        *string         `gorm:"column:image"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Discount     int             `gorm:"column:discount;not null;default:0"`
	StockLimited bool            `gorm:"column:stock_limited;not null;default:false"`
	CountInStock int             `gorm:"column:count_in_stock;not null;default:0"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	Family       *User           `gorm:"foreignKey:FamilyID"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
