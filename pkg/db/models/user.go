package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/omarbakri/familysouq-backend/pkg/enums"
)

// User represents the canonical identity entity. Admins manage the platform,
// families sell products, clients buy them.
type User struct {
	ID                uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserName          string         `gorm:"column:user_name;not null"`
	Email             string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PhoneNumber       string         `gorm:"column:phone_number;not null"`
	CountryCode       string         `gorm:"column:country_code;not null"`
	Description       string         `gorm:"column:description;not null;default:''"`
	BankAccountNumber string         `gorm:"column:bank_account_number;not null;default:''"`
	Address           string         `gorm:"column:address;not null;default:''"`
	Location          string         `gorm:"column:location;not null;default:''"`
	Image             string         `gorm:"column:image;not null;default:''"`
	Role              enums.UserRole `gorm:"column:role;type:text;not null"`
	IsActive          bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
