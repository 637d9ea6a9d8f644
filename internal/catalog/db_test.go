package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/omarbakri/familysouq-backend/pkg/db/models"
	"github.com/omarbakri/familysouq-backend/pkg/enums"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:catalogtest?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	usersTable := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  user_name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone_number TEXT NOT NULL DEFAULT '',
  country_code TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  bank_account_number TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  image TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	productsTable := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  family_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  image TEXT,
  price TEXT NOT NULL,
  discount INTEGER NOT NULL DEFAULT 0,
  stock_limited INTEGER NOT NULL DEFAULT 0,
  count_in_stock INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
`
	require.NoError(t, db.Exec(usersTable).Error)
	require.NoError(t, db.Exec(productsTable).Error)
	require.NoError(t, db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_family_name ON products (family_id, name)",
	).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM products")
		db.Exec("DELETE FROM users")
	})
	return db
}

func newUser(t *testing.T, db *gorm.DB, name string, role enums.UserRole, active bool) *models.User {
	t.Helper()

	user := &models.User{
		ID:       uuid.New(),
		UserName: name,
		Email:    uuid.NewString() + "@example.com",
		Role:     role,
		IsActive: active,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newProduct(t *testing.T, db *gorm.DB, family *models.User, name string, price string, active bool) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:       uuid.New(),
		FamilyID: family.ID,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		IsActive: active,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}
