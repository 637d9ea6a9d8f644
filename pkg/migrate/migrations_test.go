package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/omarbakri/familysouq-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestOrdersMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_orders_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS user_orders",
		"CREATE TABLE IF NOT EXISTS family_orders",
		"CREATE TABLE IF NOT EXISTS order_lines",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_user_orders_order_number",
		"CREATE INDEX IF NOT EXISTS idx_family_orders_family_created",
		"status IN ('pending', 'delivered', 'cancelled')",
		"ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProductsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_products_table.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_family_name",
		"CHECK (count_in_stock >= 0)",
		"CHECK (discount BETWEEN 0 AND 100)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCartMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_cart_items_table.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS cart_items",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_user_family_product",
		"CHECK (quantity >= 1)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
