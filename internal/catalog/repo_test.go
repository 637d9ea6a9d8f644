package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarbakri/familysouq-backend/pkg/enums"
	"github.com/omarbakri/familysouq-backend/pkg/pagination"
)

func TestListProductsHidesInactiveFamilies(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	activeFamily := newUser(t, db, "Um Ahmad Kitchen", enums.UserRoleFamily, true)
	inactiveFamily := newUser(t, db, "Closed Kitchen", enums.UserRoleFamily, false)
	newProduct(t, db, activeFamily, "Maqluba Tray", "25.00", true)
	newProduct(t, db, activeFamily, "Hidden Dish", "10.00", false)
	newProduct(t, db, inactiveFamily, "Ghost Dish", "5.00", true)

	result, err := repo.ListProducts(context.Background(), ListQuery{})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Maqluba Tray", result.Products[0].Name)
	assert.Equal(t, "Um Ahmad Kitchen", result.Products[0].FamilyName)
	assert.Equal(t, int64(1), result.Meta.TotalCount)
}

func TestListProductsNameSearchIsCaseInsensitive(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	family := newUser(t, db, "Searchable Kitchen", enums.UserRoleFamily, true)
	newProduct(t, db, family, "Stuffed Grape Leaves", "18.00", true)
	newProduct(t, db, family, "Kunafa Plate", "12.00", true)

	result, err := repo.ListProducts(context.Background(), ListQuery{
		Filters: ListFilters{Query: "GRAPE"},
	})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Stuffed Grape Leaves", result.Products[0].Name)
}

func TestListProductsFiltersByFamily(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	familyA := newUser(t, db, "Family A", enums.UserRoleFamily, true)
	familyB := newUser(t, db, "Family B", enums.UserRoleFamily, true)
	newProduct(t, db, familyA, "Dish A", "10.00", true)
	newProduct(t, db, familyB, "Dish B", "11.00", true)

	result, err := repo.ListProducts(context.Background(), ListQuery{
		Filters: ListFilters{FamilyID: &familyB.ID},
	})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Dish B", result.Products[0].Name)
}

func TestListProductsPaginates(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	family := newUser(t, db, "Busy Kitchen", enums.UserRoleFamily, true)
	for _, name := range []string{"One", "Two", "Three", "Four", "Five"} {
		newProduct(t, db, family, name, "10.00", true)
	}

	result, err := repo.ListProducts(context.Background(), ListQuery{
		Pagination: pagination.Params{Page: 1, Limit: 2},
	})
	require.NoError(t, err)
	assert.Len(t, result.Products, 2)
	assert.Equal(t, int64(5), result.Meta.TotalCount)
	assert.Equal(t, 3, result.Meta.NumOfPages)

	last, err := repo.ListProducts(context.Background(), ListQuery{
		Pagination: pagination.Params{Page: 3, Limit: 2},
	})
	require.NoError(t, err)
	assert.Len(t, last.Products, 1)
}

func TestListProductsIncludeInactiveForOwnerViews(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	family := newUser(t, db, "Owner Kitchen", enums.UserRoleFamily, true)
	newProduct(t, db, family, "Live Dish", "10.00", true)
	newProduct(t, db, family, "Paused Dish", "10.00", false)

	result, err := repo.ListProducts(context.Background(), ListQuery{
		Filters:         ListFilters{FamilyID: &family.ID},
		IncludeInactive: true,
	})
	require.NoError(t, err)
	assert.Len(t, result.Products, 2)
}
