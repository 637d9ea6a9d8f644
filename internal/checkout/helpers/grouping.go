package helpers

import (
	"github.com/google/uuid"

	"github.com/omarbakri/familysouq-backend/pkg/db/models"
)

// GroupCartItemsByFamily groups the provided cart items by their seller family.
func GroupCartItemsByFamily(items []models.CartItem) map[uuid.UUID][]models.CartItem {
	grouped := make(map[uuid.UUID][]models.CartItem, len(items))
	for _, item := range items {
		grouped[item.FamilyID] = append(grouped[item.FamilyID], item)
	}
	return grouped
}

// FamilyIDsInOrder returns the distinct family ids in first-seen order so
// sub-orders are created deterministically.
func FamilyIDsInOrder(items []models.CartItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.FamilyID]; ok {
			continue
		}
		seen[item.FamilyID] = struct{}{}
		ids = append(ids, item.FamilyID)
	}
	return ids
}
