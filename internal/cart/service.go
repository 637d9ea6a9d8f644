package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/omarbakri/familysouq-backend/internal/catalog"
	"github.com/omarbakri/familysouq-backend/internal/pricing"
	"github.com/omarbakri/familysouq-backend/pkg/db/models"
	pkgerrors "github.com/omarbakri/familysouq-backend/pkg/errors"
	"github.com/omarbakri/familysouq-backend/pkg/logger"
)

// AddItemInput carries the payload for one add-to-cart call.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// QuantityUpdate is one entry of a batch quantity change.
type QuantityUpdate struct {
	ItemID   uuid.UUID
	Quantity int
}

// BatchUpdateResult reports the per-item outcome of a batch update.
type BatchUpdateResult struct {
	Updated  int            `json:"updated"`
	Failures []BatchFailure `json:"failures,omitempty"`
}

// BatchFailure names the item that could not be updated and why.
type BatchFailure struct {
	ItemID uuid.UUID `json:"item_id"`
	Reason string    `json:"reason"`
}

// LineView is one priced cart line.
type LineView struct {
	ItemID             uuid.UUID       `json:"item_id"`
	ProductID          uuid.UUID       `json:"product_id"`
	ProductName        string          `json:"product_name"`
	Image              *string         `json:"image,omitempty"`
	Quantity           int             `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
	Discount           int             `json:"discount"`
	PriceAfterDiscount decimal.Decimal `json:"price_after_discount"`
	LineTotal          decimal.Decimal `json:"line_total"`
}

// FamilyGroup is the slice of a cart belonging to one family.
type FamilyGroup struct {
	FamilyID   uuid.UUID       `json:"family_id"`
	FamilyName string          `json:"family_name"`
	Lines      []LineView      `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// View is the grouped, priced cart for one user.
type View struct {
	Groups []FamilyGroup   `json:"groups"`
	Total  decimal.Decimal `json:"total"`
	Lines  int             `json:"lines"`
}

// Service exposes cart operations.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*View, error)
	GetFamilyCart(ctx context.Context, userID, familyID uuid.UUID) (*FamilyGroup, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*models.CartItem, error)
	UpdateQuantities(ctx context.Context, userID uuid.UUID, updates []QuantityUpdate) (*BatchUpdateResult, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo    *Repository
	catalog *catalog.Repository
	logg    *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, catalogRepo *catalog.Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, catalog: catalogRepo, logg: logg}, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.catalog.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnavailable, "product is not available")
	}

	item := &models.CartItem{
		UserID:    userID,
		FamilyID:  product.FamilyID,
		ProductID: product.ID,
		Quantity:  input.Quantity,
	}
	saved, err := s.repo.Upsert(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return saved, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	items, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	items, err = s.pruneOrphans(ctx, items)
	if err != nil {
		return nil, err
	}

	view := &View{Groups: []FamilyGroup{}, Total: decimal.Zero}
	index := map[uuid.UUID]int{}
	for _, item := range items {
		line := priceLine(item)
		pos, ok := index[item.FamilyID]
		if !ok {
			group := FamilyGroup{
				FamilyID: item.FamilyID,
				Subtotal: decimal.Zero,
			}
			if item.Family != nil {
				group.FamilyName = item.Family.UserName
			}
			view.Groups = append(view.Groups, group)
			pos = len(view.Groups) - 1
			index[item.FamilyID] = pos
		}
		view.Groups[pos].Lines = append(view.Groups[pos].Lines, line)
		view.Groups[pos].Subtotal = view.Groups[pos].Subtotal.Add(line.LineTotal)
		view.Total = view.Total.Add(line.LineTotal)
		view.Lines++
	}
	return view, nil
}

func (s *service) GetFamilyCart(ctx context.Context, userID, familyID uuid.UUID) (*FamilyGroup, error) {
	if userID == uuid.Nil || familyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and family id required")
	}

	items, err := s.repo.FindByUserAndFamily(ctx, userID, familyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load family cart")
	}

	items, err = s.pruneOrphans(ctx, items)
	if err != nil {
		return nil, err
	}

	group := &FamilyGroup{FamilyID: familyID, Subtotal: decimal.Zero, Lines: []LineView{}}
	for _, item := range items {
		if group.FamilyName == "" && item.Family != nil {
			group.FamilyName = item.Family.UserName
		}
		line := priceLine(item)
		group.Lines = append(group.Lines, line)
		group.Subtotal = group.Subtotal.Add(line.LineTotal)
	}
	return group, nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	item, err := s.loadOwnedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateQuantity(ctx, item.ID, qty); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart quantity")
	}
	item.Quantity = qty
	return item, nil
}

func (s *service) UpdateQuantities(ctx context.Context, userID uuid.UUID, updates []QuantityUpdate) (*BatchUpdateResult, error) {
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one update required")
	}

	result := &BatchUpdateResult{}
	var itemErrs error
	for _, update := range updates {
		if _, err := s.UpdateQuantity(ctx, userID, update.ItemID, update.Quantity); err != nil {
			itemErrs = multierr.Append(itemErrs, fmt.Errorf("item %s: %w", update.ItemID, err))
			result.Failures = append(result.Failures, BatchFailure{
				ItemID: update.ItemID,
				Reason: failureReason(err),
			})
			continue
		}
		result.Updated++
	}

	if itemErrs != nil {
		s.logg.Warn(s.logg.WithField(ctx, "errors", itemErrs.Error()), "cart batch update finished with failures")
	}
	return result, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.loadOwnedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return count, nil
}

func (s *service) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart items")
	}
	return count, nil
}

func (s *service) loadOwnedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id required")
	}
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart item does not belong to user")
	}
	return item, nil
}

// pruneOrphans drops lines whose product has been deleted since they were
// added. The deletion is best effort; a failed prune still returns the
// surviving lines.
func (s *service) pruneOrphans(ctx context.Context, items []models.CartItem) ([]models.CartItem, error) {
	var orphans []uuid.UUID
	kept := items[:0]
	for _, item := range items {
		if item.Product == nil {
			orphans = append(orphans, item.ID)
			continue
		}
		kept = append(kept, item)
	}
	if len(orphans) > 0 {
		if err := s.repo.DeleteItems(ctx, orphans); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "pruning orphaned cart lines failed")
		}
	}
	return kept, nil
}

func failureReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}

func priceLine(item models.CartItem) LineView {
	line := LineView{
		ItemID:    item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	}
	if item.Product != nil {
		quote := pricing.QuoteLine(item.Product.Price, item.Product.Discount, item.Quantity)
		line.ProductName = item.Product.Name
		line.Image = item.Product.Image
		line.Price = quote.Price
		line.Discount = quote.Discount
		line.PriceAfterDiscount = quote.PriceAfterDiscount
		line.LineTotal = quote.LineTotal
	}
	return line
}
