package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/omarbakri/familysouq-backend/internal/cart"
	"github.com/omarbakri/familysouq-backend/internal/catalog"
	"github.com/omarbakri/familysouq-backend/internal/checkout/helpers"
	"github.com/omarbakri/familysouq-backend/internal/inventory"
	"github.com/omarbakri/familysouq-backend/internal/pricing"
	"github.com/omarbakri/familysouq-backend/internal/users"
	"github.com/omarbakri/familysouq-backend/pkg/config"
	"github.com/omarbakri/familysouq-backend/pkg/db/models"
	"github.com/omarbakri/familysouq-backend/pkg/enums"
	pkgerrors "github.com/omarbakri/familysouq-backend/pkg/errors"
	"github.com/omarbakri/familysouq-backend/pkg/logger"
	"github.com/omarbakri/familysouq-backend/pkg/metrics"
)

// Input carries the delivery details supplied at checkout.
type Input struct {
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

// Summary reports what a successful checkout produced.
type Summary struct {
	TotalFamilies    int             `json:"total_families"`
	TotalProducts    int             `json:"total_products"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	CartItemsCleared int64           `json:"cart_items_cleared"`
}

// Service converts a client's cart into orders.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.UserOrder, *Summary, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx       txRunner
	cartRepo *cart.Repository
	users    *users.Repository
	products *catalog.Repository
	stock    inventory.Manager
	repo     *Repository
	cfg      config.CheckoutConfig
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	now      func() time.Time
	gen      func(time.Time) (string, error)
}

// NewService wires the checkout pipeline. The metrics recorder may be nil.
func NewService(
	tx txRunner,
	cartRepo *cart.Repository,
	usersRepo *users.Repository,
	products *catalog.Repository,
	stock inventory.Manager,
	repo *Repository,
	cfg config.CheckoutConfig,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("checkout service requires a transaction runner")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("checkout service requires a cart repository")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("checkout service requires a users repository")
	}
	if products == nil {
		return nil, fmt.Errorf("checkout service requires a product finder")
	}
	if stock == nil {
		return nil, fmt.Errorf("checkout service requires a stock manager")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout service requires a checkout repository")
	}
	if logg == nil {
		return nil, fmt.Errorf("checkout service requires a logger")
	}
	if cfg.OrderNumberMaxAttempts <= 0 {
		cfg.OrderNumberMaxAttempts = 5
	}
	return &service{
		tx:       tx,
		cartRepo: cartRepo,
		users:    usersRepo,
		products: products,
		stock:    stock,
		repo:     repo,
		cfg:      cfg,
		metrics:  checkoutMetrics,
		logg:     logg,
		now:      time.Now,
		gen:      GenerateOrderNumber,
	}, nil
}

// Execute runs the whole cart-to-order conversion in one transaction: stock
// reservations, family sub-orders, the parent order and the cart wipe all
// commit together or not at all.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.UserOrder, *Summary, error) {
	started := s.now()

	order, summary, err := s.execute(ctx, userID, input)

	outcome := "success"
	if err != nil {
		outcome = outcomeLabel(err)
	}
	s.metrics.ObserveCheckout(outcome, s.now().Sub(started))
	if err == nil && summary != nil {
		s.metrics.ObserveFamilies(summary.TotalFamilies)
		s.logg.Info(s.logg.WithFields(s.logg.WithUserID(ctx, userID.String()), map[string]any{
			"order_number": order.OrderNumber,
			"families":     summary.TotalFamilies,
			"total":        summary.TotalAmount.String(),
		}), "checkout completed")
	}
	return order, summary, err
}

func (s *service) execute(ctx context.Context, userID uuid.UUID, input Input) (*models.UserOrder, *Summary, error) {
	if input.Phone == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	if input.Address == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}

	var (
		created *models.UserOrder
		summary Summary
	)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		buyer, err := s.users.WithTx(tx).FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if buyer.Role != enums.UserRoleClient {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only clients can check out")
		}

		items, err := s.cartRepo.WithTx(tx).FindByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		grouped := helpers.GroupCartItemsByFamily(items)
		familyIDs := helpers.FamilyIDsInOrder(items)

		total := decimal.Zero
		totalProducts := 0
		familyOrderIDs := make([]uuid.UUID, 0, len(familyIDs))

		usersTx := s.users.WithTx(tx)
		productsTx := s.products.WithTx(tx)

		for _, familyID := range familyIDs {
			family, err := usersTx.FindFamilyByID(ctx, familyID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "seller family not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load family")
			}
			if !family.IsActive {
				return pkgerrors.New(pkgerrors.CodeUnavailable, fmt.Sprintf("family %q is no longer accepting orders", family.UserName))
			}

			familyOrder := &models.FamilyOrder{
				ID:         uuid.New(),
				UserID:     userID,
				FamilyID:   familyID,
				Status:     enums.OrderStatusPending,
				Phone:      input.Phone,
				Address:    input.Address,
				Location:   input.Location,
				OrderNotes: input.Notes,
			}

			subtotal := decimal.Zero
			lines := make([]models.OrderLine, 0, len(grouped[familyID]))
			for _, item := range grouped[familyID] {
				if item.Quantity < 1 {
					return pkgerrors.New(pkgerrors.CodeValidation, "cart line quantity must be at least 1")
				}

				// Re-read inside the transaction so pricing and stock
				// decisions use current values, not a stale cart preload.
				product, err := productsTx.FindByID(ctx, item.ProductID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return pkgerrors.New(pkgerrors.CodeNotFound, "a product in the cart no longer exists")
					}
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
				}
				if !product.IsActive {
					return pkgerrors.New(pkgerrors.CodeUnavailable, fmt.Sprintf("product %q is no longer available", product.Name))
				}

				if product.StockLimited {
					if err := s.stock.Reserve(ctx, tx, product.ID, item.Quantity); err != nil {
						if errors.Is(err, inventory.ErrInsufficient) {
							return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("not enough stock for %q", product.Name)).
								WithDetails(map[string]any{
									"product_id":   product.ID,
									"product_name": product.Name,
									"available":    product.CountInStock,
									"requested":    item.Quantity,
								})
						}
						return err
					}
				}

				quote := pricing.QuoteLine(product.Price, product.Discount, item.Quantity)
				lines = append(lines, models.OrderLine{
					ID:                 uuid.New(),
					FamilyOrderID:      familyOrder.ID,
					ProductID:          product.ID,
					ProductName:        product.Name,
					Quantity:           item.Quantity,
					Price:              quote.Price,
					Discount:           quote.Discount,
					PriceAfterDiscount: quote.PriceAfterDiscount,
					LineTotal:          quote.LineTotal,
				})
				subtotal = subtotal.Add(quote.LineTotal)
				totalProducts += item.Quantity
			}

			familyOrder.Subtotal = subtotal

			repoTx := s.repo.WithTx(tx)
			if _, err := repoTx.CreateFamilyOrder(ctx, familyOrder); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create family order")
			}
			if err := repoTx.CreateOrderLines(ctx, lines); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order lines")
			}

			familyOrderIDs = append(familyOrderIDs, familyOrder.ID)
			total = total.Add(subtotal)
		}

		repoTx := s.repo.WithTx(tx)

		orderNumber, err := s.uniqueOrderNumber(ctx, repoTx)
		if err != nil {
			return err
		}

		userOrder := &models.UserOrder{
			ID:          uuid.New(),
			UserID:      userID,
			OrderNumber: orderNumber,
			TotalAmount: total,
			Status:      enums.OrderStatusPending,
			Phone:       input.Phone,
			Address:     input.Address,
			Location:    input.Location,
			OrderNotes:  input.Notes,
		}
		if _, err := repoTx.CreateUserOrder(ctx, userOrder); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user order")
		}
		if err := repoTx.AttachFamilyOrders(ctx, familyOrderIDs, userOrder.ID, orderNumber); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach family orders")
		}

		cleared, err := s.cartRepo.WithTx(tx).DeleteByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		loaded, err := repoTx.FindUserOrderByID(ctx, userOrder.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}

		created = loaded
		summary = Summary{
			TotalFamilies:    len(familyOrderIDs),
			TotalProducts:    totalProducts,
			TotalAmount:      total,
			CartItemsCleared: cleared,
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return created, &summary, nil
}

// uniqueOrderNumber generates until the candidate is unused. The existence
// check runs before the insert so a collision never aborts the surrounding
// transaction; the unique index backstops true races.
func (s *service) uniqueOrderNumber(ctx context.Context, repo *Repository) (string, error) {
	for attempt := 0; attempt < s.cfg.OrderNumberMaxAttempts; attempt++ {
		candidate, err := s.gen(s.now())
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		exists, err := repo.OrderNumberExists(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order number")
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique order number")
}

func outcomeLabel(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "error"
	}
	switch typed.Code() {
	case pkgerrors.CodeEmptyCart:
		return "empty_cart"
	case pkgerrors.CodeInsufficientStock:
		return "insufficient_stock"
	case pkgerrors.CodeNotFound, pkgerrors.CodeUnavailable:
		return "unavailable"
	case pkgerrors.CodeValidation, pkgerrors.CodeForbidden:
		return "rejected"
	default:
		return "error"
	}
}
