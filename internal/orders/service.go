package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarbakri/familysouq-backend/internal/inventory"
	"github.com/omarbakri/familysouq-backend/pkg/db/models"
	"github.com/omarbakri/familysouq-backend/pkg/enums"
	pkgerrors "github.com/omarbakri/familysouq-backend/pkg/errors"
	"github.com/omarbakri/familysouq-backend/pkg/logger"
)

// deliveredListCap bounds how many delivered orders a client listing returns.
const deliveredListCap = 5

// Actor identifies who is performing an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// SetStatusInput carries a sub-order status change.
type SetStatusInput struct {
	Status      enums.OrderStatus `json:"status" validate:"required"`
	FamilyNotes string            `json:"family_notes"`
}

// CountScope selects which side of the marketplace a count covers.
type CountScope string

const (
	CountScopeUser   CountScope = "user"
	CountScopeFamily CountScope = "family"
)

// CountQuery parameterizes CountOrders.
type CountQuery struct {
	Scope  CountScope
	UserID uuid.UUID
	Status *enums.OrderStatus
}

// Service exposes order listing and status propagation.
type Service interface {
	SetFamilyOrderStatus(ctx context.Context, actor Actor, familyOrderID uuid.UUID, input SetStatusInput) (*models.FamilyOrder, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, status *enums.OrderStatus) ([]models.UserOrder, error)
	ListFamilyOrders(ctx context.Context, actor Actor, familyID uuid.UUID, status *enums.OrderStatus) ([]models.FamilyOrder, error)
	CountOrders(ctx context.Context, query CountQuery) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx    txRunner
	repo  *Repository
	stock inventory.Manager
	logg  *logger.Logger
}

// NewService wires the orders service.
func NewService(tx txRunner, repo *Repository, stock inventory.Manager, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("orders service requires a transaction runner")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders service requires a repository")
	}
	if stock == nil {
		return nil, fmt.Errorf("orders service requires a stock manager")
	}
	if logg == nil {
		return nil, fmt.Errorf("orders service requires a logger")
	}
	return &service{tx: tx, repo: repo, stock: stock, logg: logg}, nil
}

// SetFamilyOrderStatus moves one sub-order through the pending →
// {delivered, cancelled} machine. Cancellations restore reserved stock and
// the parent order's status is recomputed in the same transaction.
func (s *service) SetFamilyOrderStatus(ctx context.Context, actor Actor, familyOrderID uuid.UUID, input SetStatusInput) (*models.FamilyOrder, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	var updated *models.FamilyOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindFamilyOrderByID(ctx, familyOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load family order")
		}

		switch actor.Role {
		case enums.UserRoleAdmin:
		case enums.UserRoleFamily:
			if order.FamilyID != actor.UserID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another family")
			}
		default:
			return pkgerrors.New(pkgerrors.CodeForbidden, "only families can update order status")
		}

		if order.Status == input.Status {
			updated = order
			return nil
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order is already %s", order.Status)).
				WithDetails(map[string]any{
					"current_status":   order.Status,
					"requested_status": input.Status,
				})
		}
		if input.Status == enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "orders cannot return to pending")
		}

		if input.Status == enums.OrderStatusCancelled {
			for _, line := range order.Lines {
				if err := s.stock.Release(ctx, tx, line.ProductID, line.Quantity); err != nil {
					return err
				}
			}
		}

		if err := repo.UpdateFamilyOrderStatus(ctx, order.ID, input.Status, input.FamilyNotes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update family order status")
		}

		if order.UserOrderID != nil {
			if err := s.recomputeParentStatus(ctx, repo, *order.UserOrderID); err != nil {
				return err
			}
		}

		reloaded, err := repo.FindFamilyOrderByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload family order")
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"family_order_id": familyOrderID.String(),
		"status":          updated.Status.String(),
	}), "family order status updated")
	return updated, nil
}

// recomputeParentStatus projects the sibling statuses onto the parent order.
// A delivered parent never reverts.
func (s *service) recomputeParentStatus(ctx context.Context, repo *Repository, userOrderID uuid.UUID) error {
	parent, err := repo.FindUserOrderByID(ctx, userOrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent order")
	}
	siblings, err := repo.FindFamilyOrdersByParent(ctx, userOrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sibling orders")
	}

	next := deriveParentStatus(siblings, parent.Status)
	if next == parent.Status {
		return nil
	}
	if err := repo.UpdateUserOrderStatus(ctx, parent.ID, next); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update parent order status")
	}
	return nil
}

func deriveParentStatus(siblings []models.FamilyOrder, current enums.OrderStatus) enums.OrderStatus {
	if len(siblings) == 0 || current == enums.OrderStatusDelivered {
		return current
	}

	allDelivered := true
	allCancelled := true
	for _, sibling := range siblings {
		if sibling.Status != enums.OrderStatusDelivered {
			allDelivered = false
		}
		if sibling.Status != enums.OrderStatusCancelled {
			allCancelled = false
		}
	}
	switch {
	case allDelivered:
		return enums.OrderStatusDelivered
	case allCancelled:
		return enums.OrderStatusCancelled
	default:
		return enums.OrderStatusPending
	}
}

// ListUserOrders returns a client's orders newest first. Cached parent
// statuses are refreshed from the sub-orders on read, which heals rows
// written before synchronous recomputation existed. Delivered orders are
// capped to the most recent few; everything else is always included.
func (s *service) ListUserOrders(ctx context.Context, userID uuid.UUID, status *enums.OrderStatus) ([]models.UserOrder, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	userOrders, err := s.repo.ListUserOrders(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	for i := range userOrders {
		order := &userOrders[i]
		next := deriveParentStatus(order.FamilyOrders, order.Status)
		if next == order.Status {
			continue
		}
		if err := s.repo.UpdateUserOrderStatus(ctx, order.ID, next); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"order_id": order.ID.String(),
				"error":    err.Error(),
			}), "could not refresh cached order status")
			continue
		}
		order.Status = next
	}

	filtered := make([]models.UserOrder, 0, len(userOrders))
	delivered := 0
	for _, order := range userOrders {
		if status != nil && order.Status != *status {
			continue
		}
		if order.Status == enums.OrderStatusDelivered {
			if delivered >= deliveredListCap {
				continue
			}
			delivered++
		}
		filtered = append(filtered, order)
	}
	return filtered, nil
}

// ListFamilyOrders returns a family's sub-orders newest first. Families see
// only their own; admins may inspect any family.
func (s *service) ListFamilyOrders(ctx context.Context, actor Actor, familyID uuid.UUID, status *enums.OrderStatus) ([]models.FamilyOrder, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	switch actor.Role {
	case enums.UserRoleAdmin:
	case enums.UserRoleFamily:
		if familyID != actor.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "orders belong to another family")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only families can list their orders")
	}

	familyOrders, err := s.repo.ListFamilyOrders(ctx, familyID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list family orders")
	}
	return familyOrders, nil
}

// CountOrders reports how many orders a user has placed or a family has
// received, optionally narrowed by status.
func (s *service) CountOrders(ctx context.Context, query CountQuery) (int64, error) {
	if query.Status != nil && !query.Status.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	var (
		count int64
		err   error
	)
	switch query.Scope {
	case CountScopeUser:
		count, err = s.repo.CountUserOrders(ctx, query.UserID, query.Status)
	case CountScopeFamily:
		count, err = s.repo.CountFamilyOrders(ctx, query.UserID, query.Status)
	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "count scope must be user or family")
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	return count, nil
}
