package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/omarbakri/familysouq-backend/internal/users"
	"github.com/omarbakri/familysouq-backend/pkg/db"
	"github.com/omarbakri/familysouq-backend/pkg/db/models"
	"github.com/omarbakri/familysouq-backend/pkg/enums"
	pkgerrors "github.com/omarbakri/familysouq-backend/pkg/errors"
)

// Actor identifies who is performing a catalog mutation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateProductInput carries the fields for a new listing. FamilyID is only
// honored for admins; family users always create under their own id.
type CreateProductInput struct {
	FamilyID     *uuid.UUID
	Name         string
	Description  string
	Image        *string
	Price        decimal.Decimal
	Discount     int
	StockLimited bool
	CountInStock int
	IsActive     *bool
}

// UpdateProductInput applies a partial edit; nil fields are left untouched.
type UpdateProductInput struct {
	Name         *string
	Description  *string
	Image        *string
	Price        *decimal.Decimal
	Discount     *int
	StockLimited *bool
	CountInStock *int
	IsActive     *bool
}

// Service exposes the catalog operations.
type Service interface {
	List(ctx context.Context, query ListQuery) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, actor Actor, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type service struct {
	repo  *Repository
	users *users.Repository
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo *Repository, usersRepo *users.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, users: usersRepo}, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	result, err := s.repo.ListProducts(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateProductInput) (*models.Product, error) {
	familyID, err := s.resolveFamilyID(ctx, actor, input.FamilyID)
	if err != nil {
		return nil, err
	}
	if err := validateProductFields(input.Name, input.Price, input.Discount, input.CountInStock); err != nil {
		return nil, err
	}

	product := &models.Product{
		FamilyID:     familyID,
		Name:         input.Name,
		Description:  input.Description,
		Image:        input.Image,
		Price:        input.Price,
		Discount:     input.Discount,
		StockLimited: input.StockLimited,
		CountInStock: input.CountInStock,
		IsActive:     true,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this name already exists for the family")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Image != nil {
		product.Image = input.Image
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Discount != nil {
		product.Discount = *input.Discount
	}
	if input.StockLimited != nil {
		product.StockLimited = *input.StockLimited
	}
	if input.CountInStock != nil {
		product.CountInStock = *input.CountInStock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := validateProductFields(product.Name, product.Price, product.Discount, product.CountInStock); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this name already exists for the family")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.loadOwned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, actor Actor, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if actor.Role != enums.UserRoleAdmin && product.FamilyID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to family")
	}
	return product, nil
}

func (s *service) resolveFamilyID(ctx context.Context, actor Actor, requested *uuid.UUID) (uuid.UUID, error) {
	switch actor.Role {
	case enums.UserRoleFamily:
		return actor.UserID, nil
	case enums.UserRoleAdmin:
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "family id required")
		}
		if _, err := s.users.FindFamilyByID(ctx, *requested); err != nil {
			if err == gorm.ErrRecordNotFound {
				return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "family not found")
			}
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load family")
		}
		return *requested, nil
	default:
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "only families can manage products")
	}
}

func validateProductFields(name string, price decimal.Decimal, discount, countInStock int) error {
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if discount < 0 || discount > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must be between 0 and 100")
	}
	if countInStock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock count must not be negative")
	}
	return nil
}
