package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/omarbakri/familysouq-backend/pkg/db/models"
	"github.com/omarbakri/familysouq-backend/pkg/pagination"
)

// ListFilters narrows the public product listing.
type ListFilters struct {
	FamilyID *uuid.UUID
	Query    string
}

// ListQuery bundles the inputs for one listing call.
type ListQuery struct {
	Pagination pagination.Params
	Filters    ListFilters
	// IncludeInactive lifts the is_active filters for owner/admin views.
	IncludeInactive bool
}

// ProductSummary is the listing row shape, product plus its family's name.
type ProductSummary struct {
	ID           uuid.UUID       `json:"id"`
	FamilyID     uuid.UUID       `json:"family_id"`
	FamilyName   string          `json:"family_name"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Image        *string         `json:"image,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Discount     int             `json:"discount"`
	StockLimited bool            `json:"stock_limited"`
	CountInStock int             `json:"count_in_stock"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ListResult pairs one page of products with its pagination metadata.
type ListResult struct {
	Products []ProductSummary `json:"products"`
	Meta     pagination.Meta  `json:"meta"`
}

// Repository wires together product persistence for the catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct updates an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product by ID.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// ListProducts returns one page of products matching the query along with the
// total row count for the same filters.
func (r *Repository) ListProducts(ctx context.Context, query ListQuery) (*ListResult, error) {
	params := query.Pagination.Normalize()

	var total int64
	if err := r.buildListQuery(ctx, query).Count(&total).Error; err != nil {
		return nil, err
	}

	var records []productRecord
	err := r.buildListQuery(ctx, query).
		Select(strings.Join([]string{
			"p.id",
			"p.family_id",
			"f.user_name AS family_name",
			"p.name",
			"p.description",
			"p.image",
			"p.price",
			"p.discount",
			"p.stock_limited",
			"p.count_in_stock",
			"p.is_active",
			"p.created_at",
		}, ", ")).
		Order("p.created_at DESC").Order("p.id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]ProductSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, record.toSummary())
	}

	return &ListResult{
		Products: summaries,
		Meta:     pagination.NewMeta(params, total),
	}, nil
}

func (r *Repository) buildListQuery(ctx context.Context, query ListQuery) *gorm.DB {
	qb := r.db.WithContext(ctx).
		Table("products p").
		Joins("JOIN users f ON f.id = p.family_id")

	if !query.IncludeInactive {
		qb = qb.Where("p.is_active = ?", true)
		qb = qb.Where("f.is_active = ?", true)
	}
	if query.Filters.FamilyID != nil {
		qb = qb.Where("p.family_id = ?", *query.Filters.FamilyID)
	}
	if search := strings.TrimSpace(query.Filters.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("LOWER(p.name) LIKE ?", pattern)
	}
	return qb
}

type productRecord struct {
	ID           uuid.UUID
	FamilyID     uuid.UUID
	FamilyName   string
	Name         string
	Description  string
	Image        *string
	Price        decimal.Decimal
	Discount     int
	StockLimited bool
	CountInStock int
	IsActive     bool
	CreatedAt    time.Time
}

func (r productRecord) toSummary() ProductSummary {
	return ProductSummary{
		ID:           r.ID,
		FamilyID:     r.FamilyID,
		FamilyName:   r.FamilyName,
		Name:         r.Name,
		Description:  r.Description,
		Image:        r.Image,
		Price:        r.Price,
		Discount:     r.Discount,
		StockLimited: r.StockLimited,
		CountInStock: r.CountInStock,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
	}
}
