package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/omarbakri/familysouq-backend/api/responses"
	"github.com/omarbakri/familysouq-backend/api/validators"
	"github.com/omarbakri/familysouq-backend/internal/catalog"
	"github.com/omarbakri/familysouq-backend/pkg/logger"
)

type createProductRequest struct {
	FamilyID     *string         `json:"family_id"`
	Name         string          `json:"name" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=2000"`
	Image        *string         `json:"image"`
	Price        decimal.Decimal `json:"price" validate:"required"`
	Discount     int             `json:"discount" validate:"min=0,max=100"`
	StockLimited bool            `json:"stock_limited"`
	CountInStock int             `json:"count_in_stock" validate:"min=0"`
	IsActive     *bool           `json:"is_active"`
}

type updateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,max=200"`
	Description  *string          `json:"description" validate:"omitempty,max=2000"`
	Image        *string          `json:"image"`
	Price        *decimal.Decimal `json:"price"`
	Discount     *int             `json:"discount" validate:"omitempty,min=0,max=100"`
	StockLimited *bool            `json:"stock_limited"`
	CountInStock *int             `json:"count_in_stock" validate:"omitempty,min=0"`
	IsActive     *bool            `json:"is_active"`
}

// ProductList serves the public catalog with filtering and pagination.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		familyID, err := validators.ParseQueryUUID(r, "family_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), catalog.ListQuery{
			Pagination: params,
			Filters: catalog.ListFilters{
				FamilyID: familyID,
				Query:    validators.SanitizeString(r.URL.Query().Get("q"), 200),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ProductGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.CreateProductInput{
			Name:         validators.SanitizeString(req.Name, 200),
			Description:  validators.SanitizeString(req.Description, 2000),
			Image:        req.Image,
			Price:        req.Price,
			Discount:     req.Discount,
			StockLimited: req.StockLimited,
			CountInStock: req.CountInStock,
			IsActive:     req.IsActive,
		}
		if req.FamilyID != nil {
			familyID, parseErr := validators.ParseUUIDString(*req.FamilyID, "family_id")
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			input.FamilyID = &familyID
		}

		product, err := svc.Create(r.Context(), catalog.Actor{UserID: userID, Role: role}, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func ProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), catalog.Actor{UserID: userID, Role: role}, id, catalog.UpdateProductInput{
			Name:         req.Name,
			Description:  req.Description,
			Image:        req.Image,
			Price:        req.Price,
			Discount:     req.Discount,
			StockLimited: req.StockLimited,
			CountInStock: req.CountInStock,
			IsActive:     req.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), catalog.Actor{UserID: userID, Role: role}, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
