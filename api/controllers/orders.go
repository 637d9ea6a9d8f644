package controllers

import (
	"net/http"
	"strings"

	"github.com/omarbakri/familysouq-backend/api/responses"
	"github.com/omarbakri/familysouq-backend/api/validators"
	"github.com/omarbakri/familysouq-backend/internal/checkout"
	"github.com/omarbakri/familysouq-backend/internal/orders"
	"github.com/omarbakri/familysouq-backend/pkg/enums"
	pkgerrors "github.com/omarbakri/familysouq-backend/pkg/errors"
	"github.com/omarbakri/familysouq-backend/pkg/logger"
)

type checkoutRequest struct {
	Phone    string `json:"phone" validate:"required,max=32"`
	Address  string `json:"address" validate:"required,max=500"`
	Location string `json:"location" validate:"max=500"`
	Notes    string `json:"notes" validate:"max=2000"`
}

type setOrderStatusRequest struct {
	Status      string `json:"status" validate:"required"`
	FamilyNotes string `json:"family_notes" validate:"max=2000"`
}

// Checkout converts the caller's cart into orders.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, summary, err := svc.Execute(r.Context(), userID, checkout.Input{
			Phone:    validators.SanitizeString(req.Phone, 32),
			Address:  validators.SanitizeString(req.Address, 500),
			Location: validators.SanitizeString(req.Location, 500),
			Notes:    validators.SanitizeString(req.Notes, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"order":   order,
			"summary": summary,
		})
	}
}

// OrderList returns the caller's orders. Admins may inspect another user via
// the user_id query parameter.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryStatus(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target := userID
		if override, parseErr := validators.ParseQueryUUID(r, "user_id"); parseErr != nil {
			responses.WriteError(r.Context(), logg, w, parseErr)
			return
		} else if override != nil {
			if role != enums.UserRoleAdmin {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cannot list another user's orders"))
				return
			}
			target = *override
		}

		listed, err := svc.ListUserOrders(r.Context(), target, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": listed})
	}
}

// OrderCount reports order totals for the caller's side of the marketplace.
func OrderCount(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryStatus(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scope := orders.CountScope(strings.TrimSpace(r.URL.Query().Get("scope")))
		if scope == "" {
			if role == enums.UserRoleFamily {
				scope = orders.CountScopeFamily
			} else {
				scope = orders.CountScopeUser
			}
		}

		count, err := svc.CountOrders(r.Context(), orders.CountQuery{
			Scope:  scope,
			UserID: userID,
			Status: status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"count": count})
	}
}

// FamilyOrderList returns the sub-orders addressed to one family.
func FamilyOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		familyID, err := pathUUID(r, "familyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryStatus(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithFamilyID(r.Context(), familyID.String())
		listed, err := svc.ListFamilyOrders(ctx, orders.Actor{UserID: userID, Role: role}, familyID, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": listed})
	}
}

// FamilyOrderSetStatus moves one sub-order through its lifecycle.
func FamilyOrderSetStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		subOrderID, err := pathUUID(r, "subOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
			return
		}

		updated, err := svc.SetFamilyOrderStatus(r.Context(), orders.Actor{UserID: userID, Role: role}, subOrderID, orders.SetStatusInput{
			Status:      status,
			FamilyNotes: validators.SanitizeString(req.FamilyNotes, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
