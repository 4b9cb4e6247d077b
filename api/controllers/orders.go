package controllers

import (
	"net/http"

	"github.com/angelmondragon/photocard-store/api/middleware"
	"github.com/angelmondragon/photocard-store/api/responses"
	"github.com/angelmondragon/photocard-store/api/validators"
	"github.com/angelmondragon/photocard-store/internal/orders"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/logger"
	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	Items []orders.LineInput `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type orderResponse struct {
	Message string       `json:"message"`
	Order   orders.Order `json:"order"`
}

type ordersResponse struct {
	Orders []orders.Order `json:"orders"`
}

// OrderCreate places an order for the authenticated caller. Lines may carry
// extra catalog fields; only kind, id, name, price and quantity are read.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		id, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required"))
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBodyLenient(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), orders.CreateInput{
			UserID: id.ID,
			Items:  body.Items,
			Total:  body.Total,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusCreated, orderResponse{Message: "Order created successfully", Order: order})
	}
}

func OrderListMine(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required"))
			return
		}
		list, err := svc.ListForUser(r.Context(), id.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, ordersResponse{Orders: list})
	}
}

// OrderListAll is mounted behind RequireRole(admin).
func OrderListAll(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, ordersResponse{Orders: list})
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication required"))
			return
		}
		orderID, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID, orders.Actor{UserID: id.ID, Admin: id.IsAdmin()})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]orders.Order{"order": order})
	}
}
