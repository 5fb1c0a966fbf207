package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/api/responses"
	"github.com/matthieuvidal/fermelink-backend/api/validators"
	"github.com/matthieuvidal/fermelink-backend/internal/products"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	pkgerrors "github.com/matthieuvidal/fermelink-backend/pkg/errors"
	"github.com/matthieuvidal/fermelink-backend/pkg/logger"
)

// ListProducts is the catalog browse endpoint.
func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseProductFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ProductDetail returns one product with its computed stock-alert flag.
func ProductDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type createProductRequest struct {
	Name              string  `json:"name" validate:"required,min=1,max=200"`
	Description       *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Unit              string  `json:"unit" validate:"required"`
	Price             string  `json:"price" validate:"required"`
	Stock             int     `json:"stock" validate:"gte=0"`
	Available         bool    `json:"available"`
	AcceptDeferred    bool    `json:"accept_deferred"`
	MinOrderQty       int     `json:"min_order_qty" validate:"gte=0"`
	AlertThreshold    *int    `json:"alert_threshold,omitempty" validate:"omitempty,gte=0"`
	AlertThresholdPct *int    `json:"alert_threshold_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
	MaxStockQty       *int    `json:"max_stock_qty,omitempty" validate:"omitempty,gte=0"`
}

// CreateProduct publishes a new listing for the authenticated producer.
func CreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unit, err := enums.ParseProductUnit(strings.ToLower(strings.TrimSpace(payload.Unit)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
			return
		}
		price, err := decimal.NewFromString(strings.TrimSpace(payload.Price))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
			return
		}

		view, err := svc.Create(r.Context(), products.CreateInput{
			ProducerID:        act.UserID,
			Name:              strings.TrimSpace(payload.Name),
			Description:       payload.Description,
			Unit:              unit,
			Price:             price,
			Stock:             payload.Stock,
			Available:         payload.Available,
			AcceptDeferred:    payload.AcceptDeferred,
			MinOrderQty:       payload.MinOrderQty,
			AlertThreshold:    payload.AlertThreshold,
			AlertThresholdPct: payload.AlertThresholdPct,
			MaxStockQty:       payload.MaxStockQty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

type updateProductRequest struct {
	Name              *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description       *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Unit              *string `json:"unit,omitempty"`
	Price             *string `json:"price,omitempty"`
	Available         *bool   `json:"available,omitempty"`
	AcceptDeferred    *bool   `json:"accept_deferred,omitempty"`
	MinOrderQty       *int    `json:"min_order_qty,omitempty" validate:"omitempty,gte=0"`
	AlertThreshold    *int    `json:"alert_threshold,omitempty" validate:"omitempty,gte=0"`
	AlertThresholdPct *int    `json:"alert_threshold_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
	MaxStockQty       *int    `json:"max_stock_qty,omitempty" validate:"omitempty,gte=0"`
}

// UpdateProduct patches a listing. Only its producer or an admin may.
func UpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.UpdateInput{
			Name:              payload.Name,
			Description:       payload.Description,
			Available:         payload.Available,
			AcceptDeferred:    payload.AcceptDeferred,
			MinOrderQty:       payload.MinOrderQty,
			AlertThreshold:    payload.AlertThreshold,
			AlertThresholdPct: payload.AlertThresholdPct,
			MaxStockQty:       payload.MaxStockQty,
		}
		if payload.Unit != nil {
			unit, err := enums.ParseProductUnit(strings.ToLower(strings.TrimSpace(*payload.Unit)))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
				return
			}
			input.Unit = &unit
		}
		if payload.Price != nil {
			price, err := decimal.NewFromString(strings.TrimSpace(*payload.Price))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
				return
			}
			input.Price = &price
		}

		view, err := svc.Update(r.Context(), act.UserID, act.Role, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// DeleteProduct removes a listing.
func DeleteProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), act.UserID, act.Role, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

type stockUpdateRequest struct {
	Stock int `json:"stock" validate:"gte=0"`
}

// UpdateProductStock is the only write path for stock quantities.
func UpdateProductStock(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload stockUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateStock(r.Context(), products.StockUpdateInput{
			ProductID:   productID,
			ActorUserID: act.UserID,
			ActorRole:   act.Role,
			Stock:       payload.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type scheduleAppendRequest struct {
	Entries []products.ScheduleEntryInput `json:"entries" validate:"required,min=1,dive"`
}

// AppendProductionSchedule adds planned production lines to a product.
func AppendProductionSchedule(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload scheduleAppendRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.AppendSchedule(r.Context(), act.UserID, act.Role, productID, payload.Entries)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entries)
	}
}

// GetProductionSchedule returns planned production. Producers see all of
// their own entries, everyone else only future public ones.
func GetProductionSchedule(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.GetSchedule(r.Context(), act.UserID, act.Role, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

type slotCreateRequest struct {
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	StartsAt  time.Time  `json:"starts_at" validate:"required"`
	EndsAt    time.Time  `json:"ends_at" validate:"required"`
	Capacity  int        `json:"capacity" validate:"required,gt=0"`
	Price     *string    `json:"price,omitempty"`
	Location  *string    `json:"location,omitempty" validate:"omitempty,max=500"`
}

// CreateSlot publishes a bookable pickup or delivery window.
func CreateSlot(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload slotCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.SlotCreateInput{
			ProducerID: act.UserID,
			ProductID:  payload.ProductID,
			StartsAt:   payload.StartsAt,
			EndsAt:     payload.EndsAt,
			Capacity:   payload.Capacity,
			Location:   payload.Location,
		}
		if payload.Price != nil {
			price, err := decimal.NewFromString(strings.TrimSpace(*payload.Price))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
				return
			}
			input.Price = &price
		}

		slot, err := svc.CreateSlot(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, slot)
	}
}

// ListSlots returns the caller's published delivery slots.
func ListSlots(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slots, err := svc.ListSlots(r.Context(), act.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, slots)
	}
}

func parseProductFilters(r *http.Request) (products.Filters, error) {
	filters := products.Filters{
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("producer_id")); raw != "" {
		producerID, err := uuid.Parse(raw)
		if err != nil {
			return products.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid producer_id")
		}
		filters.ProducerID = &producerID
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("unit")); raw != "" {
		unit, err := enums.ParseProductUnit(strings.ToLower(raw))
		if err != nil {
			return products.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit filter")
		}
		filters.Unit = &unit
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("available")); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return products.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid available filter")
		}
		filters.Available = &available
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("accept_deferred")); raw != "" {
		deferred, err := strconv.ParseBool(raw)
		if err != nil {
			return products.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid accept_deferred filter")
		}
		filters.Deferred = &deferred
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("price_min")); raw != "" {
		priceMin, err := decimal.NewFromString(raw)
		if err != nil {
			return products.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price_min")
		}
		filters.PriceMin = &priceMin
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("price_max")); raw != "" {
		priceMax, err := decimal.NewFromString(raw)
		if err != nil {
			return products.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price_max")
		}
		filters.PriceMax = &priceMax
	}
	return filters, nil
}
