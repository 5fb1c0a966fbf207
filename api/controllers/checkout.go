package controllers

import (
	"net/http"
	"strings"

	"github.com/matthieuvidal/fermelink-backend/api/responses"
	"github.com/matthieuvidal/fermelink-backend/api/validators"
	"github.com/matthieuvidal/fermelink-backend/internal/checkout"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	pkgerrors "github.com/matthieuvidal/fermelink-backend/pkg/errors"
	"github.com/matthieuvidal/fermelink-backend/pkg/logger"
	"github.com/matthieuvidal/fermelink-backend/pkg/types"
)

type prepareCheckoutRequest struct {
	DeliveryType  string              `json:"delivery_type" validate:"required"`
	DeliveryInfo  *types.DeliveryInfo `json:"delivery_info,omitempty"`
	PaymentMethod string              `json:"payment_method" validate:"required"`
	PaymentToken  string              `json:"payment_token,omitempty"`
}

// PrepareCheckout finalizes delivery and payment choices for a draft or
// pending order and persists the recomputed totals.
func PrepareCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload prepareCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deliveryType, err := enums.ParseDeliveryType(strings.ToLower(strings.TrimSpace(payload.DeliveryType)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery type"))
			return
		}
		paymentMethod, err := enums.ParsePaymentMethod(strings.ToLower(strings.TrimSpace(payload.PaymentMethod)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.Prepare(r.Context(), checkout.PrepareInput{
			OrderID:       orderID,
			ActorUserID:   act.UserID,
			DeliveryType:  deliveryType,
			DeliveryInfo:  payload.DeliveryInfo,
			PaymentMethod: paymentMethod,
			PaymentToken:  strings.TrimSpace(payload.PaymentToken),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
