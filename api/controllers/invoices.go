package controllers

import (
	"net/http"
	"strings"

	"github.com/matthieuvidal/fermelink-backend/api/responses"
	"github.com/matthieuvidal/fermelink-backend/api/validators"
	"github.com/matthieuvidal/fermelink-backend/internal/invoices"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	pkgerrors "github.com/matthieuvidal/fermelink-backend/pkg/errors"
	"github.com/matthieuvidal/fermelink-backend/pkg/logger"
)

// ListMyInvoices returns the caller's invoices, newest first.
func ListMyInvoices(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMine(r.Context(), act.UserID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// InvoiceDetail returns one invoice if the caller is allowed to see it.
func InvoiceDetail(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := parseUUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Get(r.Context(), act.UserID, act.Role, invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

type markInvoicePaidRequest struct {
	PaymentMethod string `json:"payment_method,omitempty"`
}

// MarkInvoicePaid settles a deferred-payment invoice. Only producers with a
// product in the order, or admins, may call it; the service enforces both.
func MarkInvoicePaid(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := parseUUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Body is optional; the service defaults the settlement method.
		var payload markInvoicePaidRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		var method enums.PaymentMethod
		if raw := strings.ToLower(strings.TrimSpace(payload.PaymentMethod)); raw != "" {
			method, err = enums.ParsePaymentMethod(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
				return
			}
		}

		invoice, err := svc.MarkPaid(r.Context(), invoices.MarkPaidInput{
			InvoiceID:     invoiceID,
			ActorUserID:   act.UserID,
			ActorRole:     act.Role,
			PaymentMethod: method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}
