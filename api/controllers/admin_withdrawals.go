package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/matthieuvidal/fermelink-backend/api/responses"
	"github.com/matthieuvidal/fermelink-backend/api/validators"
	"github.com/matthieuvidal/fermelink-backend/internal/wallets"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	pkgerrors "github.com/matthieuvidal/fermelink-backend/pkg/errors"
	"github.com/matthieuvidal/fermelink-backend/pkg/logger"
)

// AdminListWithdrawals returns the payout queue, optionally narrowed by
// status or producer.
func AdminListWithdrawals(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallets service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := wallets.WithdrawalFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseWithdrawalStatus(strings.ToLower(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("producer_id")); raw != "" {
			producerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid producer_id"))
				return
			}
			filters.ProducerID = &producerID
		}

		list, err := svc.ListWithdrawals(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type withdrawalDecisionRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=complete reject"`
	Reason   *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// AdminDecideWithdrawal completes or rejects a pending payout.
func AdminDecideWithdrawal(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallets service unavailable"))
			return
		}

		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		withdrawalID, err := parseUUIDParam(r, "withdrawalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload withdrawalDecisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		withdrawal, err := svc.Decide(r.Context(), wallets.DecisionInput{
			WithdrawalID: withdrawalID,
			Decision:     wallets.WithdrawalDecision(strings.ToLower(payload.Decision)),
			AdminID:      act.UserID,
			Reason:       payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, withdrawal)
	}
}
