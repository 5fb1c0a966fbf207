package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/matthieuvidal/fermelink-backend/internal/checkout"
	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
)

type testCheckoutService struct {
	prepareFn func(ctx context.Context, input checkout.PrepareInput) (*checkout.Result, error)
}

func (s *testCheckoutService) Prepare(ctx context.Context, input checkout.PrepareInput) (*checkout.Result, error) {
	if s.prepareFn != nil {
		return s.prepareFn(ctx, input)
	}
	return &checkout.Result{}, nil
}

func TestPrepareCheckoutSuccess(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	var gotInput checkout.PrepareInput
	svc := &testCheckoutService{
		prepareFn: func(ctx context.Context, input checkout.PrepareInput) (*checkout.Result, error) {
			gotInput = input
			return &checkout.Result{Order: &models.Order{ID: input.OrderID}}, nil
		},
	}

	body := strings.NewReader(`{"delivery_type":"delivery","delivery_info":{"contactName":"Jeanne","contactPhone":"0600000000"},"payment_method":"card","payment_token":"cnon:ok"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/prepare-checkout", body)
	req = withActor(req, userID, enums.UserRoleClient)
	req = addRouteParam(t, req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	PrepareCheckout(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotInput.OrderID != orderID || gotInput.ActorUserID != userID {
		t.Fatalf("unexpected input %+v", gotInput)
	}
	if gotInput.DeliveryType != enums.DeliveryTypeDelivery {
		t.Fatalf("unexpected delivery type %s", gotInput.DeliveryType)
	}
	if gotInput.PaymentMethod != enums.PaymentMethodCard {
		t.Fatalf("unexpected payment method %s", gotInput.PaymentMethod)
	}
	if gotInput.PaymentToken != "cnon:ok" {
		t.Fatalf("unexpected token %q", gotInput.PaymentToken)
	}
}

func TestPrepareCheckoutRejectsUnknownDeliveryType(t *testing.T) {
	orderID := uuid.New()
	body := strings.NewReader(`{"delivery_type":"drone","payment_method":"card"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/prepare-checkout", body)
	req = withActor(req, uuid.New(), enums.UserRoleClient)
	req = addRouteParam(t, req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	PrepareCheckout(&testCheckoutService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPrepareCheckoutRequiresPaymentMethod(t *testing.T) {
	orderID := uuid.New()
	body := strings.NewReader(`{"delivery_type":"pickup"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/prepare-checkout", body)
	req = withActor(req, uuid.New(), enums.UserRoleClient)
	req = addRouteParam(t, req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	PrepareCheckout(&testCheckoutService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
