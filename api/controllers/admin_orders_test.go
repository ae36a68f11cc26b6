package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalorders "github.com/angelmondragon/souq-backend/internal/orders"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
)

type stubAdminOrders struct {
	statusFn  func(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error)
	paymentFn func(ctx context.Context, input internalorders.PaymentUpdateInput) (*models.Order, error)
	purged    []uuid.UUID
}

func (s *stubAdminOrders) UpdateStatus(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error) {
	return s.statusFn(ctx, input)
}

func (s *stubAdminOrders) UpdatePaymentWithHistory(ctx context.Context, input internalorders.PaymentUpdateInput) (*models.Order, error) {
	return s.paymentFn(ctx, input)
}

func (s *stubAdminOrders) Purge(ctx context.Context, id uuid.UUID) error {
	s.purged = append(s.purged, id)
	return nil
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	adminID := uuid.New()
	order := fakeOrder(uuid.New(), uuid.New())
	svc := &stubAdminOrders{statusFn: func(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error) {
		assert.Equal(t, order.ID, input.OrderID)
		assert.Equal(t, enums.OrderStatusOutForDelivery, input.Status)
		require.NotNil(t, input.TrackingNumber)
		require.NotNil(t, input.ChangedBy)
		assert.Equal(t, adminID, *input.ChangedBy)
		order.Status = input.Status
		order.TrackingNumber = input.TrackingNumber
		return order, nil
	}}
	body := map[string]any{"status": "OUT_FOR_DELIVERY", "note": "handed to courier", "tracking_number": "ARX-1001"}

	rec := serve(t, http.MethodPost, "/admin/orders/{orderId}/status", "/admin/orders/"+order.ID.String()+"/status", body, adminID, enums.MemberRoleAdmin, AdminUpdateOrderStatus(svc, testLogger()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view orderView
	decodeData(t, rec, &view)
	assert.Equal(t, enums.OrderStatusOutForDelivery, view.Status)
	require.NotNil(t, view.TrackingNumber)
	assert.Equal(t, "ARX-1001", *view.TrackingNumber)
}

func TestAdminUpdateOrderStatusIllegalTransition(t *testing.T) {
	svc := &stubAdminOrders{statusFn: func(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot move from DELIVERED to PENDING")
	}}

	rec := serve(t, http.MethodPost, "/admin/orders/{orderId}/status", "/admin/orders/"+uuid.NewString()+"/status", map[string]any{"status": "PENDING"}, uuid.New(), enums.MemberRoleAdmin, AdminUpdateOrderStatus(svc, testLogger()))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAdminUpdateOrderStatusUnknownStatus(t *testing.T) {
	rec := serve(t, http.MethodPost, "/admin/orders/{orderId}/status", "/admin/orders/"+uuid.NewString()+"/status", map[string]any{"status": "LOST"}, uuid.New(), enums.MemberRoleAdmin, AdminUpdateOrderStatus(&stubAdminOrders{}, testLogger()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRecordPayment(t *testing.T) {
	order := fakeOrder(uuid.New(), uuid.New())
	svc := &stubAdminOrders{paymentFn: func(ctx context.Context, input internalorders.PaymentUpdateInput) (*models.Order, error) {
		assert.Equal(t, enums.PaymentStatusCompleted, input.Status)
		assert.Equal(t, enums.PaymentGatewayBenefitPay, input.Entry.Gateway)
		assert.True(t, input.Entry.Amount.Equal(decimal.RequireFromString("26.5")))
		order.PaymentStatus = enums.PaymentStatusCompleted
		order.Status = enums.OrderStatusConfirmed
		return order, nil
	}}
	body := map[string]any{"status": "COMPLETED", "gateway": "BENEFIT_PAY", "amount": "26.500", "transaction_ref": "bp_1"}

	rec := serve(t, http.MethodPost, "/admin/orders/{orderId}/payments", "/admin/orders/"+order.ID.String()+"/payments", body, uuid.New(), enums.MemberRoleAdmin, AdminRecordPayment(svc, testLogger()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view orderView
	decodeData(t, rec, &view)
	assert.Equal(t, enums.OrderStatusConfirmed, view.Status)
}

func TestAdminDeleteOrder(t *testing.T) {
	svc := &stubAdminOrders{}
	orderID := uuid.New()

	rec := serve(t, http.MethodDelete, "/admin/orders/{orderId}", "/admin/orders/"+orderID.String(), nil, uuid.New(), enums.MemberRoleAdmin, AdminDeleteOrder(svc, testLogger()))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []uuid.UUID{orderID}, svc.purged)
}
