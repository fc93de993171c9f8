package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
	"github.com/Cheertaboi/delivery-order-service/internal/service"
)

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) Submit(ctx context.Context, req *models.SubmitOrderRequest) (*service.SubmitResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*service.SubmitResult)
	return res, args.Error(1)
}

func (m *mockOrderService) Quote(ctx context.Context, slug, address string) (*service.DeliveryQuote, error) {
	args := m.Called(ctx, slug, address)
	q, _ := args.Get(0).(*service.DeliveryQuote)
	return q, args.Error(1)
}

func (m *mockOrderService) PreviewCoupon(ctx context.Context, slug, whatsapp, code string, subtotal float64) (models.ValidationResponse, error) {
	args := m.Called(ctx, slug, whatsapp, code, subtotal)
	return args.Get(0).(models.ValidationResponse), args.Error(1)
}

func (m *mockOrderService) ApplicableCoupons(ctx context.Context, slug, whatsapp string, subtotal float64) ([]string, error) {
	args := m.Called(ctx, slug, whatsapp, subtotal)
	codes, _ := args.Get(0).([]string)
	return codes, args.Error(1)
}

func (m *mockOrderService) AddCoupon(ctx context.Context, slug string, c models.Coupon) (*models.Coupon, error) {
	args := m.Called(ctx, slug, c)
	created, _ := args.Get(0).(*models.Coupon)
	return created, args.Error(1)
}

func TestSubmitOrder_InternalErrorIsHidden(t *testing.T) {
	svc := &mockOrderService{}
	svc.On("Submit", mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection refused"))

	core, logs := observer.New(zapcore.ErrorLevel)
	h := NewOrderHandler(svc, zap.New(core))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"restaurantSlug":"x"}`))
	h.SubmitOrder(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"internal error","code":"internal_error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "pq:")
	assert.Equal(t, 1, logs.Len())
	svc.AssertExpectations(t)
}

func TestWriteError_OrderError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{err: &service.OrderError{Kind: service.KindOutOfRadius, Message: "too far"}, status: http.StatusConflict, code: "out_of_radius"},
		{err: &service.OrderError{Kind: service.KindCouponRejected, Reason: models.CouponUsageLimitReached, Message: "limit"}, status: http.StatusBadRequest, code: "usage_limit_reached"},
		{err: &service.OrderError{Kind: service.KindConflict, Message: "retry"}, status: http.StatusConflict, code: "conflict"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, httptest.NewRequest(http.MethodPost, "/orders", nil), zap.NewNop(), tt.err)
		assert.Equal(t, tt.status, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"`+tt.code+`"`)
	}
}

func TestDecodeBody_RejectsTrailingData(t *testing.T) {
	svc := &mockOrderService{}
	h := NewOrderHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/delivery/quote", strings.NewReader(`{"restaurantSlug":"a"}{"restaurantSlug":"b"}`))
	h.QuoteDelivery(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything, mock.Anything)
}
