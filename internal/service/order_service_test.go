package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
	"github.com/Cheertaboi/delivery-order-service/internal/repository"
)

const testSlug = "pizzaria-bella"

var (
	// 12:00 in São Paulo.
	testNow   = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	originLat = -23.5505
	originLng = -46.6333
)

// kmNorth returns a point due north of the restaurant. Along a meridian the
// haversine distance is R·Δφ, so the offset is exact.
func kmNorth(km float64) models.Coordinates {
	return models.Coordinates{Lat: originLat + km/111.19492664455873, Lng: originLng}
}

type geocoderFunc func(ctx context.Context, address string) (models.Coordinates, bool)

func (f geocoderFunc) Geocode(ctx context.Context, address string) (models.Coordinates, bool) {
	return f(ctx, address)
}

func fixedGeocoder(c models.Coordinates) geocoderFunc {
	return func(context.Context, string) (models.Coordinates, bool) { return c, true }
}

var failingGeocoder = geocoderFunc(func(context.Context, string) (models.Coordinates, bool) {
	return models.Coordinates{}, false
})

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Load(ctx context.Context, slug string) (*models.TenantState, error) {
	args := m.Called(ctx, slug)
	state, _ := args.Get(0).(*models.TenantState)
	return state, args.Error(1)
}

func (m *mockRepo) Save(ctx context.Context, state *models.TenantState) error {
	return m.Called(ctx, state).Error(0)
}

func (m *mockRepo) Create(ctx context.Context, state *models.TenantState) error {
	return m.Called(ctx, state).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishOrderCreated(ctx context.Context, event models.OrderCreatedEvent) error {
	return m.Called(ctx, event).Error(0)
}

func testTenant() *models.TenantState {
	return &models.TenantState{
		Restaurant: models.Restaurant{
			Slug:          testSlug,
			Name:          "Pizzaria Bella",
			WhatsApp:      "+55 11 4000-1234",
			DeliveryFee:   6,
			OpenForOrders: true,
			Timezone:      "America/Sao_Paulo",
			Latitude:      &originLat,
			Longitude:     &originLng,
			Coupons: []models.Coupon{
				{Code: "PIZZA10", Active: true, DiscountType: models.DiscountPercent, DiscountValue: 10, MinOrderValue: 30},
			},
			Banners:            []models.Banner{{ID: "banner-1", Title: "Terça em dobro", Active: true}},
			MarketingCampaigns: []models.MarketingCampaign{{ID: "camp-1", Name: "Instagram", Active: true}},
		},
	}
}

func newTestService(t *testing.T, state *models.TenantState, g geocoderFunc, opts ...ServiceOption) (*OrderService, *repository.MemoryRepo) {
	t.Helper()
	repo := repository.NewMemoryRepo()
	require.NoError(t, repo.Create(context.Background(), state))

	var seq int
	var mu sync.Mutex
	opts = append([]ServiceOption{
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("order-%d", seq)
		}),
	}, opts...)
	var geocoder = failingGeocoder
	if g != nil {
		geocoder = g
	}
	return NewOrderService(repo, geocoder, zap.NewNop(), opts...), repo
}

func orderRequest(items ...models.CartItem) *models.SubmitOrderRequest {
	if len(items) == 0 {
		items = []models.CartItem{{ProductID: "p1", Name: "Pizza Calabresa", Price: 20, Quantity: 2}}
	}
	return &models.SubmitOrderRequest{
		RestaurantSlug:   testSlug,
		CustomerName:     "Ana Souza",
		CustomerWhatsapp: "(11) 98765-4321",
		CustomerAddress:  "Rua das Flores, 100 - Centro",
		PaymentMethod:    models.PaymentPix,
		Items:            items,
	}
}

func requireOrderError(t *testing.T, err error, kind ErrorKind) *OrderError {
	t.Helper()
	var oe *OrderError
	require.True(t, errors.As(err, &oe), "expected *OrderError, got %v", err)
	require.Equal(t, kind, oe.Kind, oe.Message)
	return oe
}

func TestSubmit_FlatFee(t *testing.T) {
	svc, repo := newTestService(t, testTenant(), nil)

	res, err := svc.Submit(context.Background(), orderRequest())
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, 40.0, o.Subtotal)
	assert.Equal(t, 0.0, o.DiscountValue)
	assert.Equal(t, 6.0, o.DeliveryFee)
	assert.Equal(t, 46.0, o.Total)
	assert.Equal(t, models.FeeSourceFlat, o.DeliveryFeeSource)
	assert.Nil(t, o.DeliveryDistanceKm)
	assert.Equal(t, "ORD_20260310_001", o.Number)
	assert.Equal(t, models.OrderStatusReceived, o.Status)
	assert.Equal(t, "5511987654321", o.CustomerWhatsapp)
	assert.Equal(t, "order-1", o.ID)
	assert.True(t, strings.HasPrefix(res.DispatchURL, "https://wa.me/551140001234?text="))
	assert.Contains(t, res.Message, "*Total: R$ 46,00*")

	state, err := repo.Load(context.Background(), testSlug)
	require.NoError(t, err)
	require.Len(t, state.Orders, 1)
	assert.Equal(t, *o, state.Orders[0])
	require.Len(t, state.Customers, 1)
	c := state.Customers[0]
	assert.Equal(t, 1, c.TotalOrders)
	assert.Equal(t, 46.0, c.TotalSpent)
	assert.Equal(t, testNow, c.LastOrderAt)
	assert.Equal(t, int64(2), state.Version)
}

func TestSubmit_DistanceBand(t *testing.T) {
	state := testTenant()
	state.Restaurant.DeliveryConfig = &models.DeliveryConfig{
		FeeMode:       models.FeeModeDistanceBands,
		DistanceBands: []models.DistanceBand{{UpToKm: 3, Fee: 4}, {UpToKm: 8, Fee: 7}},
	}
	svc, _ := newTestService(t, state, fixedGeocoder(kmNorth(5.2)))

	res, err := svc.Submit(context.Background(), orderRequest())
	require.NoError(t, err)

	assert.Equal(t, 7.0, res.Order.DeliveryFee)
	assert.Equal(t, models.FeeSourceDistanceBand, res.Order.DeliveryFeeSource)
	require.NotNil(t, res.Order.DeliveryDistanceKm)
	assert.InDelta(t, 5.2, *res.Order.DeliveryDistanceKm, 0.001)
	assert.Equal(t, 47.0, res.Order.Total)
	assert.Contains(t, res.Message, "Distância: 5,2 km\n")
}

func TestSubmit_GeocodeFailureFallsBack(t *testing.T) {
	state := testTenant()
	state.Restaurant.DeliveryConfig = &models.DeliveryConfig{
		FeeMode:       models.FeeModeDistanceBands,
		RadiusKm:      10,
		DistanceBands: []models.DistanceBand{{UpToKm: 3, Fee: 4}},
	}
	svc, _ := newTestService(t, state, failingGeocoder)

	res, err := svc.Submit(context.Background(), orderRequest())
	require.NoError(t, err)
	assert.Equal(t, models.FeeSourceFallback, res.Order.DeliveryFeeSource)
	assert.Equal(t, 6.0, res.Order.DeliveryFee)
	assert.Nil(t, res.Order.DeliveryDistanceKm)
}

func TestSubmit_NeighborhoodZone(t *testing.T) {
	state := testTenant()
	state.Restaurant.DeliveryConfig = &models.DeliveryConfig{
		FeeMode:           models.FeeModeNeighborhoodFixed,
		NeighborhoodRates: []models.NeighborhoodRate{{Name: "Centro", Fee: 3.5, Active: true}},
	}
	svc, _ := newTestService(t, state, nil)

	res, err := svc.Submit(context.Background(), orderRequest())
	require.NoError(t, err)
	require.NotNil(t, res.Order.DeliveryZoneName)
	assert.Equal(t, "Centro", *res.Order.DeliveryZoneName)
	assert.Equal(t, 43.5, res.Order.Total)
}

func TestSubmit_CouponAppliedOnce(t *testing.T) {
	svc, repo := newTestService(t, testTenant(), nil)
	items := []models.CartItem{{ProductID: "p1", Name: "Pizza Grande", Price: 50, Quantity: 1}}

	req := orderRequest(items...)
	req.CouponCode = " pizza10 "
	res, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "PIZZA10", res.Order.CouponCode)
	assert.Equal(t, 5.0, res.Order.DiscountValue)
	assert.Equal(t, 51.0, res.Order.Total)

	again := orderRequest(items...)
	again.CouponCode = "PIZZA10"
	_, err = svc.Submit(context.Background(), again)
	oe := requireOrderError(t, err, KindCouponRejected)
	assert.Equal(t, models.CouponAlreadyUsed, oe.Reason)
	assert.Equal(t, http.StatusBadRequest, oe.HTTPStatus())

	state, err := repo.Load(context.Background(), testSlug)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Restaurant.Coupons[0].Uses)
	assert.Len(t, state.Orders, 1)
	assert.Equal(t, []string{"PIZZA10"}, state.Customers[0].UsedCouponCodes)
}

func TestSubmit_CouponReuseWithReformattedNumber(t *testing.T) {
	svc, repo := newTestService(t, testTenant(), nil)
	items := []models.CartItem{{ProductID: "p1", Name: "Pizza Grande", Price: 50, Quantity: 1}}

	first := orderRequest(items...)
	first.CustomerWhatsapp = "(11) 98765-4321"
	first.CouponCode = "PIZZA10"
	_, err := svc.Submit(context.Background(), first)
	require.NoError(t, err)

	second := orderRequest(items...)
	second.CustomerWhatsapp = "+55 11 98765-4321"
	second.CouponCode = "PIZZA10"
	_, err = svc.Submit(context.Background(), second)
	oe := requireOrderError(t, err, KindCouponRejected)
	assert.Equal(t, models.CouponAlreadyUsed, oe.Reason)

	state, err := repo.Load(context.Background(), testSlug)
	require.NoError(t, err)
	require.Len(t, state.Customers, 1)
	assert.Equal(t, "5511987654321", state.Customers[0].WhatsApp)
	assert.Equal(t, 1, state.Restaurant.Coupons[0].Uses)
}

func TestSubmit_CouponBelowMinimum(t *testing.T) {
	svc, repo := newTestService(t, testTenant(), nil)
	req := orderRequest(models.CartItem{ProductID: "p1", Name: "Esfiha", Price: 10, Quantity: 2})
	req.CouponCode = "PIZZA10"

	_, err := svc.Submit(context.Background(), req)
	oe := requireOrderError(t, err, KindCouponRejected)
	assert.Equal(t, models.CouponBelowMinimum, oe.Reason)

	state, err := repo.Load(context.Background(), testSlug)
	require.NoError(t, err)
	assert.Empty(t, state.Orders)
	assert.Empty(t, state.Customers)
}

func TestSubmit_OutOfRadius(t *testing.T) {
	state := testTenant()
	state.Restaurant.DeliveryConfig = &models.DeliveryConfig{FeeMode: models.FeeModeFlat, RadiusKm: 10}
	svc, repo := newTestService(t, state, fixedGeocoder(kmNorth(14.3)))

	_, err := svc.Submit(context.Background(), orderRequest())
	oe := requireOrderError(t, err, KindOutOfRadius)
	assert.Equal(t, http.StatusConflict, oe.HTTPStatus())

	stored, err := repo.Load(context.Background(), testSlug)
	require.NoError(t, err)
	assert.Empty(t, stored.Orders)
	assert.Empty(t, stored.Customers)
	assert.Equal(t, int64(1), stored.Version)
}

func TestSubmit_ConcurrentCouponUse(t *testing.T) {
	svc, repo := newTestService(t, testTenant(), nil)

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		reasons  []models.CouponRejection
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := orderRequest(models.CartItem{ProductID: "p1", Name: "Pizza", Price: 50, Quantity: 1})
			req.CouponCode = "PIZZA10"
			_, err := svc.Submit(context.Background(), req)

			mu.Lock()
			defer mu.Unlock()
			var oe *OrderError
			switch {
			case err == nil:
				accepted++
			case errors.As(err, &oe):
				reasons = append(reasons, oe.Reason)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Len(t, reasons, n-1)
	for _, r := range reasons {
		assert.Equal(t, models.CouponAlreadyUsed, r)
	}

	state, err := repo.Load(context.Background(), testSlug)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Restaurant.Coupons[0].Uses)
	assert.Len(t, state.Orders, 1)
}

func TestSubmit_VersionConflict(t *testing.T) {
	repo := &mockRepo{}
	repo.On("Load", mock.Anything, testSlug).Return(testTenant(), nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*models.TenantState")).Return(repository.ErrVersionConflict).Once()

	pub := &mockPublisher{}
	svc := NewOrderService(repo, failingGeocoder, zap.NewNop(), WithPublisher(pub), WithClock(func() time.Time { return testNow }))

	_, err := svc.Submit(context.Background(), orderRequest())
	oe := requireOrderError(t, err, KindConflict)
	assert.Equal(t, http.StatusConflict, oe.HTTPStatus())

	repo.AssertExpectations(t)
	pub.AssertNotCalled(t, "PublishOrderCreated", mock.Anything, mock.Anything)
}

func TestSubmit_PanicReleasesTenantLock(t *testing.T) {
	repo := &mockRepo{}
	repo.On("Load", mock.Anything, testSlug).Return(testTenant(), nil)
	repo.On("Save", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("driver bug") }).Return(nil).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	svc := NewOrderService(repo, failingGeocoder, zap.NewNop(), WithClock(func() time.Time { return testNow }))

	assert.Panics(t, func() { _, _ = svc.Submit(context.Background(), orderRequest()) })
	assert.Equal(t, 0, svc.locks.Len())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), orderRequest())
		done <- err
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("tenant lock not released after panic")
	}
}

func TestSubmit_StorageFailureIsInternal(t *testing.T) {
	repo := &mockRepo{}
	repo.On("Load", mock.Anything, testSlug).Return(nil, errors.New("connection reset"))
	svc := NewOrderService(repo, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), orderRequest())
	require.Error(t, err)
	var oe *OrderError
	assert.False(t, errors.As(err, &oe))
}

func TestSubmit_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *models.TenantState)
		req    func(r *models.SubmitOrderRequest)
		kind   ErrorKind
		status int
	}{
		{name: "no items", req: func(r *models.SubmitOrderRequest) { r.Items = nil }, kind: KindValidation, status: http.StatusBadRequest},
		{name: "zero quantity", req: func(r *models.SubmitOrderRequest) { r.Items[0].Quantity = 0 }, kind: KindValidation, status: http.StatusBadRequest},
		{name: "short whatsapp", req: func(r *models.SubmitOrderRequest) { r.CustomerWhatsapp = "1234" }, kind: KindValidation, status: http.StatusBadRequest},
		{name: "bad payment", req: func(r *models.SubmitOrderRequest) { r.PaymentMethod = "boleto" }, kind: KindValidation, status: http.StatusBadRequest},
		{name: "bad email", req: func(r *models.SubmitOrderRequest) { r.CustomerEmail = "not-an-email" }, kind: KindValidation, status: http.StatusBadRequest},
		{name: "unknown restaurant", req: func(r *models.SubmitOrderRequest) { r.RestaurantSlug = "nope" }, kind: KindNotFound, status: http.StatusNotFound},
		{name: "closed", mutate: func(s *models.TenantState) { s.Restaurant.OpenForOrders = false }, kind: KindClosedForOrders, status: http.StatusForbidden},
		{name: "canceled subscription", mutate: func(s *models.TenantState) { s.Restaurant.SubscriptionStatus = models.SubscriptionCanceled }, kind: KindSubscriptionBlocked, status: http.StatusPaymentRequired},
		{name: "trial over", mutate: func(s *models.TenantState) {
			s.Restaurant.SubscriptionStatus = models.SubscriptionTrialing
			s.Restaurant.TrialEndsAt = ptr(testNow.Add(-time.Hour))
		}, kind: KindSubscriptionBlocked, status: http.StatusPaymentRequired},
		{name: "unknown coupon", req: func(r *models.SubmitOrderRequest) { r.CouponCode = "FREE" }, kind: KindCouponRejected, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := testTenant()
			if tt.mutate != nil {
				tt.mutate(state)
			}
			svc, repo := newTestService(t, state, nil)
			req := orderRequest()
			if tt.req != nil {
				tt.req(req)
			}

			_, err := svc.Submit(context.Background(), req)
			oe := requireOrderError(t, err, tt.kind)
			assert.Equal(t, tt.status, oe.HTTPStatus())

			stored, err := repo.Load(context.Background(), testSlug)
			require.NoError(t, err)
			assert.Empty(t, stored.Orders)
		})
	}
}

func TestSubmit_PastDueStillAccepts(t *testing.T) {
	state := testTenant()
	state.Restaurant.SubscriptionStatus = models.SubscriptionPastDue
	svc, _ := newTestService(t, state, nil)

	_, err := svc.Submit(context.Background(), orderRequest())
	assert.NoError(t, err)
}

func TestSubmit_AttributionAndCustomerUpdate(t *testing.T) {
	svc, repo := newTestService(t, testTenant(), nil)

	first := orderRequest()
	first.AttributionBannerID = "banner-1"
	first.AttributionCampaignID = "missing"
	first.UtmSource = "instagram"
	_, err := svc.Submit(context.Background(), first)
	require.NoError(t, err)

	second := orderRequest()
	second.CustomerWhatsapp = "+55 11 98765-4321"
	second.CustomerAddress = "Av. Paulista, 1000"
	second.AttributionCampaignID = "camp-1"
	res, err := svc.Submit(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, "ORD_20260310_002", res.Order.Number)

	state, err := repo.Load(context.Background(), testSlug)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Restaurant.Banners[0].AttributedOrders)
	assert.Equal(t, 1, state.Restaurant.MarketingCampaigns[0].AttributedOrders)
	assert.Equal(t, "instagram", state.Orders[0].UtmSource)

	require.Len(t, state.Customers, 1)
	c := state.Customers[0]
	assert.Equal(t, 2, c.TotalOrders)
	assert.Equal(t, 92.0, c.TotalSpent)
	assert.Equal(t, "Av. Paulista, 1000", c.Address)
}

func TestSubmit_OrderNumberUsesRestaurantDay(t *testing.T) {
	state := testTenant()
	state.Orders = []models.Order{{Number: "ORD_20260309_001"}, {Number: "ORD_20260309_002"}}

	// 01:30 UTC on the 10th is still the 9th in São Paulo.
	late := time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)
	svc, _ := newTestService(t, state, nil, WithClock(func() time.Time { return late }))

	res, err := svc.Submit(context.Background(), orderRequest())
	require.NoError(t, err)
	assert.Equal(t, "ORD_20260309_003", res.Order.Number)
}

func TestSubmit_TotalInvariant(t *testing.T) {
	state := testTenant()
	state.Restaurant.Coupons = append(state.Restaurant.Coupons,
		models.Coupon{Code: "BIG", Active: true, DiscountType: models.DiscountFixed, DiscountValue: 500},
	)
	svc, _ := newTestService(t, state, nil)

	carts := [][]models.CartItem{
		{{ProductID: "a", Name: "Água", Price: 0.1, Quantity: 3}},
		{{ProductID: "b", Name: "Pizza", Price: 39.9, Quantity: 1}, {ProductID: "c", Name: "Borda", Price: 7.35, Quantity: 2}},
		{{ProductID: "d", Name: "Combo", Price: 89.99, Quantity: 3}},
	}
	for i, items := range carts {
		req := orderRequest(items...)
		req.CustomerWhatsapp = fmt.Sprintf("11 9999-000%d", i)
		req.CouponCode = "BIG"

		res, err := svc.Submit(context.Background(), req)
		require.NoError(t, err)
		o := res.Order
		assert.InDelta(t, o.Subtotal-o.DiscountValue+o.DeliveryFee, o.Total, 1e-9)
		assert.GreaterOrEqual(t, o.Total, 0.0)
		assert.Equal(t, o.Subtotal, o.DiscountValue, "fixed discount clamps to subtotal")
	}
}

func TestSubmit_PublishesEvent(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishOrderCreated", mock.Anything, mock.MatchedBy(func(e models.OrderCreatedEvent) bool {
		return e.OrderID == "order-1" && e.Number == "ORD_20260310_001" && e.RestaurantSlug == testSlug &&
			e.Total == 46 && strings.HasPrefix(e.DispatchURL, "https://wa.me/")
	})).Return(nil).Once()

	svc, _ := newTestService(t, testTenant(), nil, WithPublisher(pub))
	_, err := svc.Submit(context.Background(), orderRequest())
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestSubmit_PublishFailureDoesNotFailOrder(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc, repo := newTestService(t, testTenant(), nil, WithPublisher(pub))
	res, err := svc.Submit(context.Background(), orderRequest())
	require.NoError(t, err)
	assert.NotNil(t, res.Order)

	state, err := repo.Load(context.Background(), testSlug)
	require.NoError(t, err)
	assert.Len(t, state.Orders, 1)
}

func TestQuote(t *testing.T) {
	state := testTenant()
	state.Restaurant.DeliveryConfig = &models.DeliveryConfig{
		FeeMode:       models.FeeModeDistanceBands,
		RadiusKm:      10,
		DistanceBands: []models.DistanceBand{{UpToKm: 3, Fee: 4}, {UpToKm: 8, Fee: 7}},
	}
	svc, repo := newTestService(t, state, fixedGeocoder(kmNorth(2)))

	q, err := svc.Quote(context.Background(), testSlug, "Rua A, 1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, q.Fee)
	assert.Equal(t, models.FeeSourceDistanceBand, q.Source)
	require.NotNil(t, q.DistanceKm)
	assert.InDelta(t, 2.0, *q.DistanceKm, 0.001)

	far, _ := newTestService(t, state, fixedGeocoder(kmNorth(12)))
	_, err = far.Quote(context.Background(), testSlug, "Rua B, 2")
	requireOrderError(t, err, KindOutOfRadius)

	_, err = svc.Quote(context.Background(), testSlug, " ")
	requireOrderError(t, err, KindValidation)

	stored, err := repo.Load(context.Background(), testSlug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
}

func TestPreviewCoupon(t *testing.T) {
	state := testTenant()
	state.Customers = []models.Customer{{WhatsApp: "5511911112222", UsedCouponCodes: []string{"PIZZA10"}}}
	svc, repo := newTestService(t, state, nil)
	ctx := context.Background()

	resp, err := svc.PreviewCoupon(ctx, testSlug, "", "pizza10", 50)
	require.NoError(t, err)
	assert.True(t, resp.IsValid)
	assert.Equal(t, 5.0, resp.Discount)
	assert.Equal(t, "PIZZA10", resp.Code)

	resp, err = svc.PreviewCoupon(ctx, testSlug, "+55 11 91111-2222", "PIZZA10", 50)
	require.NoError(t, err)
	assert.False(t, resp.IsValid)
	assert.Equal(t, models.CouponAlreadyUsed, resp.Reason)

	_, err = svc.PreviewCoupon(ctx, testSlug, "", "", 50)
	requireOrderError(t, err, KindValidation)

	_, err = svc.PreviewCoupon(ctx, "ghost", "", "PIZZA10", 50)
	requireOrderError(t, err, KindNotFound)

	stored, err := repo.Load(ctx, testSlug)
	require.NoError(t, err)
	assert.Zero(t, stored.Restaurant.Coupons[0].Uses)
}

func TestApplicableCoupons(t *testing.T) {
	svc, _ := newTestService(t, testTenant(), nil)

	codes, err := svc.ApplicableCoupons(context.Background(), testSlug, "", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"PIZZA10"}, codes)

	codes, err = svc.ApplicableCoupons(context.Background(), testSlug, "", 10)
	require.NoError(t, err)
	assert.Empty(t, codes)

	_, err = svc.ApplicableCoupons(context.Background(), testSlug, "", -1)
	requireOrderError(t, err, KindValidation)
}

func TestAddCoupon(t *testing.T) {
	svc, repo := newTestService(t, testTenant(), nil)
	ctx := context.Background()

	c, err := svc.AddCoupon(ctx, testSlug, models.Coupon{Code: " frete ", Active: true, DiscountType: models.DiscountFixed, DiscountValue: 6, Uses: 9})
	require.NoError(t, err)
	assert.Equal(t, "FRETE", c.Code)
	assert.Zero(t, c.Uses)

	_, err = svc.AddCoupon(ctx, testSlug, models.Coupon{Code: "Pizza10", Active: true, DiscountType: models.DiscountFixed, DiscountValue: 1})
	requireOrderError(t, err, KindConflict)

	invalid := []models.Coupon{
		{Code: "X", DiscountType: models.DiscountPercent, DiscountValue: 150},
		{Code: "X", DiscountType: "bogo", DiscountValue: 1},
		{Code: "X", DiscountType: models.DiscountFixed, DiscountValue: 0},
		{Code: "X", DiscountType: models.DiscountFixed, DiscountValue: 1, StartTime: "25:00"},
		{Code: "X", DiscountType: models.DiscountFixed, DiscountValue: 1, StartDate: "2026-05-01", EndDate: "2026-04-01"},
		{Code: "  ", DiscountType: models.DiscountFixed, DiscountValue: 1},
	}
	for _, in := range invalid {
		_, err := svc.AddCoupon(ctx, testSlug, in)
		requireOrderError(t, err, KindValidation)
	}

	_, err = svc.AddCoupon(ctx, "ghost", models.Coupon{Code: "Y", DiscountType: models.DiscountFixed, DiscountValue: 1})
	requireOrderError(t, err, KindNotFound)

	state, err := repo.Load(ctx, testSlug)
	require.NoError(t, err)
	require.Len(t, state.Restaurant.Coupons, 2)
	assert.Equal(t, "FRETE", state.Restaurant.Coupons[1].Code)
}
