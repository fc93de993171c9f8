package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Cheertaboi/delivery-order-service/internal/concurrency"
	"github.com/Cheertaboi/delivery-order-service/internal/geo"
	"github.com/Cheertaboi/delivery-order-service/internal/models"
	"github.com/Cheertaboi/delivery-order-service/internal/repository"
)

// Publisher receives order.created events after an order is stored.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, event models.OrderCreatedEvent) error
}

type orderStage string

const (
	stageValidating orderStage = "validating"
	stagePricing    orderStage = "pricing"
	stagePersisting orderStage = "persisting"
	stageDone       orderStage = "done"
	stageRejected   orderStage = "rejected"
)

const publishTimeout = 5 * time.Second

// SubmitResult is a stored order and the link that dispatches it to the restaurant.
type SubmitResult struct {
	Order       *models.Order
	Message     string
	DispatchURL string
}

// DeliveryQuote previews the delivery part of an order.
type DeliveryQuote struct {
	Fee        float64          `json:"fee"`
	Source     models.FeeSource `json:"source"`
	ZoneName   *string          `json:"zoneName"`
	DistanceKm *float64         `json:"distanceKm"`
}

type OrderService struct {
	repo      repository.Repository
	geocoder  geo.Geocoder
	publisher Publisher
	coupons   CouponValidator
	locks     *concurrency.KeyedMutex
	validate  *validator.Validate
	now       func() time.Time
	newID     func() string
	log       *zap.Logger
}

// ServiceOption configures an OrderService.
type ServiceOption func(*OrderService)

func WithPublisher(p Publisher) ServiceOption {
	return func(s *OrderService) {
		s.publisher = p
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *OrderService) {
		s.now = now
	}
}

// WithDefaultLocation sets the timezone used for restaurants that have none.
func WithDefaultLocation(loc *time.Location) ServiceOption {
	return func(s *OrderService) {
		s.coupons.DefaultLocation = loc
	}
}

func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *OrderService) {
		s.newID = newID
	}
}

func NewOrderService(repo repository.Repository, geocoder geo.Geocoder, log *zap.Logger, opts ...ServiceOption) *OrderService {
	if geocoder == nil {
		geocoder = geo.NoopGeocoder{}
	}
	s := &OrderService{
		repo:     repo,
		geocoder: geocoder,
		coupons:  CouponValidator{DefaultLocation: time.UTC},
		locks:    concurrency.NewKeyedMutex(),
		validate: newRequestValidator(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit prices, validates and stores an order. Rejections are *OrderError;
// any other error is an internal failure.
func (s *OrderService) Submit(ctx context.Context, req *models.SubmitOrderRequest) (*SubmitResult, error) {
	slug := strings.TrimSpace(req.RestaurantSlug)
	log := s.log.With(zap.String("restaurant", slug))
	log.Debug("order stage", zap.String("stage", string(stageValidating)))

	if err := s.validate.Struct(req); err != nil {
		return nil, s.reject(log, validationError(err))
	}

	// Fail fast before the network call; everything is checked again under the lock.
	state, err := s.loadTenant(ctx, slug)
	if err != nil {
		return nil, s.reject(log, err)
	}
	if err := s.checkAcceptingOrders(&state.Restaurant); err != nil {
		return nil, s.reject(log, err)
	}
	coords, geocoded := s.geocoder.Geocode(ctx, req.CustomerAddress)

	res, err := s.submitLocked(ctx, log, slug, req, coords, geocoded)
	if err != nil {
		return nil, s.reject(log, err)
	}

	log.Info("order stage",
		zap.String("stage", string(stageDone)),
		zap.String("order_id", res.Order.ID),
		zap.String("number", res.Order.Number),
		zap.Float64("total", res.Order.Total),
		zap.String("fee_source", string(res.Order.DeliveryFeeSource)),
	)
	s.publish(ctx, log, res)
	return res, nil
}

func (s *OrderService) submitLocked(
	ctx context.Context,
	log *zap.Logger,
	slug string,
	req *models.SubmitOrderRequest,
	coords models.Coordinates,
	geocoded bool,
) (*SubmitResult, error) {
	unlock := s.locks.Lock(slug)
	defer unlock()

	state, err := s.loadTenant(ctx, slug)
	if err != nil {
		return nil, err
	}
	r := &state.Restaurant
	if err := s.checkAcceptingOrders(r); err != nil {
		return nil, err
	}
	distance := deliveryDistance(r, coords, geocoded)
	if err := checkRadius(r, distance); err != nil {
		return nil, err
	}

	log.Debug("order stage", zap.String("stage", string(stagePricing)))
	now := s.now()
	customer := state.Customer(req.CustomerWhatsapp)

	subtotal := subtotalOf(req.Items)
	coupon, err := s.coupons.Validate(r, customer, req.CouponCode, subtotal, now)
	if err != nil {
		return nil, err
	}
	fee, err := ResolveFee(r, req.CustomerAddress, distance)
	if err != nil {
		return nil, fmt.Errorf("resolve delivery fee: %w", err)
	}
	total := round2(decimal.Max(subtotal.Sub(coupon.Discount).Add(fee.Fee), decimal.Zero))

	log.Debug("order stage", zap.String("stage", string(stagePersisting)))
	order := &models.Order{
		ID:                 s.newID(),
		Number:             s.nextOrderNumber(state, now),
		RestaurantSlug:     r.Slug,
		CustomerName:       strings.TrimSpace(req.CustomerName),
		CustomerWhatsapp:   models.NormalizeWhatsApp(req.CustomerWhatsapp),
		CustomerAddress:    strings.TrimSpace(req.CustomerAddress),
		CustomerEmail:      strings.TrimSpace(req.CustomerEmail),
		Items:              req.Items,
		Subtotal:           subtotal.InexactFloat64(),
		CouponCode:         coupon.Code,
		DiscountValue:      coupon.Discount.InexactFloat64(),
		DeliveryFee:        fee.Fee.InexactFloat64(),
		DeliveryFeeSource:  fee.Source,
		DeliveryDistanceKm: distance,
		DeliveryZoneName:   fee.ZoneName,
		Total:              total.InexactFloat64(),
		PaymentMethod:      req.PaymentMethod,
		GeneralNotes:       strings.TrimSpace(req.GeneralNotes),
		Status:             models.OrderStatusReceived,
		CreatedAt:          now.UTC(),
		Attribution:        req.Attribution,
	}

	state.Orders = append(state.Orders, *order)
	upsertCustomer(state, order, total, now.UTC())
	RecordAttribution(r, order.CouponCode, req.Attribution)

	if err := s.repo.Save(ctx, state); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, newOrderError(KindConflict, "restaurant data changed while the order was being placed, please retry")
		}
		return nil, fmt.Errorf("save tenant %s: %w", slug, err)
	}

	msg := BuildOrderMessage(r, order)
	return &SubmitResult{
		Order:       order,
		Message:     msg,
		DispatchURL: DispatchURL(r.WhatsApp, msg),
	}, nil
}

// Quote previews the fee for an address with the same geocoding and radius
// rules as Submit. Nothing is stored.
func (s *OrderService) Quote(ctx context.Context, slug, address string) (*DeliveryQuote, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" || strings.TrimSpace(address) == "" {
		return nil, newOrderError(KindValidation, "restaurant and address are required")
	}
	state, err := s.loadTenant(ctx, slug)
	if err != nil {
		return nil, err
	}
	r := &state.Restaurant

	coords, geocoded := s.geocoder.Geocode(ctx, address)
	distance := deliveryDistance(r, coords, geocoded)
	if err := checkRadius(r, distance); err != nil {
		return nil, err
	}
	fee, err := ResolveFee(r, address, distance)
	if err != nil {
		return nil, fmt.Errorf("resolve delivery fee: %w", err)
	}
	return &DeliveryQuote{
		Fee:        fee.Fee.InexactFloat64(),
		Source:     fee.Source,
		ZoneName:   fee.ZoneName,
		DistanceKm: distance,
	}, nil
}

// PreviewCoupon validates a coupon without consuming it. Coupon rejections are
// reported in the response, not as an error.
func (s *OrderService) PreviewCoupon(ctx context.Context, slug, whatsapp, code string, subtotal float64) (models.ValidationResponse, error) {
	if models.NormalizeCouponCode(code) == "" {
		return models.ValidationResponse{}, newOrderError(KindValidation, "coupon code is required")
	}
	if subtotal < 0 {
		return models.ValidationResponse{}, newOrderError(KindValidation, "subtotal must not be negative")
	}
	state, err := s.loadTenant(ctx, strings.TrimSpace(slug))
	if err != nil {
		return models.ValidationResponse{}, err
	}

	res, err := s.coupons.Validate(&state.Restaurant, state.Customer(whatsapp), code, round2(money(subtotal)), s.now())
	if err != nil {
		var oe *OrderError
		if errors.As(err, &oe) && oe.Kind == KindCouponRejected {
			return models.ValidationResponse{
				IsValid: false,
				Code:    models.NormalizeCouponCode(code),
				Reason:  oe.Reason,
				Message: oe.Message,
			}, nil
		}
		return models.ValidationResponse{}, err
	}
	return models.ValidationResponse{
		IsValid:  true,
		Code:     res.Code,
		Discount: res.Discount.InexactFloat64(),
		Message:  "coupon_applied",
	}, nil
}

// ApplicableCoupons lists the codes a customer could use on a subtotal right now.
func (s *OrderService) ApplicableCoupons(ctx context.Context, slug, whatsapp string, subtotal float64) ([]string, error) {
	if subtotal < 0 {
		return nil, newOrderError(KindValidation, "subtotal must not be negative")
	}
	state, err := s.loadTenant(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	return s.coupons.Applicable(&state.Restaurant, state.Customer(whatsapp), round2(money(subtotal)), s.now()), nil
}

// AddCoupon appends a coupon to a restaurant. Codes are unique per restaurant.
func (s *OrderService) AddCoupon(ctx context.Context, slug string, c models.Coupon) (*models.Coupon, error) {
	slug = strings.TrimSpace(slug)
	c.Code = models.NormalizeCouponCode(c.Code)
	c.Uses = 0
	if err := s.validate.Struct(&c); err != nil {
		return nil, validationError(err)
	}
	if c.DiscountType == models.DiscountPercent && c.DiscountValue > 100 {
		return nil, newOrderError(KindValidation, "discountValue must be at most 100 for percent coupons")
	}
	if c.StartDate != "" && c.EndDate != "" && c.StartDate > c.EndDate {
		return nil, newOrderError(KindValidation, "startDate must not be after endDate")
	}

	unlock := s.locks.Lock(slug)
	defer unlock()

	state, err := s.loadTenant(ctx, slug)
	if err != nil {
		return nil, err
	}
	if state.Restaurant.CouponByCode(c.Code) != nil {
		return nil, newOrderError(KindConflict, "coupon %s already exists", c.Code)
	}
	state.Restaurant.Coupons = append(state.Restaurant.Coupons, c)

	if err := s.repo.Save(ctx, state); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, newOrderError(KindConflict, "restaurant data changed concurrently, please retry")
		}
		return nil, fmt.Errorf("save tenant %s: %w", slug, err)
	}
	s.log.Info("coupon created", zap.String("restaurant", slug), zap.String("code", c.Code))
	return &c, nil
}

func (s *OrderService) loadTenant(ctx context.Context, slug string) (*models.TenantState, error) {
	if slug == "" {
		return nil, newOrderError(KindValidation, "restaurant is required")
	}
	state, err := s.repo.Load(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return nil, newOrderError(KindNotFound, "restaurant %s not found", slug)
		}
		return nil, fmt.Errorf("load tenant %s: %w", slug, err)
	}
	return state, nil
}

func (s *OrderService) checkAcceptingOrders(r *models.Restaurant) error {
	if !r.OpenForOrders {
		return newOrderError(KindClosedForOrders, "restaurant is closed for orders")
	}
	if r.SubscriptionBlocked(s.now()) {
		return newOrderError(KindSubscriptionBlocked, "restaurant is not accepting orders at the moment")
	}
	return nil
}

// nextOrderNumber numbers orders per restaurant per local calendar day.
func (s *OrderService) nextOrderNumber(state *models.TenantState, now time.Time) string {
	local := now.In(s.coupons.location(&state.Restaurant))
	prefix := models.OrderNumberPrefix(local)
	return models.GenerateOrderNumber(local, state.OrdersWithPrefix(prefix)+1)
}

func (s *OrderService) reject(log *zap.Logger, err error) error {
	var oe *OrderError
	if errors.As(err, &oe) {
		log.Info("order stage",
			zap.String("stage", string(stageRejected)),
			zap.String("kind", string(oe.Kind)),
			zap.String("reason", string(oe.Reason)),
		)
		return err
	}
	log.Error("order failed", zap.String("stage", string(stageRejected)), zap.Error(err))
	return err
}

func (s *OrderService) publish(ctx context.Context, log *zap.Logger, res *SubmitResult) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := models.OrderCreatedEvent{
		OrderID:         res.Order.ID,
		Number:          res.Order.Number,
		RestaurantSlug:  res.Order.RestaurantSlug,
		Total:           res.Order.Total,
		DispatchMessage: res.Message,
		DispatchURL:     res.DispatchURL,
		CreatedAt:       res.Order.CreatedAt,
	}
	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		log.Warn("publish order.created failed", zap.String("order_id", res.Order.ID), zap.Error(err))
	}
}

// deliveryDistance is nil unless both the customer and the restaurant have coordinates.
func deliveryDistance(r *models.Restaurant, coords models.Coordinates, geocoded bool) *float64 {
	if !geocoded {
		return nil
	}
	origin, ok := r.Coordinates()
	if !ok {
		return nil
	}
	d := geo.DistanceKm(origin, coords)
	return &d
}

func checkRadius(r *models.Restaurant, distance *float64) error {
	radius := r.RadiusKm()
	if distance != nil && radius > 0 && *distance > radius {
		return newOrderError(KindOutOfRadius, "address is %.1f km away, delivery radius is %.1f km", *distance, radius)
	}
	return nil
}

// upsertCustomer creates or updates the customer keyed by WhatsApp digits.
func upsertCustomer(state *models.TenantState, o *models.Order, total decimal.Decimal, now time.Time) {
	c := state.Customer(o.CustomerWhatsapp)
	if c == nil {
		state.Customers = append(state.Customers, models.Customer{
			WhatsApp:        o.CustomerWhatsapp,
			UsedCouponCodes: []string{},
			CreatedAt:       now,
		})
		c = &state.Customers[len(state.Customers)-1]
	}
	c.Name = o.CustomerName
	if o.CustomerEmail != "" {
		c.Email = o.CustomerEmail
	}
	c.Address = o.CustomerAddress
	c.TotalOrders++
	c.TotalSpent = round2(money(c.TotalSpent).Add(total)).InexactFloat64()
	if o.CouponCode != "" && !c.HasUsedCoupon(o.CouponCode) {
		c.UsedCouponCodes = append(c.UsedCouponCodes, o.CouponCode)
	}
	c.LastOrderAt = now
}
