package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/kv"
	applog "storefront/internal/log"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/repos"
)

const addressKey = "checkout.address"

type OrderService struct {
	Sessions *Sessions
	Orders   *repos.OrderRepo
	KV       kv.Store
	Pricing  pricing.Engine
	Payments payment.Gateway
	Events   events.Publisher
}

func NewOrderService(sessions *Sessions, orders *repos.OrderRepo, store kv.Store, engine pricing.Engine,
	payments payment.Gateway, pub events.Publisher) *OrderService {
	return &OrderService{
		Sessions: sessions,
		Orders:   orders,
		KV:       store,
		Pricing:  engine,
		Payments: payments,
		Events:   pub,
	}
}

// SaveAddress keeps the shipping step of checkout for the session.
func (s *OrderService) SaveAddress(ctx context.Context, sessionID string, a domain.Address) error {
	return kv.SetJSON(ctx, s.KV, sessionID, addressKey, a)
}

// Address returns the saved shipping step, or a zero Address.
func (s *OrderService) Address(ctx context.Context, sessionID string) (domain.Address, error) {
	var a domain.Address
	err := kv.GetJSON(ctx, s.KV, sessionID, addressKey, &a)
	if errors.Is(err, kv.ErrNotFound) {
		return domain.Address{}, nil
	}
	return a, err
}

type Receipt struct {
	OrderID    string                `json:"orderId"`
	Totals     domain.CheckoutTotals `json:"totals"`
	PaymentRef string                `json:"paymentRef"`
}

// Place turns the session's cart into an order. The cart stays locked for
// the whole flow so the priced lines are the ones written. On success the
// cart and its coupon are cleared and OrderPlaced is published.
func (s *OrderService) Place(ctx context.Context, sessionID string, addr domain.Address) (Receipt, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return Receipt{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	lines := sess.Cart.Lines()
	if len(lines) == 0 {
		return Receipt{}, ErrEmptyCart
	}
	active := sess.Coupon.Active()
	totals := s.Pricing.Compute(lines, active)

	orderID := uuid.NewString()
	approval, err := s.Payments.Authorize(ctx, orderID, totals.Total)
	if errors.Is(err, payment.ErrDeclined) {
		return Receipt{}, ErrPaymentDeclined
	}
	if err != nil {
		return Receipt{}, errors.Wrap(err, "authorize payment")
	}

	order := repos.NewOrder{
		ID:         orderID,
		SessionID:  sessionID,
		Address:    addr,
		Totals:     totals,
		PaymentRef: approval.Reference,
		Lines:      lines,
	}
	if active != nil {
		order.CouponID = active.ID
	}
	if err := s.Orders.Place(ctx, order); err != nil {
		if errors.Is(err, repos.ErrInsufficientStock) {
			return Receipt{}, ErrInsufficientStock
		}
		return Receipt{}, errors.Wrap(err, "place order")
	}

	if _, err := s.Sessions.mutateLocked(ctx, sess, func(m *cart.Manager) (bool, error) {
		return true, m.Clear(ctx)
	}); err != nil {
		applog.Background("order.cart_clear_failed", err, map[string]any{"order_id": orderID})
	}

	if s.Events != nil {
		if err := s.Events.PublishOrderPlaced(ctx, orderPlacedEvent(order, time.Now())); err != nil {
			applog.Background("order.publish_failed", err, map[string]any{"order_id": orderID})
		}
	}

	return Receipt{OrderID: orderID, Totals: totals, PaymentRef: approval.Reference}, nil
}

func orderPlacedEvent(o repos.NewOrder, at time.Time) events.OrderPlacedV1 {
	e := events.OrderPlacedV1{
		OrderID:     o.ID,
		SessionID:   o.SessionID,
		Subtotal:    o.Totals.Subtotal.String(),
		Discount:    o.Totals.Discount.String(),
		ShippingFee: o.Totals.ShippingFee.String(),
		Total:       o.Totals.Total.String(),
		PaymentRef:  o.PaymentRef,
		PlacedAt:    at.UTC().Truncate(time.Millisecond),
		Items:       make([]events.OrderItemV1, 0, len(o.Lines)),
	}
	if o.CouponID != "" {
		id := o.CouponID
		e.CouponID = &id
	}
	for _, l := range o.Lines {
		e.Items = append(e.Items, events.OrderItemV1{
			VariantID: l.VariantID,
			ProductID: l.ProductID,
			Qty:       l.Quantity,
			UnitPrice: l.UnitPrice.String(),
		})
	}
	return e
}

func (s *OrderService) Get(ctx context.Context, orderID string) (repos.OrderRow, []repos.OrderItemRow, error) {
	o, items, err := s.Orders.Get(ctx, orderID)
	if errors.Is(err, repos.ErrOrderNotFound) {
		return repos.OrderRow{}, nil, ErrOrderNotFound
	}
	return o, items, err
}

// History lists a user's orders, or the session's when nobody is logged in.
func (s *OrderService) History(ctx context.Context, sessionID string, u *domain.User) ([]repos.OrderSummary, error) {
	if u != nil {
		return s.Orders.ListByUser(ctx, u.ID)
	}
	return s.Orders.ListBySession(ctx, sessionID)
}

func (s *OrderService) Latest(ctx context.Context, limit int) ([]repos.OrderSummary, error) {
	return s.Orders.ListLatest(ctx, limit)
}

var orderStatuses = map[string]bool{
	domain.OrderPlaced:    true,
	domain.OrderShipped:   true,
	domain.OrderDelivered: true,
	domain.OrderCanceled:  true,
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) error {
	if !orderStatuses[status] {
		return errors.Errorf("unknown status %q", status)
	}
	err := s.Orders.UpdateStatus(ctx, orderID, status)
	if errors.Is(err, repos.ErrOrderNotFound) {
		return ErrOrderNotFound
	}
	return err
}
