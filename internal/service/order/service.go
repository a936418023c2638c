package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"goeats/internal/domain"
	"goeats/internal/remote"
	"goeats/internal/service/cart"
)

var (
	// ErrEmptyCart is returned when an order is placed with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCartNotCleared means the server accepted the order but the ordered
	// lines could not be taken out of the local cart afterwards.
	ErrCartNotCleared = errors.New("order placed but cart not cleared")
)

type orderAPI interface {
	SubmitOrder(ctx context.Context, token string, req remote.OrderRequest) (*domain.Order, error)
	ListOrders(ctx context.Context, token string) ([]domain.Order, error)
}

type cartStore interface {
	Snapshot() cart.Snapshot
	Deduct(ordered []domain.LineItem) error
}

type sessionStore interface {
	Credential() string
	Generation() uint64
}

type Service struct {
	api     orderAPI
	cart    cartStore
	session sessionStore
	pricing Pricing
	log     *slog.Logger
}

func New(api orderAPI, items cartStore, session sessionStore, pricing Pricing, logger *slog.Logger) *Service {
	return &Service{
		api:     api,
		cart:    items,
		session: session,
		pricing: pricing,
		log:     logger,
	}
}

// Summary prices the current cart.
func (s *Service) Summary() (cart.Snapshot, Summary) {
	snap := s.cart.Snapshot()
	return snap, s.pricing.Summarize(snap.Subtotal)
}

// Place submits the cart as an order. Preconditions are checked before any
// network call. On success the ordered lines are taken out of the cart, which
// empties it unless items were added while the request was in flight; on
// failure it is left untouched.
func (s *Service) Place(ctx context.Context) (*domain.Order, error) {
	const op = "order.Service.Place"
	log := s.log.With(slog.String("op", op))

	token := s.session.Credential()
	if token == "" {
		return nil, domain.ErrLoginRequired
	}
	snap := s.cart.Snapshot()
	if len(snap.Items) == 0 {
		return nil, ErrEmptyCart
	}

	req := remote.OrderRequest{
		Items:       make([]remote.OrderLine, 0, len(snap.Items)),
		TotalAmount: json.Number(snap.Subtotal.StringFixed(2)),
	}
	for _, item := range snap.Items {
		req.Items = append(req.Items, remote.OrderLine{MenuID: item.MenuItemID, Quantity: item.Quantity})
	}

	placed, err := s.api.SubmitOrder(ctx, token, req)
	if err != nil {
		log.Error("order submission failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cart.Deduct(snap.Items); err != nil {
		return placed, fmt.Errorf("%s: %w: %w", op, ErrCartNotCleared, err)
	}
	log.Info("order placed", slog.Int("lines", len(req.Items)), slog.String("total_amount", req.TotalAmount.String()))
	return placed, nil
}

// List returns the order history of the current user. A response that
// arrives after a logout or re-login is dropped with domain.ErrStale.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	const op = "order.Service.List"

	token := s.session.Credential()
	if token == "" {
		return nil, domain.ErrLoginRequired
	}
	generation := s.session.Generation()

	orders, err := s.api.ListOrders(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.session.Generation() != generation {
		return nil, domain.ErrStale
	}
	return orders, nil
}
