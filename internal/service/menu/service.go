package menu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"goeats/internal/domain"
	"goeats/internal/service/cart"
)

type menuAPI interface {
	Menu(ctx context.Context) ([]domain.MenuItem, error)
	AddCartItem(ctx context.Context, token, menuID string, quantity int) error
	ReviewsByMenu(ctx context.Context, token, menuID string) ([]domain.Review, error)
}

type cartStore interface {
	AddItem(in cart.AddItemInput) (domain.LineItem, error)
}

type sessionStore interface {
	Credential() string
}

// Service serves the menu page: listing, search and add-to-cart.
type Service struct {
	api     menuAPI
	cart    cartStore
	session sessionStore
	log     *slog.Logger

	mu    sync.Mutex
	known map[string]domain.MenuItem // last fetched menu, by id
}

func New(api menuAPI, items cartStore, session sessionStore, logger *slog.Logger) *Service {
	return &Service{api: api, cart: items, session: session, log: logger, known: map[string]domain.MenuItem{}}
}

// List fetches the menu and keeps the items whose name or description
// contains query, case-insensitively. An empty query keeps everything.
func (s *Service) List(ctx context.Context, query string) ([]domain.MenuItem, error) {
	items, err := s.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch menu: %w", err)
	}
	return Filter(items, query), nil
}

func (s *Service) fetch(ctx context.Context) ([]domain.MenuItem, error) {
	items, err := s.api.Menu(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.known = make(map[string]domain.MenuItem, len(items))
	for _, item := range items {
		s.known[item.ID] = item
	}
	s.mu.Unlock()
	return items, nil
}

// lookup finds id in a fresh menu, or in the last fetched one when the
// fetch fails.
func (s *Service) lookup(ctx context.Context, id string, log *slog.Logger) (domain.MenuItem, error) {
	items, err := s.fetch(ctx)
	if err == nil {
		for _, item := range items {
			if item.ID == id {
				return item, nil
			}
		}
		return domain.MenuItem{}, domain.ErrNotFound
	}

	s.mu.Lock()
	item, ok := s.known[id]
	s.mu.Unlock()
	if !ok {
		return domain.MenuItem{}, fmt.Errorf("fetch menu: %w", err)
	}
	log.Warn("menu fetch failed, using last known item", slog.String("error", err.Error()))
	return item, nil
}

func Filter(items []domain.MenuItem, query string) []domain.MenuItem {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.MenuItem, 0, len(items))
	for _, item := range items {
		if q == "" ||
			strings.Contains(strings.ToLower(item.Name), q) ||
			strings.Contains(strings.ToLower(item.Description), q) {
			out = append(out, item)
		}
	}
	return out
}

// AddToCart requires a session, mirrors the add on the server and then adds
// the item locally. A failed mirror falls back to the local cart only, and a
// failed menu fetch falls back to the item as last listed.
func (s *Service) AddToCart(ctx context.Context, menuItemID string, quantity int) (domain.LineItem, error) {
	const op = "menu.Service.AddToCart"
	log := s.log.With(slog.String("op", op), slog.String("menu_id", menuItemID))

	token := s.session.Credential()
	if token == "" {
		return domain.LineItem{}, domain.ErrLoginRequired
	}
	if quantity < 1 {
		return domain.LineItem{}, fmt.Errorf("%w: quantity must be positive", cart.ErrInvalidItem)
	}

	item, err := s.lookup(ctx, menuItemID, log)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.api.AddCartItem(ctx, token, item.ID, quantity); err != nil {
		log.Warn("server cart mirror failed, keeping item locally", slog.String("error", err.Error()))
	}

	return s.cart.AddItem(cart.AddItemInput{
		MenuItemID: item.ID,
		Name:       item.Name,
		UnitPrice:  item.Price,
		Quantity:   quantity,
		ImageRef:   item.Image,
	})
}

// Reviews lists the reviews of one menu item, authenticated when possible.
func (s *Service) Reviews(ctx context.Context, menuItemID string) ([]domain.Review, error) {
	reviews, err := s.api.ReviewsByMenu(ctx, s.session.Credential(), menuItemID)
	if err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}
	return reviews, nil
}
