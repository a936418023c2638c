package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"goeats/internal/domain"
	"goeats/internal/repository/state"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidItem is returned when AddItem receives a non-positive quantity,
// a negative price or no menu item id.
var ErrInvalidItem = errors.New("invalid cart item")

var validate = validator.New()

type stateRepo interface {
	ReadRaw(key string) (string, bool, error)
	WriteRaw(key, value string) error
	EraseRaw(key string) error
}

// Store owns the cart line items. Every mutation builds the next item list,
// writes it to the repository and only then swaps it in, so memory and
// storage never disagree after a failed write.
type Store struct {
	mu    sync.Mutex
	repo  stateRepo
	log   *slog.Logger
	items []domain.LineItem
	index map[string]int
	newID func() string
}

// AddItemInput describes one add-to-cart request.
type AddItemInput struct {
	MenuItemID string          `json:"menu_id" validate:"required"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity" validate:"gte=1"`
	ImageRef   string          `json:"image,omitempty"`
}

// Snapshot is a read-only view of the cart with its derived totals.
type Snapshot struct {
	Items          []domain.LineItem `json:"items"`
	TotalItemCount int               `json:"totalItems"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
}

// New rehydrates the cart from repo. A stored value that does not parse is
// erased and the cart starts empty.
func New(repo stateRepo, logger *slog.Logger) (*Store, error) {
	s := &Store{
		repo:  repo,
		log:   logger.With(slog.String("component", "cart")),
		index: map[string]int{},
		newID: func() string { return uuid.NewString() },
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	raw, ok, err := s.repo.ReadRaw(state.KeyCartItems)
	if err != nil {
		return fmt.Errorf("read cart: %w", err)
	}
	if !ok {
		return nil
	}
	var stored []domain.LineItem
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.log.Warn("discarding unreadable cart", slog.String("error", err.Error()))
		if err := s.repo.EraseRaw(state.KeyCartItems); err != nil {
			return fmt.Errorf("erase corrupt cart: %w", err)
		}
		return nil
	}
	s.items = s.normalize(stored)
	s.reindex()
	return nil
}

// normalize restores the one-line-per-menu-item invariant on data that was
// written by something other than this Store.
func (s *Store) normalize(in []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(in))
	seen := make(map[string]int, len(in))
	for _, item := range in {
		if strings.TrimSpace(item.MenuItemID) == "" || item.Quantity <= 0 {
			continue
		}
		if pos, ok := seen[item.MenuItemID]; ok {
			out[pos].Quantity += item.Quantity
			continue
		}
		if item.ID == "" {
			item.ID = s.newID()
		}
		seen[item.MenuItemID] = len(out)
		out = append(out, item)
	}
	return out
}

// AddItem merges by menu item id: an existing line only accumulates quantity,
// its name, price and image stay as first written.
func (s *Store) AddItem(in AddItemInput) (domain.LineItem, error) {
	if err := validate.Struct(in); err != nil {
		return domain.LineItem{}, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	if in.UnitPrice.IsNegative() {
		return domain.LineItem{}, fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneItems()
	var line domain.LineItem
	if pos, ok := s.index[in.MenuItemID]; ok {
		next[pos].Quantity += in.Quantity
		line = next[pos]
	} else {
		line = domain.LineItem{
			ID:         s.newID(),
			MenuItemID: in.MenuItemID,
			Name:       in.Name,
			UnitPrice:  in.UnitPrice,
			Quantity:   in.Quantity,
			ImageRef:   in.ImageRef,
		}
		next = append(next, line)
	}
	if err := s.commit(next); err != nil {
		return domain.LineItem{}, err
	}
	return line, nil
}

// RemoveItem drops the line for menuItemID. Missing items are not an error.
func (s *Store) RemoveItem(menuItemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(menuItemID)
}

func (s *Store) remove(menuItemID string) error {
	pos, ok := s.index[menuItemID]
	if !ok {
		return nil
	}
	next := make([]domain.LineItem, 0, len(s.items)-1)
	next = append(next, s.items[:pos]...)
	next = append(next, s.items[pos+1:]...)
	return s.commit(next)
}

// SetQuantity replaces the quantity of an existing line. quantity <= 0 removes it.
func (s *Store) SetQuantity(menuItemID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.remove(menuItemID)
	}
	pos, ok := s.index[menuItemID]
	if !ok {
		return nil
	}
	next := s.cloneItems()
	next[pos].Quantity = quantity
	return s.commit(next)
}

// Clear empties the cart.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit([]domain.LineItem{})
}

// Deduct takes the quantities of ordered out of the cart. Lines that drop to
// zero are removed; quantity added after ordered was taken stays. With an
// unchanged cart this is Clear.
func (s *Store) Deduct(ordered []domain.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	take := make(map[string]int, len(ordered))
	for _, item := range ordered {
		take[item.MenuItemID] += item.Quantity
	}
	next := make([]domain.LineItem, 0, len(s.items))
	changed := false
	for _, item := range s.items {
		if n, ok := take[item.MenuItemID]; ok && n > 0 {
			item.Quantity -= n
			changed = true
		}
		if item.Quantity > 0 {
			next = append(next, item)
		}
	}
	if !changed {
		return nil
	}
	return s.commit(next)
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneItems()
}

func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalCount(s.items)
}

func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return subtotal(s.items)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Snapshot returns items and totals computed under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Items:          s.cloneItems(),
		TotalItemCount: totalCount(s.items),
		Subtotal:       subtotal(s.items),
	}
}

func (s *Store) commit(next []domain.LineItem) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.repo.WriteRaw(state.KeyCartItems, string(raw)); err != nil {
		s.log.Error("persist cart failed", slog.String("error", err.Error()))
		return fmt.Errorf("persist cart: %w", err)
	}
	s.items = next
	s.reindex()
	return nil
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.items))
	for i, item := range s.items {
		s.index[item.MenuItemID] = i
	}
}

func (s *Store) cloneItems() []domain.LineItem {
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func totalCount(items []domain.LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func subtotal(items []domain.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}
