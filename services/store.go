package services

import (
	"sort"
	"sync"

	"campus-canteen/models"
)

type EventKind string

const (
	EventCartAdded       EventKind = "cart_added"
	EventCartRemoved     EventKind = "cart_removed"
	EventCartSet         EventKind = "cart_set"
	EventCartCleared     EventKind = "cart_cleared"
	EventFavoriteAdded   EventKind = "favorite_added"
	EventFavoriteRemoved EventKind = "favorite_removed"
	EventRestored        EventKind = "restored"
)

// Event describes a committed mutation. Quantity is the line quantity after the
// change (0 once the line is gone).
type Event struct {
	Kind     EventKind
	ItemID   string
	Quantity int
	Favorite bool
}

type Listener func(Event)

// Snapshot is a copy of the store contents, used for persistence.
type Snapshot struct {
	Lines     []models.CartLine
	Favorites []string
}

// Store holds one session's cart and favorites. It is the only owner of that
// state; view layers read it through the query methods and change it through the
// mutators, which notify every subscriber after the change is committed.
type Store struct {
	mu        sync.Mutex
	lines     map[string]*models.CartLine
	order     []string // item ids in the order they were first added
	favorites map[string]struct{}

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

func NewStore() *Store {
	return &Store{
		lines:     make(map[string]*models.CartLine),
		favorites: make(map[string]struct{}),
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers l for every future event and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Store) publish(e Event) {
	s.listenersMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	ls := make([]Listener, 0, len(ids))
	for _, id := range ids {
		ls = append(ls, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, l := range ls {
		l(e)
	}
}

// AddToCart adds one unit of item. The first add captures name, price and category.
func (s *Store) AddToCart(item models.MenuItem) {
	s.mu.Lock()
	line, ok := s.lines[item.ID]
	if ok {
		line.Quantity++
	} else {
		line = &models.CartLine{
			ItemID:   item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Category: item.Category,
			Quantity: 1,
		}
		s.lines[item.ID] = line
		s.order = append(s.order, item.ID)
	}
	qty := line.Quantity
	s.mu.Unlock()

	s.publish(Event{Kind: EventCartAdded, ItemID: item.ID, Quantity: qty})
}

// RemoveFromCart removes one unit of the item. A line reaching zero is dropped.
// Removing an item that is not in the cart does nothing.
func (s *Store) RemoveFromCart(itemID string) {
	s.mu.Lock()
	line, ok := s.lines[itemID]
	if !ok {
		s.mu.Unlock()
		return
	}
	line.Quantity--
	qty := line.Quantity
	if qty <= 0 {
		s.dropLocked(itemID)
		qty = 0
	}
	s.mu.Unlock()

	s.publish(Event{Kind: EventCartRemoved, ItemID: itemID, Quantity: qty})
}

// SetCartQuantity sets the line for item to qty units. qty <= 0 removes the line.
// An existing line keeps the price captured when it was first added.
func (s *Store) SetCartQuantity(item models.MenuItem, qty int) {
	s.mu.Lock()
	line, ok := s.lines[item.ID]
	switch {
	case qty <= 0 && !ok:
		s.mu.Unlock()
		return
	case qty <= 0:
		s.dropLocked(item.ID)
		qty = 0
	case ok:
		if line.Quantity == qty {
			s.mu.Unlock()
			return
		}
		line.Quantity = qty
	default:
		s.lines[item.ID] = &models.CartLine{
			ItemID:   item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Category: item.Category,
			Quantity: qty,
		}
		s.order = append(s.order, item.ID)
	}
	s.mu.Unlock()

	s.publish(Event{Kind: EventCartSet, ItemID: item.ID, Quantity: qty})
}

func (s *Store) dropLocked(itemID string) {
	delete(s.lines, itemID)
	for i, id := range s.order {
		if id == itemID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Clear empties the cart. Favorites are kept.
func (s *Store) Clear() {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.mu.Unlock()
		return
	}
	s.lines = make(map[string]*models.CartLine)
	s.order = nil
	s.mu.Unlock()

	s.publish(Event{Kind: EventCartCleared})
}

// ToggleFavorite flips the favorite flag of item and returns the new value.
func (s *Store) ToggleFavorite(item models.MenuItem) bool {
	s.mu.Lock()
	_, fav := s.favorites[item.ID]
	if fav {
		delete(s.favorites, item.ID)
	} else {
		s.favorites[item.ID] = struct{}{}
	}
	s.mu.Unlock()

	if fav {
		s.publish(Event{Kind: EventFavoriteRemoved, ItemID: item.ID})
		return false
	}
	s.publish(Event{Kind: EventFavoriteAdded, ItemID: item.ID, Favorite: true})
	return true
}

func (s *Store) IsFavorite(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.favorites[itemID]
	return ok
}

// Favorites returns the favorited item ids, sorted.
func (s *Store) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.favorites))
	for id := range s.favorites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) CartQuantity(itemID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line, ok := s.lines[itemID]; ok {
		return line.Quantity
	}
	return 0
}

// CartTotal is the sum of add-time price times quantity over all lines.
func (s *Store) CartTotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, line := range s.lines {
		total += line.Subtotal()
	}
	return total
}

// ItemCount is the number of units in the cart (the cart badge).
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, line := range s.lines {
		n += line.Quantity
	}
	return n
}

// Lines returns copies of the cart lines in the order they were first added.
func (s *Store) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesLocked()
}

func (s *Store) linesLocked() []models.CartLine {
	out := make([]models.CartLine, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.lines[id])
	}
	return out
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	favs := make([]string, 0, len(s.favorites))
	for id := range s.favorites {
		favs = append(favs, id)
	}
	sort.Strings(favs)
	return Snapshot{Lines: s.linesLocked(), Favorites: favs}
}

// Restore replaces the store contents with snap. Lines with a non-positive
// quantity are dropped, repeated item ids are merged into the first line and
// duplicate favorites are collapsed.
func (s *Store) Restore(snap Snapshot) {
	lines := make(map[string]*models.CartLine, len(snap.Lines))
	var order []string
	for _, l := range snap.Lines {
		if l.Quantity <= 0 || l.ItemID == "" {
			continue
		}
		if existing, ok := lines[l.ItemID]; ok {
			existing.Quantity += l.Quantity
			continue
		}
		line := l
		lines[l.ItemID] = &line
		order = append(order, l.ItemID)
	}
	favorites := make(map[string]struct{}, len(snap.Favorites))
	for _, id := range snap.Favorites {
		if id != "" {
			favorites[id] = struct{}{}
		}
	}

	s.mu.Lock()
	s.lines = lines
	s.order = order
	s.favorites = favorites
	s.mu.Unlock()

	s.publish(Event{Kind: EventRestored})
}
