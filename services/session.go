package services

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"campus-canteen/logger"
	"campus-canteen/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidQuantity = errors.New("quantity must be a whole number")
)

// ParseQuantity parses a requested cart quantity. Any integer is accepted;
// SetCartQuantity treats values <= 0 as removal.
func ParseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidQuantity
	}
	return n, nil
}

// Session is one user's cart and favorites plus the filters their view last used.
type Session struct {
	ID    string
	Store *Store

	mu      sync.RWMutex
	filters models.FilterState
}

func (s *Session) Filters() models.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

func (s *Session) SetFilters(f models.FilterState) models.FilterState {
	f = NormalizeFilters(f)
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
	return f
}

// AddByID adds one unit of the catalog item with the given id. Ids missing from
// the catalog still get an identifier-only line.
func (s *Session) AddByID(c *Catalog, itemID string) {
	item, ok := c.Get(itemID)
	if !ok {
		item = models.MenuItem{ID: itemID}
	}
	s.Store.AddToCart(item)
}

// SetQuantityByID sets the quantity of an item resolved through the catalog.
func (s *Session) SetQuantityByID(c *Catalog, itemID string, qty int) {
	item, ok := c.Get(itemID)
	if !ok {
		item = models.MenuItem{ID: itemID}
	}
	s.Store.SetCartQuantity(item, qty)
}

// ToggleFavoriteByID toggles the favorite flag. Only the id is needed.
func (s *Session) ToggleFavoriteByID(itemID string) bool {
	return s.Store.ToggleFavorite(models.MenuItem{ID: itemID})
}

// Observer is told about every session the manager opens and closes.
type Observer interface {
	SessionOpened(s *Session)
	SessionClosed(s *Session)
}

type SessionManager struct {
	repo         CartRepository
	observer     Observer
	priceCeiling int64

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	*Session
	unsubscribe func()
}

type SessionOption func(*SessionManager)

// WithRepository persists every session cart through repo.
func WithRepository(repo CartRepository) SessionOption {
	return func(m *SessionManager) { m.repo = repo }
}

func WithObserver(o Observer) SessionOption {
	return func(m *SessionManager) { m.observer = o }
}

func NewSessionManager(priceCeiling int64, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		priceCeiling: priceCeiling,
		sessions:     make(map[string]*session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create opens a session with a fresh random id.
func (m *SessionManager) Create(ctx context.Context) (*Session, error) {
	return m.GetOrCreate(ctx, uuid.NewString())
}

func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Session, nil
}

// GetOrCreate returns the open session with this id, opening it (and restoring its stored
// cart) when needed. The stored cart is loaded without holding the manager lock.
func (m *SessionManager) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, errors.New("session id is required")
	}
	if s, err := m.Get(id); err == nil {
		return s, nil
	}

	sess := &Session{ID: id, Store: NewStore()}
	sess.filters = DefaultFilters(m.priceCeiling)
	if m.repo != nil {
		cart, err := m.repo.Load(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "restore session %s", id)
		}
		sess.Store.Restore(cart.Snapshot())
	}
	// the observer sees the session before End can reach it
	if m.observer != nil {
		m.observer.SessionOpened(sess)
	}

	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		if m.observer != nil {
			m.observer.SessionClosed(sess)
		}
		return existing.Session, nil
	}
	entry := &session{Session: sess, unsubscribe: func() {}}
	if m.repo != nil {
		entry.unsubscribe = sess.Store.Subscribe(m.saver(sess))
	}
	m.sessions[id] = entry
	m.mu.Unlock()
	return sess, nil
}

// saver persists the session after every event. Saves run one at a time and
// each one snapshots the store only once it holds the lock, so a slow save can
// never overwrite a newer cart.
func (m *SessionManager) saver(sess *Session) Listener {
	log := logger.GetLogger()
	var mu sync.Mutex
	return func(Event) {
		mu.Lock()
		defer mu.Unlock()
		cart := CartFromSnapshot(sess.Store.Snapshot())
		if err := m.repo.Save(context.Background(), sess.ID, cart); err != nil {
			log.Errorf("failed to save cart for session %s: %v", sess.ID, err)
		}
	}
}

// End tears the session down and discards its stored cart.
func (m *SessionManager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.unsubscribe()
	if m.observer != nil {
		m.observer.SessionClosed(s.Session)
	}
	if m.repo != nil {
		return m.repo.Delete(ctx, id)
	}
	return nil
}

func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
