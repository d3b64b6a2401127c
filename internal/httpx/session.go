package httpx

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jcmexdev/profitus-pos/internal/cart"
)

// session pairs a cart with its own lock. Cart is not safe for concurrent
// use, so every handler mutation happens under the session's mutex.
type session struct {
	mu   sync.Mutex
	cart *cart.Cart
}

// Sessions is the registry of open carts, keyed by an opaque session ID
// handed to the client at creation time.
type Sessions struct {
	mu    sync.Mutex
	carts map[string]*session
}

func NewSessions() *Sessions {
	return &Sessions{carts: make(map[string]*session)}
}

// Create opens a fresh empty cart and returns its ID.
func (s *Sessions) Create() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.carts[id] = &session{cart: cart.New()}
	s.mu.Unlock()
	return id
}

// With runs fn with exclusive access to the session's cart. Returns false
// if the session does not exist.
func (s *Sessions) With(id string, fn func(*cart.Cart) error) (bool, error) {
	s.mu.Lock()
	sess, ok := s.carts[id]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return true, fn(sess.cart)
}

// Drop discards a session after checkout or abandonment.
func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	delete(s.carts, id)
	s.mu.Unlock()
}
