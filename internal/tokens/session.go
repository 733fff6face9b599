package tokens

import (
	"context"
	"sync"
)

// State is the session lifecycle position.
type State int

const (
	// Anonymous has no usable tokens.
	Anonymous State = iota
	// AuthenticatedNoCompany has tokens but no active tenant claim.
	AuthenticatedNoCompany
	// AuthenticatedWithCompany has tokens scoped to a tenant.
	AuthenticatedWithCompany
)

func (s State) String() string {
	switch s {
	case AuthenticatedNoCompany:
		return "authenticated"
	case AuthenticatedWithCompany:
		return "authenticated_company"
	default:
		return "anonymous"
	}
}

// Snapshot is an immutable view of a Session.
type Snapshot struct {
	AccessToken  string
	RefreshToken string
	Claims       Claims
}

// Session is the request-scoped token holder. It is safe for concurrent use.
type Session struct {
	mu          sync.RWMutex
	access      string
	refresh     string
	claims      Claims
	notifyMu    sync.Mutex
	nextID      int
	subscribers map[int]func(Snapshot)
}

// NewSession returns a Session seeded with the given tokens.
func NewSession(access, refresh string) *Session {
	s := &Session{subscribers: make(map[int]func(Snapshot))}
	s.set(access, refresh)
	return s
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// Claims returns the decoded claims of the current access token.
func (s *Session) Claims() Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims
}

// Snapshot returns the current tokens and claims.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{AccessToken: s.access, RefreshToken: s.refresh, Claims: s.claims}
}

// State reports the lifecycle position of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.access == "" && s.refresh == "" {
		return Anonymous
	}
	if s.claims.HasCompany() {
		return AuthenticatedWithCompany
	}
	return AuthenticatedNoCompany
}

// Update replaces the token pair wholesale and notifies subscribers.
func (s *Session) Update(pair Pair) {
	s.set(pair.AccessToken, pair.RefreshToken)
	s.notify()
}

// Clear drops both tokens and notifies subscribers.
func (s *Session) Clear() {
	s.set("", "")
	s.notify()
}

// Subscribe registers fn to run after every Update or Clear. The returned
// function removes the subscription.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.subscribers, id)
	}
}

// Detached copies the current tokens into a new Session without subscribers.
func (s *Session) Detached() *Session {
	snap := s.Snapshot()
	return NewSession(snap.AccessToken, snap.RefreshToken)
}

func (s *Session) set(access, refresh string) {
	claims, _ := ClaimsOf(access)
	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.claims = claims
	s.mu.Unlock()
}

func (s *Session) notify() {
	snap := s.Snapshot()
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for _, fn := range s.subscribers {
		fn(snap)
	}
}

type sessionContextKey struct{}

// ContextWithSession stores the token session in ctx.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// FromContext returns the token session or an anonymous one.
func FromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(sessionContextKey{}).(*Session); ok && sess != nil {
		return sess
	}
	return NewSession("", "")
}
