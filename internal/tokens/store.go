// Package tokens keeps the access/refresh token pair in browser cookies and
// exposes a request-scoped Session over it.
package tokens

import (
	"net/http"
	"strings"
	"time"
)

const (
	// AccessCookie holds the short-lived access token.
	AccessCookie = "erp_access_token"
	// RefreshCookie holds the long-lived refresh token.
	RefreshCookie = "erp_refresh_token"

	// AccessTTL matches the backend access token lifetime.
	AccessTTL = 30 * time.Minute
	// RefreshTTL matches the backend refresh token lifetime.
	RefreshTTL = 7 * 24 * time.Hour
)

// Store reads and writes the token cookies.
type Store struct {
	secure bool
	now    func() time.Time
}

// NewStore constructs a Store. secure controls the cookie Secure flag.
func NewStore(secure bool) *Store {
	return &Store{secure: secure, now: time.Now}
}

// Set persists both tokens with their own expirations.
func (s *Store) Set(w http.ResponseWriter, pair Pair) {
	now := s.now()
	dropSetCookie(w.Header(), AccessCookie, RefreshCookie)
	http.SetCookie(w, s.cookie(AccessCookie, pair.AccessToken, now.Add(AccessTTL), int(AccessTTL.Seconds())))
	http.SetCookie(w, s.cookie(RefreshCookie, pair.RefreshToken, now.Add(RefreshTTL), int(RefreshTTL.Seconds())))
}

// Clear removes both cookies.
func (s *Store) Clear(w http.ResponseWriter) {
	dropSetCookie(w.Header(), AccessCookie, RefreshCookie)
	http.SetCookie(w, s.cookie(AccessCookie, "", time.Unix(0, 0), -1))
	http.SetCookie(w, s.cookie(RefreshCookie, "", time.Unix(0, 0), -1))
}

// Access returns the access token or "" when absent.
func (s *Store) Access(r *http.Request) string {
	return cookieValue(r, AccessCookie)
}

// Refresh returns the refresh token or "" when absent.
func (s *Store) Refresh(r *http.Request) string {
	return cookieValue(r, RefreshCookie)
}

// Load builds a Session from the request cookies and subscribes a writer
// that mirrors every later Update or Clear onto w.
func (s *Store) Load(w http.ResponseWriter, r *http.Request) *Session {
	sess := NewSession(s.Access(r), s.Refresh(r))
	sess.Subscribe(func(snap Snapshot) {
		if snap.AccessToken == "" && snap.RefreshToken == "" {
			s.Clear(w)
			return
		}
		s.Set(w, Pair{AccessToken: snap.AccessToken, RefreshToken: snap.RefreshToken})
	})
	return sess
}

func (s *Store) cookie(name, value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// dropSetCookie removes pending Set-Cookie lines for names so a second write
// in the same response replaces the first.
func dropSetCookie(h http.Header, names ...string) {
	existing := h.Values("Set-Cookie")
	if len(existing) == 0 {
		return
	}
	kept := existing[:0:0]
	for _, line := range existing {
		drop := false
		for _, name := range names {
			if strings.HasPrefix(line, name+"=") {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, line)
		}
	}
	h.Del("Set-Cookie")
	for _, line := range kept {
		h.Add("Set-Cookie", line)
	}
}
