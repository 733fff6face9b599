package shared

import "errors"

var (
	// ErrCSRFTokenMissing means the request or session carried no token.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch means the posted token was not issued for this session.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
	// ErrNoSession is returned when a request reaches session-bound code
	// without a loaded UI session.
	ErrNoSession = errors.New("ui session missing")
)
