package service

import "errors"

var (
	// ErrEmptyURL: nothing submitted. User-correctable, never a 5xx.
	ErrEmptyURL = errors.New("empty url")
	// ErrInvalidURL: not an absolute http(s) URL. User-correctable.
	ErrInvalidURL = errors.New("invalid url")
	// ErrNotFound: no record for the requested short code.
	ErrNotFound = errors.New("not found")
	// ErrGenerationExhausted: every generated code collided. Fatal for the
	// request, reported as a server error.
	ErrGenerationExhausted = errors.New("could not generate a unique short code")
	// ErrStoreUnavailable wraps connectivity/timeout failures of the store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsUserError reports whether err should surface as a form/JSON error
// rather than a server error.
func IsUserError(err error) bool {
	return errors.Is(err, ErrEmptyURL) || errors.Is(err, ErrInvalidURL)
}
