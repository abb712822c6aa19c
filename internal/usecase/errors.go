package usecase

import crerr "github.com/cockroachdb/errors"

var (
	// ErrInvalidInput marks request validation failures; maps to 400.
	ErrInvalidInput = crerr.New("invalid input")
	// ErrNotFound marks lookups for rows that do not exist; maps to 404.
	ErrNotFound = crerr.New("not found")
	// ErrUnauthorized marks missing or wrong credentials; maps to 401.
	ErrUnauthorized = crerr.New("unauthorized")
	// ErrDependencyUnavailable marks upstream outages (draft API, push
	// service, database); maps to 503.
	ErrDependencyUnavailable = crerr.New("dependency unavailable")
)
