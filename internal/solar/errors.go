package solar

import "errors"

// ErrLookup indicates the sunrise/sunset lookup failed. The failure is
// recoverable: nothing is cached and the next call retries the fetch.
// Use errors.Is() to check for it; the wrapped error carries the cause.
var ErrLookup = errors.New("solar: lookup failed")
