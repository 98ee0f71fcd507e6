package networth

import "errors"

// ErrMissingPriceData reports that a required price or forex series is
// wholly absent. It is the only fatal condition of a replay run: continuing
// with a default rate would silently corrupt every subsequent principal for
// that currency or asset, so callers must abort.
//
// The recoverable conditions (as-of lookup before the first observation,
// unrecognized transaction type, malformed row) are logged by the component
// that detects them and never surface as errors.
var ErrMissingPriceData = errors.New("missing price data")
