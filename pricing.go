package networth

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/hvdmeer/networth/date"
)

// stablecoins trade so close to their peg that fetching a feed for them is
// pointless; the resolver short-circuits them to a synthetic constant series.
var stablecoins = map[string]struct{}{
	"USDC": {},
	"USDT": {},
	"DAI":  {},
	"BUSD": {},
	"TUSD": {},
	"LUSD": {},
}

// stableEpoch is the start of the synthetic stablecoin series, safely before
// any transaction this engine will ever replay.
var stableEpoch = date.New(2009, time.January, 3)

// Resolver answers "what was this asset worth on that day" questions with
// as-of semantics: the latest known price at or before the requested date,
// carried forward flat, never interpolated and never future-looking.
//
// Series are CSV files named "<identifier>.csv" in the files tree and are
// loaded and memoized on first use. The resolver is confined to the
// single-threaded replay loop, so the cache needs no locking.
type Resolver struct {
	files  fs.FS
	meta   Metadata
	series map[string]*date.History[float64]
	absent map[string]struct{} // identifiers known to have no usable series
	log    zerolog.Logger
}

// NewResolver creates a resolver reading price series from files.
func NewResolver(files fs.FS, meta Metadata, logger zerolog.Logger) *Resolver {
	return &Resolver{
		files:  files,
		meta:   meta,
		series: make(map[string]*date.History[float64]),
		absent: make(map[string]struct{}),
		log:    logger.With().Str("component", "resolver").Logger(),
	}
}

// Inject preloads a series for an identifier, bypassing the file tree.
func (r *Resolver) Inject(identifier string, h *date.History[float64]) {
	r.series[identifier] = h
}

// load returns the memoized series for an identifier, reading its CSV file
// on first use. A wholly absent series is ErrMissingPriceData; the absence is
// memoized too, so repeated lookups of a feedless identifier do not reopen
// the file on every transaction of a batch.
func (r *Resolver) load(identifier string) (*date.History[float64], error) {
	if h, ok := r.series[identifier]; ok {
		return h, nil
	}
	if _, ok := r.absent[identifier]; ok {
		return nil, fmt.Errorf("%w: no price series for %q", ErrMissingPriceData, identifier)
	}
	f, err := r.files.Open(identifier + ".csv")
	if err != nil {
		r.absent[identifier] = struct{}{}
		return nil, fmt.Errorf("%w: no price series for %q", ErrMissingPriceData, identifier)
	}
	defer f.Close()

	h, err := decodePriceSeries(identifier, f, r.log)
	if err != nil {
		if errors.Is(err, ErrMissingPriceData) {
			r.absent[identifier] = struct{}{}
		}
		return nil, fmt.Errorf("could not read price series for %q: %w", identifier, err)
	}
	r.series[identifier] = h
	return h, nil
}

// decodePriceSeries reads a Date,Price CSV document. The source files are
// written newest-first; History keeps them sorted regardless of input order.
func decodePriceSeries(identifier string, src io.Reader, log zerolog.Logger) (*date.History[float64], error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1

	h := &date.History[float64]{}
	header := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 2 {
			continue
		}
		on, err := date.Parse(rec[0])
		if err != nil {
			log.Warn().Str("asset", identifier).Str("row", rec[0]).Msg("skipping price row with invalid date")
			continue
		}
		price, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			log.Warn().Str("asset", identifier).Str("row", rec[1]).Msg("skipping price row with invalid price")
			continue
		}
		h.Append(on, price)
	}
	if h.Len() == 0 {
		return nil, fmt.Errorf("%w: series for %q is empty", ErrMissingPriceData, identifier)
	}
	return h, nil
}

// asOf resolves the as-of value in a series, falling back to the oldest
// known price when the date precedes all observations.
func (r *Resolver) asOf(identifier string, h *date.History[float64], on date.Date) float64 {
	if v, ok := h.AsOf(on); ok {
		return v
	}
	first, v := h.First()
	r.log.Warn().
		Str("asset", identifier).
		Stringer("on", on).
		Stringer("oldest", first).
		Msg("no price on or before date, using oldest known price")
	return v
}

// PriceAt returns the as-of price of an asset in its own quote currency.
// A wholly absent series is fatal (ErrMissingPriceData).
func (r *Resolver) PriceAt(identifier string, on date.Date) (float64, error) {
	h, err := r.load(identifier)
	if err != nil {
		return 0, err
	}
	return r.asOf(identifier, h, on), nil
}

// ForexRate returns the EUR value of one unit of currency on the given day.
// EUR (and an unset currency) short-circuits to 1.0 without touching files.
// A missing forex series is fatal: defaulting to 1.0 here would silently
// corrupt the cost basis of every later transaction in that currency.
func (r *Resolver) ForexRate(currency string, on date.Date) (float64, error) {
	if currency == "" || currency == "EUR" {
		return 1.0, nil
	}
	h, err := r.load(currency)
	if err != nil {
		return 0, err
	}
	return r.asOf(currency, h, on), nil
}

// CryptoPrice returns the EUR value of one unit of a coin on the given day.
//
// The series consulted is the coin's metadata price source (a staked token
// reuses its underlying's feed). Known stablecoins use a synthetic constant
// series of 1.0. A coin with no feed at all degrades to 0.0 with a warning:
// a zero valuation is directionally safer than aborting the whole batch.
// The raw price is converted to EUR with the forex rate of the coin's quote
// currency; only that forex series may make the lookup fail.
func (r *Resolver) CryptoPrice(coin string, on date.Date) (float64, error) {
	source := r.meta.PriceSource(coin)

	var raw float64
	if _, stable := stablecoins[source]; stable {
		raw = 1.0
		if _, ok := r.series[source]; !ok {
			h := &date.History[float64]{}
			h.Append(stableEpoch, 1.0)
			r.series[source] = h
		}
	} else {
		if _, down := r.absent[source]; down {
			// Absence already detected and warned about on first lookup.
			return 0, nil
		}
		h, err := r.load(source)
		if errors.Is(err, ErrMissingPriceData) {
			r.log.Warn().Str("coin", coin).Str("source", source).Msg("no price feed, valuing at 0.0")
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		raw = r.asOf(source, h, on)
	}

	forex, err := r.ForexRate(r.meta.Currency(coin), on)
	if err != nil {
		return 0, err
	}
	return raw * forex, nil
}
