package networth

import (
	"github.com/rs/zerolog"

	"github.com/hvdmeer/networth/date"
)

// Equity transaction types, as produced by the broker export.
const (
	Buying     = "BUYING"
	Selling    = "SELLING"
	StockSplit = "STOCK_SPLIT"
	DividendTx = "DIVIDEND"
)

// EquityRow is one transaction of the equity/fund transaction table.
// For STOCK_SPLIT rows the Quantity column carries the split ratio.
type EquityRow struct {
	Date     date.Date
	ISIN     string
	Type     string
	Quantity Quantity
	Price    float64
	Currency string // quote currency of Price; empty means EUR
	Fees     float64
	Taxes    float64
}

// AssetPosition tracks the running state of a single ISIN. Fees, taxes and
// dividends only accumulate; they never flow into quantity or principal.
type AssetPosition struct {
	ISIN      string
	Quantity  Quantity
	Principal float64 // EUR cost basis, weighted average
	Fees      float64
	Taxes     float64
	Dividends float64 // gross dividends, EUR
}

func (a *AssetPosition) buy(qty Quantity, price, rate, fees, taxes float64) {
	a.Quantity = a.Quantity.Add(qty)
	a.Principal += qty.Float64() * price * rate
	a.Fees += fees
	a.Taxes += taxes
}

func (a *AssetPosition) sell(qty Quantity, price, rate, fees, taxes float64) {
	a.Quantity = a.Quantity.Sub(qty)
	a.Principal -= qty.Float64() * price * rate
	a.Fees += fees
	a.Taxes += taxes
}

func (a *AssetPosition) split(ratio Quantity) {
	a.Quantity = a.Quantity.Mul(ratio)
}

func (a *AssetPosition) dividend(amount, taxes float64) {
	a.Dividends += amount
	a.Taxes += taxes
}

// snapshot freezes the position into a history row.
func (a *AssetPosition) snapshot(on date.Date) EquitySnapshot {
	return EquitySnapshot{
		Date:      on,
		ISIN:      a.ISIN,
		Quantity:  a.Quantity.Round(6),
		Principal: roundCents(a.Principal),
		Fees:      roundCents(a.Fees),
		Taxes:     roundCents(a.Taxes),
		Dividends: roundCents(a.Dividends),
	}
}

// EquitySnapshot is one point-in-time record of the output table.
type EquitySnapshot struct {
	Date      date.Date
	ISIN      string
	Quantity  Quantity
	Principal float64
	Fees      float64
	Taxes     float64
	Dividends float64
}

// EquityTracker replays the equity transaction table in chronological order
// and accumulates per-ISIN snapshots. It owns its positions and history for
// the duration of one run; replay is strictly sequential because running
// balances and as-of pricing depend on transaction order.
type EquityTracker struct {
	resolver  *Resolver
	positions map[string]*AssetPosition
	history   []EquitySnapshot
	log       zerolog.Logger
}

// NewEquityTracker creates a tracker converting foreign amounts with resolver.
func NewEquityTracker(resolver *Resolver, logger zerolog.Logger) *EquityTracker {
	return &EquityTracker{
		resolver:  resolver,
		positions: make(map[string]*AssetPosition),
		log:       logger.With().Str("component", "equity-tracker").Logger(),
	}
}

// position returns the running position for an ISIN, creating it lazily.
func (t *EquityTracker) position(isin string) *AssetPosition {
	pos, ok := t.positions[isin]
	if !ok {
		pos = &AssetPosition{ISIN: isin}
		t.positions[isin] = pos
	}
	return pos
}

// Position returns the current running position for an ISIN, or nil.
func (t *EquityTracker) Position(isin string) *AssetPosition { return t.positions[isin] }

// History returns the snapshot table accumulated so far. The slice is owned
// by the tracker: a later STOCK_SPLIT may still rewrite it in place.
func (t *EquityTracker) History() []EquitySnapshot { return t.history }

// Replay processes rows one at a time. Rows must be pre-sorted by (date,
// ISIN). Only a missing forex series aborts the replay; anything else is
// logged and skipped.
func (t *EquityTracker) Replay(rows []EquityRow) error {
	for _, row := range rows {
		if err := t.Process(row); err != nil {
			return err
		}
	}
	return nil
}

// Process applies one transaction to the running state and appends or
// overwrites one snapshot row.
func (t *EquityTracker) Process(row EquityRow) error {
	pos := t.position(row.ISIN)

	switch row.Type {
	case Buying:
		rate, err := t.resolver.ForexRate(row.Currency, row.Date)
		if err != nil {
			return err
		}
		pos.buy(row.Quantity, row.Price, rate, row.Fees, row.Taxes)

	case Selling:
		rate, err := t.resolver.ForexRate(row.Currency, row.Date)
		if err != nil {
			return err
		}
		pos.sell(row.Quantity, row.Price, rate, row.Fees, row.Taxes)

	case StockSplit:
		ratio := row.Quantity
		pos.split(ratio)
		// The split applies retroactively: every snapshot already emitted
		// for this ISIN gets its quantity rewritten in place. This is the
		// single exception to append-only history.
		for i := range t.history {
			if t.history[i].ISIN == row.ISIN {
				t.history[i].Quantity = t.history[i].Quantity.Mul(ratio)
			}
		}

	case DividendTx:
		rate, err := t.resolver.ForexRate(row.Currency, row.Date)
		if err != nil {
			return err
		}
		pos.dividend(row.Quantity.Float64()*row.Price*rate, row.Taxes)

	default:
		t.log.Warn().
			Str("isin", row.ISIN).
			Str("type", row.Type).
			Stringer("on", row.Date).
			Msg("unrecognized transaction type, row skipped")
		return nil
	}

	t.record(pos.snapshot(row.Date))
	return nil
}

// record appends the snapshot, unless the immediately preceding history row
// is for the same (ISIN, date): several transactions of one asset on one day
// collapse into a single end-of-day row (last write wins).
func (t *EquityTracker) record(s EquitySnapshot) {
	if n := len(t.history); n > 0 {
		last := &t.history[n-1]
		if last.ISIN == s.ISIN && last.Date == s.Date {
			*last = s
			return
		}
	}
	t.history = append(t.history, s)
}
