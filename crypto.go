package networth

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/hvdmeer/networth/date"
)

// CryptoPosition tracks the running state of a single coin.
//
// Quantity is exact; Principal is the EUR cost basis, a derived monetary
// aggregate where float precision is acceptable. When Family is set, the
// coin's cost basis is owned by that other position: every principal
// mutation is redirected there and the coin's own Principal stays 0 for the
// whole run.
type CryptoPosition struct {
	Coin      string
	Quantity  Quantity
	Principal float64
	Family    string // proxy coin symbol, resolved once at creation
}

// CryptoSnapshot is one point-in-time record of the crypto output table.
type CryptoSnapshot struct {
	Date      date.Date
	Coin      string
	Quantity  Quantity
	Principal float64
}

// CryptoTracker replays the crypto transaction table in chronological order.
// Each row is parsed once into a typed operation, routed, and followed by
// gas fee settlement; every coin touched along the way gets an end-of-day
// snapshot. The tracker owns its positions and history for one run and is
// strictly sequential.
type CryptoTracker struct {
	resolver  *Resolver
	meta      Metadata
	positions map[string]*CryptoPosition
	history   []CryptoSnapshot

	// dayCache maps coin to its history index for the day being processed,
	// so several transactions on one day collapse into one row per coin.
	// It resets whenever the processed date changes.
	dayCache map[string]int
	day      date.Date

	log zerolog.Logger
}

// NewCryptoTracker creates a tracker valuing coins with resolver and
// resolving family and price-source relations from meta.
func NewCryptoTracker(resolver *Resolver, meta Metadata, logger zerolog.Logger) *CryptoTracker {
	return &CryptoTracker{
		resolver:  resolver,
		meta:      meta,
		positions: make(map[string]*CryptoPosition),
		dayCache:  make(map[string]int),
		log:       logger.With().Str("component", "crypto-tracker").Logger(),
	}
}

// History returns the snapshot table accumulated so far.
func (t *CryptoTracker) History() []CryptoSnapshot { return t.history }

// Position returns the current running position for a coin, or nil.
func (t *CryptoTracker) Position(coin string) *CryptoPosition { return t.positions[coin] }

// position returns the running position for a coin, creating it lazily with
// its family relation resolved from the static metadata.
func (t *CryptoTracker) position(coin string) *CryptoPosition {
	pos, ok := t.positions[coin]
	if !ok {
		pos = &CryptoPosition{Coin: coin, Family: t.meta.Family(coin)}
		t.positions[coin] = pos
	}
	return pos
}

// touched collects the coins mutated while processing one row.
type touched map[string]struct{}

func (s touched) mark(coin string) { s[coin] = struct{}{} }

// addQuantity adjusts a coin's held units.
func (t *CryptoTracker) addQuantity(coin string, delta Quantity, seen touched) {
	pos := t.position(coin)
	pos.Quantity = pos.Quantity.Add(delta)
	seen.mark(coin)
}

// addPrincipal adjusts a coin's cost basis. This is the single redirection
// point for family proxies: the delta lands on the proxy position when one
// is configured, and callers never need to know whether a coin is proxied.
func (t *CryptoTracker) addPrincipal(coin string, delta float64, seen touched) {
	pos := t.position(coin)
	seen.mark(coin)
	if pos.Family != "" {
		pos = t.position(pos.Family)
		seen.mark(pos.Coin)
	}
	pos.Principal += delta
}

// Replay processes rows one at a time. Rows must be pre-sorted by date.
// Only a missing forex series aborts the replay; malformed rows and
// unrecognized types are logged and skipped.
func (t *CryptoTracker) Replay(rows []CryptoRow) error {
	for _, row := range rows {
		if err := t.Process(row); err != nil {
			return err
		}
	}
	return nil
}

// Process applies one transaction row.
func (t *CryptoTracker) Process(row CryptoRow) error {
	op, err := parseOperation(row)
	if err != nil {
		t.log.Warn().Stringer("on", row.Date).Str("type", row.Type).Err(err).
			Msg("malformed row skipped")
		return nil
	}

	switch op.kind {
	case opApprove:
		// Token approvals move nothing, cost nothing here (the allowance fee
		// sits on the interaction row), and leave no snapshot.
		return nil
	case opUnknown:
		t.log.Warn().Stringer("on", row.Date).Str("type", row.Type).
			Msg("unrecognized transaction type, row skipped")
		return nil
	}

	if row.Date != t.day {
		t.day = row.Date
		clear(t.dayCache)
	}

	seen := make(touched)
	if err := t.route(op, seen); err != nil {
		return err
	}
	if err := t.settleFee(op, seen); err != nil {
		return err
	}
	t.emit(op.on, seen)
	return nil
}

// route applies the primary position transition of an operation.
func (t *CryptoTracker) route(op operation, seen touched) error {
	switch op.kind {
	case opBuy:
		in, out := op.ins[0], op.outs[0]
		rate, err := t.resolver.ForexRate(out.token, op.on)
		if err != nil {
			return err
		}
		t.addQuantity(in.token, in.qty, seen)
		t.addPrincipal(in.token, out.qty.Float64()*rate, seen)

	case opSell:
		in, out := op.ins[0], op.outs[0]
		rate, err := t.resolver.ForexRate(in.token, op.on)
		if err != nil {
			return err
		}
		t.addQuantity(out.token, out.qty.Neg(), seen)
		t.addPrincipal(out.token, -in.qty.Float64()*rate, seen)

	case opReceive:
		// No currency counterpart: transfers price themselves at the
		// asset's own as-of value (an airdrop arrives with no explicit cost).
		for _, in := range op.ins {
			price, err := t.resolver.CryptoPrice(in.token, op.on)
			if err != nil {
				return err
			}
			t.addQuantity(in.token, in.qty, seen)
			t.addPrincipal(in.token, in.qty.Float64()*price, seen)
		}

	case opSend:
		for _, out := range op.outs {
			price, err := t.resolver.CryptoPrice(out.token, op.on)
			if err != nil {
				return err
			}
			t.addQuantity(out.token, out.qty.Neg(), seen)
			t.addPrincipal(out.token, -out.qty.Float64()*price, seen)
		}

	case opSwap:
		return t.settleSwap(op, seen)

	case opReward:
		return t.settleReward(op, seen)

	case opInteraction:
		// No position effect; the row only exists to carry its gas fee.
	}
	return nil
}

// settleSwap applies a general N-in/M-out settlement. Every leg is priced at
// its own as-of value. In-assets gain their own priced value. Out-assets
// lose a pro-rata share of the total in-value, weighted by their share of
// the total out-value: this keeps total principal removed equal to total
// principal added even when individual prices are stale or noisy.
func (t *CryptoTracker) settleSwap(op operation, seen touched) error {
	inValues := make([]float64, len(op.ins))
	outValues := make([]float64, len(op.outs))
	var totalIn, totalOut float64

	for i, in := range op.ins {
		price, err := t.resolver.CryptoPrice(in.token, op.on)
		if err != nil {
			return err
		}
		inValues[i] = in.qty.Float64() * price
		totalIn += inValues[i]
	}
	for i, out := range op.outs {
		price, err := t.resolver.CryptoPrice(out.token, op.on)
		if err != nil {
			return err
		}
		outValues[i] = out.qty.Float64() * price
		totalOut += outValues[i]
	}

	for i, in := range op.ins {
		t.addQuantity(in.token, in.qty, seen)
		t.addPrincipal(in.token, inValues[i], seen)
	}
	for i, out := range op.outs {
		t.addQuantity(out.token, out.qty.Neg(), seen)
		var share float64
		if totalOut == 0 {
			// Valueless dust on the out side: distribute equally instead of
			// dividing by zero.
			share = totalIn / float64(len(op.outs))
		} else {
			share = totalIn * outValues[i] / totalOut
		}
		t.addPrincipal(out.token, -share, seen)
	}
	return nil
}

// settleReward credits reward legs at their priced value and deducts that
// cost from the source assets: the named allocation list when the type was
// "reward|coin1,coin2" (a reward diluting the assets that produced it), or
// the receiving assets themselves otherwise (a reward treated as valueless
// for cost-basis purposes).
func (t *CryptoTracker) settleReward(op operation, seen touched) error {
	var cost float64
	values := make([]float64, len(op.ins))
	for i, in := range op.ins {
		price, err := t.resolver.CryptoPrice(in.token, op.on)
		if err != nil {
			return err
		}
		values[i] = in.qty.Float64() * price
		cost += values[i]

		t.addQuantity(in.token, in.qty, seen)
		t.addPrincipal(in.token, values[i], seen)
	}

	if len(op.sources) > 0 {
		share := cost / float64(len(op.sources))
		for _, src := range op.sources {
			t.addPrincipal(src, -share, seen)
		}
		return nil
	}
	// No allocation list: net the cost out of the receivers, leaving their
	// quantity up and their principal unchanged.
	for i, in := range op.ins {
		t.addPrincipal(in.token, -values[i], seen)
	}
	return nil
}

// settleFee runs the gas fee settlement: the fee token loses quantity, its
// EUR value leaves the fee asset's principal and is redistributed in equal
// shares onto the operation's target assets, modeling gas as an added cost
// of the acquired (or disposed) position.
func (t *CryptoTracker) settleFee(op operation, seen touched) error {
	if op.fee.token == "" || op.fee.qty.IsZero() {
		return nil
	}
	price, err := t.resolver.CryptoPrice(op.fee.token, op.on)
	if err != nil {
		return err
	}
	feeValue := op.fee.qty.Float64() * price

	t.addQuantity(op.fee.token, op.fee.qty.Neg(), seen)
	t.addPrincipal(op.fee.token, -feeValue, seen)

	targets := op.feeTargets()
	if len(targets) == 0 {
		// An interaction has no target position: the gas value is simply
		// burned out of the fee asset.
		return nil
	}
	share := feeValue / float64(len(targets))
	for _, coin := range targets {
		t.addPrincipal(coin, share, seen)
	}
	return nil
}

// feeTargets returns the unique coins the gas cost is layered onto: the
// acquired side for buy/swap/receive/reward, the disposed side for
// sell/send.
func (op operation) feeTargets() []string {
	var legs []leg
	switch op.kind {
	case opBuy, opSwap, opReceive, opReward:
		legs = op.ins
	case opSell, opSend:
		legs = op.outs
	default:
		return nil
	}
	targets := make([]string, 0, len(legs))
	for _, l := range legs {
		if !slices.Contains(targets, l.token) {
			targets = append(targets, l.token)
		}
	}
	return targets
}

// emit writes one snapshot per touched coin, plus the family proxy of every
// touched coin so the proxy's updated principal is visible even when the
// proxy itself was not named in the row. Within one day, a coin's snapshot
// is overwritten in place (last write wins).
func (t *CryptoTracker) emit(on date.Date, seen touched) {
	coins := make([]string, 0, len(seen))
	for coin := range seen {
		coins = append(coins, coin)
		if family := t.position(coin).Family; family != "" {
			if _, ok := seen[family]; !ok {
				coins = append(coins, family)
			}
		}
	}
	slices.Sort(coins)
	coins = slices.Compact(coins)

	for _, coin := range coins {
		pos := t.position(coin)
		snap := CryptoSnapshot{
			Date:      on,
			Coin:      coin,
			Quantity:  pos.Quantity.Round(6),
			Principal: roundCents(pos.Principal),
		}
		if i, ok := t.dayCache[coin]; ok {
			t.history[i] = snap
			continue
		}
		t.dayCache[coin] = len(t.history)
		t.history = append(t.history, snap)
	}
}
