package networth

import (
	"fmt"
	"strings"

	"github.com/hvdmeer/networth/date"
)

// CryptoRow is one transaction of the crypto transaction table, as emitted
// by the upstream chain reader. QtyIn/TokenIn and QtyOut/TokenOut are
// comma-separated parallel lists: a single swap can settle several assets
// on each side.
type CryptoRow struct {
	Date     date.Date
	Type     string // free text, type word case-insensitive, optionally "reward|coin1,coin2"
	QtyIn    string
	TokenIn  string
	QtyOut   string
	TokenOut string
	FeeQty   string
	FeeToken string
}

// opKind is the closed set of operations the tracker routes on. Row types
// are parsed into this tag exactly once; business logic never compares
// strings.
type opKind int

const (
	opUnknown opKind = iota
	opBuy
	opSell
	opSend
	opReceive
	opSwap
	opReward
	opApprove
	opInteraction
)

func (k opKind) String() string {
	switch k {
	case opBuy:
		return "buy"
	case opSell:
		return "sell"
	case opSend:
		return "send"
	case opReceive:
		return "receive"
	case opSwap:
		return "swap"
	case opReward:
		return "reward"
	case opApprove:
		return "approve"
	case opInteraction:
		return "interaction"
	default:
		return "unknown"
	}
}

// leg is one (token, quantity) movement of an operation.
type leg struct {
	token string
	qty   Quantity
}

// operation is a fully parsed crypto row.
type operation struct {
	on      date.Date
	kind    opKind
	ins     []leg    // assets entering the wallet
	outs    []leg    // assets leaving the wallet
	sources []string // reward cost allocation targets, from "reward|a,b"
	fee     leg      // gas fee, zero when absent
}

// parseKind classifies the free-text type string.
func parseKind(raw string) (kind opKind, sources []string) {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case t == "buy":
		return opBuy, nil
	case t == "sell":
		return opSell, nil
	case t == "send":
		return opSend, nil
	case t == "receive":
		return opReceive, nil
	case t == "swap":
		return opSwap, nil
	case t == "interaction":
		return opInteraction, nil
	case strings.HasPrefix(t, "approve"):
		return opApprove, nil
	case strings.HasPrefix(t, "reward"):
		// Only the type word is case-folded. Source symbols keep their
		// original case: they must match the position keys, which are taken
		// verbatim from the token columns (on-chain symbols like stETH are
		// mixed-case).
		if _, list, ok := strings.Cut(strings.TrimSpace(raw), "|"); ok {
			for _, coin := range strings.Split(list, ",") {
				if coin = strings.TrimSpace(coin); coin != "" {
					sources = append(sources, coin)
				}
			}
		}
		return opReward, sources
	default:
		return opUnknown, nil
	}
}

// parseLegs zips the comma-separated quantity and token lists into legs.
// The lists must be parallel; a mismatch marks the whole row malformed.
func parseLegs(qtys, tokens string) ([]leg, error) {
	qtys, tokens = strings.TrimSpace(qtys), strings.TrimSpace(tokens)
	if qtys == "" && tokens == "" {
		return nil, nil
	}
	qs := strings.Split(qtys, ",")
	ts := strings.Split(tokens, ",")
	if len(qs) != len(ts) {
		return nil, fmt.Errorf("mismatched lists: %d quantities for %d tokens", len(qs), len(ts))
	}
	legs := make([]leg, 0, len(qs))
	for i := range qs {
		token := strings.TrimSpace(ts[i])
		if token == "" {
			return nil, fmt.Errorf("empty token at position %d", i)
		}
		qty, err := ParseQuantity(strings.TrimSpace(qs[i]))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q for %s: %w", qs[i], token, err)
		}
		legs = append(legs, leg{token: token, qty: qty})
	}
	return legs, nil
}

// parseOperation converts a raw row into a typed operation. An error means
// the row is malformed and must be skipped; an unrecognized type is not an
// error, it parses to kind opUnknown.
func parseOperation(row CryptoRow) (operation, error) {
	kind, sources := parseKind(row.Type)
	op := operation{on: row.Date, kind: kind, sources: sources}

	var err error
	if op.ins, err = parseLegs(row.QtyIn, row.TokenIn); err != nil {
		return op, fmt.Errorf("in legs: %w", err)
	}
	if op.outs, err = parseLegs(row.QtyOut, row.TokenOut); err != nil {
		return op, fmt.Errorf("out legs: %w", err)
	}

	if feeToken := strings.TrimSpace(row.FeeToken); feeToken != "" {
		qty, err := ParseQuantity(strings.TrimSpace(row.FeeQty))
		if err != nil {
			return op, fmt.Errorf("invalid fee quantity %q: %w", row.FeeQty, err)
		}
		op.fee = leg{token: feeToken, qty: qty}
	}

	// Shape checks per kind. The swap settlement is general; buy and sell
	// are strict single-pair trades against a fiat amount.
	switch kind {
	case opBuy:
		if len(op.ins) != 1 || len(op.outs) != 1 {
			return op, fmt.Errorf("buy wants a single in/out pair, got %d in, %d out", len(op.ins), len(op.outs))
		}
	case opSell:
		if len(op.ins) != 1 || len(op.outs) != 1 {
			return op, fmt.Errorf("sell wants a single in/out pair, got %d in, %d out", len(op.ins), len(op.outs))
		}
	case opReceive:
		if len(op.ins) == 0 {
			return op, fmt.Errorf("receive without in legs")
		}
	case opSend:
		if len(op.outs) == 0 {
			return op, fmt.Errorf("send without out legs")
		}
	case opSwap:
		if len(op.ins) == 0 || len(op.outs) == 0 {
			return op, fmt.Errorf("swap wants at least one in and one out leg")
		}
	case opReward:
		if len(op.ins) == 0 {
			return op, fmt.Errorf("reward without in legs")
		}
	}
	return op, nil
}
