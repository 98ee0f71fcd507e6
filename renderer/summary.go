package renderer

import (
	"slices"
	"strings"

	"github.com/hvdmeer/networth"
	"github.com/hvdmeer/networth/date"
)

// AssetLine is one asset of a summary report, formatted for display.
type AssetLine struct {
	Asset     string
	Date      date.Date
	Quantity  string
	Principal networth.Money
	Fees      networth.Money
	Taxes     networth.Money
	Dividends networth.Money
}

// Summary is the latest state of every asset in a snapshot table.
type Summary struct {
	Title          string
	Date           date.Date // newest snapshot date in the table
	Lines          []AssetLine
	TotalPrincipal networth.Money
}

// EquitySummary condenses an equity snapshot table to its latest row per
// ISIN.
func EquitySummary(history []networth.EquitySnapshot) Summary {
	s := Summary{Title: "Equity portfolio", TotalPrincipal: networth.EUR(0)}
	latest := make(map[string]networth.EquitySnapshot)
	for _, snap := range history {
		// History is chronological, so the last write per ISIN wins.
		latest[snap.ISIN] = snap
		if snap.Date.After(s.Date) {
			s.Date = snap.Date
		}
	}
	for _, snap := range sortedValues(latest) {
		s.Lines = append(s.Lines, AssetLine{
			Asset:     snap.ISIN,
			Date:      snap.Date,
			Quantity:  snap.Quantity.String(),
			Principal: networth.EUR(snap.Principal),
			Fees:      networth.EUR(snap.Fees),
			Taxes:     networth.EUR(snap.Taxes),
			Dividends: networth.EUR(snap.Dividends),
		})
		s.TotalPrincipal = s.TotalPrincipal.Add(networth.EUR(snap.Principal))
	}
	return s
}

// CryptoSummary condenses a crypto snapshot table to its latest row per coin.
func CryptoSummary(history []networth.CryptoSnapshot) Summary {
	s := Summary{Title: "Crypto portfolio", TotalPrincipal: networth.EUR(0)}
	latest := make(map[string]networth.CryptoSnapshot)
	for _, snap := range history {
		latest[snap.Coin] = snap
		if snap.Date.After(s.Date) {
			s.Date = snap.Date
		}
	}
	for _, snap := range sortedCoins(latest) {
		s.Lines = append(s.Lines, AssetLine{
			Asset:     snap.Coin,
			Date:      snap.Date,
			Quantity:  snap.Quantity.String(),
			Principal: networth.EUR(snap.Principal),
		})
		s.TotalPrincipal = s.TotalPrincipal.Add(networth.EUR(snap.Principal))
	}
	return s
}

// RenderEquitySummary renders the equity summary to markdown.
func RenderEquitySummary(s Summary) string {
	return renderTemplate("equitySummary", "equity_summary.md", s)
}

// RenderCryptoSummary renders the crypto summary to markdown.
func RenderCryptoSummary(s Summary) string {
	return renderTemplate("cryptoSummary", "crypto_summary.md", s)
}

func sortedValues(m map[string]networth.EquitySnapshot) []networth.EquitySnapshot {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, strings.Compare)
	out := make([]networth.EquitySnapshot, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func sortedCoins(m map[string]networth.CryptoSnapshot) []networth.CryptoSnapshot {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, strings.Compare)
	out := make([]networth.CryptoSnapshot, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
