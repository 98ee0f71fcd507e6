package networth

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"github.com/hvdmeer/networth/date"
)

// ImportBrokerExport converts the broker's JSON export into the equity
// transaction table. txDoc is the transactions document, splitDoc the
// corporate-actions document; splits become STOCK_SPLIT rows with the ratio
// in the quantity column. The result is sorted by (date, ISIN), ready for
// the tracker.
func ImportBrokerExport(txDoc, splitDoc io.Reader) ([]EquityRow, error) {
	rows, err := importTransactions(txDoc)
	if err != nil {
		return nil, err
	}
	splits, err := importSplits(splitDoc)
	if err != nil {
		return nil, err
	}
	rows = append(rows, splits...)

	slices.SortStableFunc(rows, func(a, b EquityRow) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ISIN, b.ISIN)
	})
	return rows, nil
}

func importTransactions(r io.Reader) ([]EquityRow, error) {
	var jobj any
	if err := json.NewDecoder(r).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("could not decode transactions export: %w", err)
	}
	jval, err := jsonpath.Get("$.data.transactions.results", jobj)
	if err != nil {
		return nil, fmt.Errorf("transactions export has no results: %w", err)
	}
	records, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("transactions export results is not a list")
	}

	rows := make([]EquityRow, 0, len(records))
	for i, rec := range records {
		on, err := jdate(rec, "$.timestamp")
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		isin, err := jstring(rec, "$.instrument.symbol")
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txType, err := jstring(rec, "$.transaction_type")
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		units := jfloat(rec, "$.units")
		rows = append(rows, EquityRow{
			Date:     on,
			ISIN:     isin,
			Type:     strings.ToUpper(txType),
			Quantity: Q(units),
			Price:    jfloat(rec, "$.price"),
			Currency: jstringOr(rec, "$.price_currency", ""),
			Fees:     jfloat(rec, "$.costs"),
			Taxes:    jfloat(rec, "$.taxes"),
		})
	}
	return rows, nil
}

func importSplits(r io.Reader) ([]EquityRow, error) {
	var jobj any
	if err := json.NewDecoder(r).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("could not decode splits export: %w", err)
	}
	jval, err := jsonpath.Get("$.data.splits", jobj)
	if err != nil {
		return nil, fmt.Errorf("splits export has no splits: %w", err)
	}
	records, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("splits export is not a list")
	}

	rows := make([]EquityRow, 0, len(records))
	for i, rec := range records {
		on, err := jdate(rec, "$.start_date")
		if err != nil {
			return nil, fmt.Errorf("split %d: %w", i, err)
		}
		isin, err := jstring(rec, "$.isin")
		if err != nil {
			return nil, fmt.Errorf("split %d: %w", i, err)
		}
		num, den := jfloat(rec, "$.numerator"), jfloat(rec, "$.denominator")
		if den == 0 {
			return nil, fmt.Errorf("split %d for %s: zero denominator", i, isin)
		}
		rows = append(rows, EquityRow{
			Date:     on,
			ISIN:     isin,
			Type:     StockSplit,
			Quantity: Q(num / den),
		})
	}
	return rows, nil
}

// jsonpath is never clear about whether it returns a list of one answer or
// a single answer; unwrap keeps the first one if any.
func unwrap(jval any) any {
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		return jlist[0]
	}
	return jval
}

func jstring(jobj any, path string) (string, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return "", fmt.Errorf("missing %q: %w", path, err)
	}
	s, ok := unwrap(jval).(string)
	if !ok {
		return "", fmt.Errorf("%q is not a string", path)
	}
	return s, nil
}

func jstringOr(jobj any, path, fallback string) string {
	s, err := jstring(jobj, path)
	if err != nil {
		return fallback
	}
	return s
}

// jfloat reads a numeric field, 0 when absent or null.
func jfloat(jobj any, path string) float64 {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return 0
	}
	f, _ := unwrap(jval).(float64)
	return f
}

// jdate reads a timestamp field, accepting both full RFC 3339 stamps and
// plain dates.
func jdate(jobj any, path string) (date.Date, error) {
	s, err := jstring(jobj, path)
	if err != nil {
		return date.Date{}, err
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return date.New(ts.UTC().Date()), nil
	}
	return date.Parse(s)
}
