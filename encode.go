package networth

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hvdmeer/networth/date"
)

// columns indexes a CSV header by trimmed, case-insensitive column name.
type columns map[string]int

func headerColumns(rec []string) columns {
	cols := make(columns, len(rec))
	for i, name := range rec {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

// get returns the trimmed cell under a named column, or "".
func (c columns) get(rec []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// getFloat parses a numeric cell; an empty cell is 0.
func (c columns) getFloat(rec []string, name string) (float64, error) {
	s := c.get(rec, name)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// DecodeEquityRows reads the equity transaction table and returns its rows
// sorted by (date, ISIN), the order the tracker requires. Rows that cannot
// be parsed are logged and skipped rather than failing the batch.
func DecodeEquityRows(r io.Reader, logger zerolog.Logger) ([]EquityRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read equity table header: %w", err)
	}
	cols := headerColumns(header)

	var rows []EquityRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read equity table: %w", err)
		}
		row, err := decodeEquityRow(cols, rec)
		if err != nil {
			logger.Warn().Err(err).Strs("row", rec).Msg("skipping malformed equity row")
			continue
		}
		rows = append(rows, row)
	}

	slices.SortStableFunc(rows, func(a, b EquityRow) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ISIN, b.ISIN)
	})
	return rows, nil
}

func decodeEquityRow(cols columns, rec []string) (EquityRow, error) {
	var row EquityRow
	var err error

	if row.Date, err = date.Parse(cols.get(rec, "date")); err != nil {
		return row, err
	}
	row.ISIN = cols.get(rec, "isin")
	if row.ISIN == "" {
		return row, fmt.Errorf("missing ISIN")
	}
	row.Type = cols.get(rec, "type")
	if row.Quantity, err = ParseQuantity(cols.get(rec, "quantity")); err != nil {
		return row, fmt.Errorf("invalid quantity: %w", err)
	}
	if row.Price, err = cols.getFloat(rec, "price"); err != nil {
		return row, fmt.Errorf("invalid price: %w", err)
	}
	row.Currency = cols.get(rec, "currency")
	if row.Fees, err = cols.getFloat(rec, "fees"); err != nil {
		return row, fmt.Errorf("invalid fees: %w", err)
	}
	if row.Taxes, err = cols.getFloat(rec, "taxes"); err != nil {
		return row, fmt.Errorf("invalid taxes: %w", err)
	}
	return row, nil
}

// DecodeCryptoRows reads the crypto transaction table, sorted by date. The
// sort is stable: rows on the same day keep their on-chain order. The list
// and fee cells stay raw; the tracker parses them once per row.
func DecodeCryptoRows(r io.Reader, logger zerolog.Logger) ([]CryptoRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read crypto table header: %w", err)
	}
	cols := headerColumns(header)

	var rows []CryptoRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read crypto table: %w", err)
		}
		on, err := date.Parse(cols.get(rec, "date"))
		if err != nil {
			logger.Warn().Err(err).Strs("row", rec).Msg("skipping crypto row with invalid date")
			continue
		}
		rows = append(rows, CryptoRow{
			Date:     on,
			Type:     cols.get(rec, "type"),
			QtyIn:    cols.get(rec, "qty in"),
			TokenIn:  cols.get(rec, "token in"),
			QtyOut:   cols.get(rec, "qty out"),
			TokenOut: cols.get(rec, "token out"),
			FeeQty:   cols.get(rec, "fee"),
			FeeToken: cols.get(rec, "fee token"),
		})
	}

	slices.SortStableFunc(rows, func(a, b CryptoRow) int { return a.Date.Compare(b.Date) })
	return rows, nil
}

// EncodeEquityRows writes the equity transaction table as CSV, the format
// DecodeEquityRows reads back.
func EncodeEquityRows(w io.Writer, rows []EquityRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "ISIN", "Type", "Quantity", "Price", "Currency", "Fees", "Taxes"}); err != nil {
		return err
	}
	for _, row := range rows {
		rec := []string{
			row.Date.String(),
			row.ISIN,
			row.Type,
			row.Quantity.String(),
			strconv.FormatFloat(row.Price, 'f', -1, 64),
			row.Currency,
			strconv.FormatFloat(row.Fees, 'f', -1, 64),
			strconv.FormatFloat(row.Taxes, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCents(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// EncodeEquitySnapshots writes the equity snapshot table as CSV, in history
// order.
func EncodeEquitySnapshots(w io.Writer, history []EquitySnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "ISIN", "Quantity", "Principal Invested", "Cumulative Fees", "Cumulative Taxes", "Gross Dividends"}); err != nil {
		return err
	}
	for _, s := range history {
		rec := []string{
			s.Date.String(),
			s.ISIN,
			s.Quantity.String(),
			formatCents(s.Principal),
			formatCents(s.Fees),
			formatCents(s.Taxes),
			formatCents(s.Dividends),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeCryptoSnapshots writes the crypto snapshot table as CSV, sorted by
// (date, coin). The in-memory history is in first-touch order within a day;
// sorting here keeps the output stable across runs.
func EncodeCryptoSnapshots(w io.Writer, history []CryptoSnapshot) error {
	rows := slices.Clone(history)
	slices.SortStableFunc(rows, func(a, b CryptoSnapshot) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Coin, b.Coin)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Coin", "Quantity", "Principal Invested"}); err != nil {
		return err
	}
	for _, s := range rows {
		rec := []string{s.Date.String(), s.Coin, s.Quantity.String(), formatCents(s.Principal)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeEquitySnapshots reads an equity snapshot table back, e.g. for
// reporting on a previous run's output.
func DecodeEquitySnapshots(r io.Reader) ([]EquitySnapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read snapshot table header: %w", err)
	}
	cols := headerColumns(header)

	var history []EquitySnapshot
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read snapshot table: %w", err)
		}
		var s EquitySnapshot
		if s.Date, err = date.Parse(cols.get(rec, "date")); err != nil {
			return nil, err
		}
		s.ISIN = cols.get(rec, "isin")
		if s.Quantity, err = ParseQuantity(cols.get(rec, "quantity")); err != nil {
			return nil, err
		}
		if s.Principal, err = cols.getFloat(rec, "principal invested"); err != nil {
			return nil, err
		}
		if s.Fees, err = cols.getFloat(rec, "cumulative fees"); err != nil {
			return nil, err
		}
		if s.Taxes, err = cols.getFloat(rec, "cumulative taxes"); err != nil {
			return nil, err
		}
		if s.Dividends, err = cols.getFloat(rec, "gross dividends"); err != nil {
			return nil, err
		}
		history = append(history, s)
	}
	return history, nil
}

// DecodeCryptoSnapshots reads a crypto snapshot table back.
func DecodeCryptoSnapshots(r io.Reader) ([]CryptoSnapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read snapshot table header: %w", err)
	}
	cols := headerColumns(header)

	var history []CryptoSnapshot
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read snapshot table: %w", err)
		}
		var s CryptoSnapshot
		if s.Date, err = date.Parse(cols.get(rec, "date")); err != nil {
			return nil, err
		}
		s.Coin = cols.get(rec, "coin")
		if s.Quantity, err = ParseQuantity(cols.get(rec, "quantity")); err != nil {
			return nil, err
		}
		if s.Principal, err = cols.getFloat(rec, "principal invested"); err != nil {
			return nil, err
		}
		history = append(history, s)
	}
	return history, nil
}
