package networth

import (
	"encoding/csv"
	"io"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hvdmeer/networth/date"
)

// LatestPrice is the newest observation of one asset's price series.
type LatestPrice struct {
	Date  date.Date
	Asset string
	Price float64
}

// LatestPrices scans every price series CSV in the file tree and returns the
// newest observation per asset, sorted by asset identifier. Unreadable files
// are logged and skipped.
func LatestPrices(files fs.FS, logger zerolog.Logger) ([]LatestPrice, error) {
	names, err := fs.Glob(files, "*.csv")
	if err != nil {
		return nil, err
	}

	summary := make([]LatestPrice, 0, len(names))
	for _, name := range names {
		if name == "latest_prices.csv" {
			// The summary this function produces lives next to its sources.
			continue
		}
		asset := strings.TrimSuffix(name, ".csv")
		f, err := files.Open(name)
		if err != nil {
			logger.Warn().Str("file", name).Err(err).Msg("skipping unreadable price file")
			continue
		}
		h, err := decodePriceSeries(asset, f, logger)
		f.Close()
		if err != nil {
			logger.Warn().Str("file", name).Err(err).Msg("skipping unreadable price file")
			continue
		}
		on, price := h.Latest()
		summary = append(summary, LatestPrice{Date: on, Asset: asset, Price: price})
	}

	slices.SortFunc(summary, func(a, b LatestPrice) int { return strings.Compare(a.Asset, b.Asset) })
	return summary, nil
}

// EncodeLatestPrices writes the latest-prices summary table as CSV.
func EncodeLatestPrices(w io.Writer, summary []LatestPrice) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "isin", "price"}); err != nil {
		return err
	}
	for _, p := range summary {
		rec := []string{p.Date.String(), p.Asset, strconv.FormatFloat(p.Price, 'f', -1, 64)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
