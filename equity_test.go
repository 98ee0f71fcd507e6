package networth

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvdmeer/networth/date"
)

func newEquityTracker(t *testing.T) *EquityTracker {
	t.Helper()
	return NewEquityTracker(newTestResolver(nil), zerolog.Nop())
}

func TestEquityBuy(t *testing.T) {
	tracker := newEquityTracker(t)
	err := tracker.Process(EquityRow{
		Date: date.MustParse("2024-03-01"), ISIN: "IE00B4L5Y983", Type: Buying,
		Quantity: Q(10), Price: 100, Fees: 5, Taxes: 2,
	})
	require.NoError(t, err)

	history := tracker.History()
	require.Len(t, history, 1)
	s := history[0]
	assert.Equal(t, "IE00B4L5Y983", s.ISIN)
	assert.True(t, s.Quantity.Equal(Q(10)), "quantity = %s", s.Quantity)
	assert.Equal(t, 1000.0, s.Principal)
	assert.Equal(t, 5.0, s.Fees)
	assert.Equal(t, 2.0, s.Taxes)
	assert.Equal(t, 0.0, s.Dividends)
}

func TestEquitySellReducesPrincipalAtSalePrice(t *testing.T) {
	tracker := newEquityTracker(t)
	rows := []EquityRow{
		{Date: date.MustParse("2024-03-01"), ISIN: "X", Type: Buying, Quantity: Q(10), Price: 100},
		{Date: date.MustParse("2024-04-01"), ISIN: "X", Type: Selling, Quantity: Q(4), Price: 120, Fees: 1},
	}
	require.NoError(t, tracker.Replay(rows))

	history := tracker.History()
	require.Len(t, history, 2)
	s := history[1]
	assert.True(t, s.Quantity.Equal(Q(6)), "quantity = %s", s.Quantity)
	assert.Equal(t, 1000.0-4*120, s.Principal)
	assert.Equal(t, 1.0, s.Fees)
}

func TestEquitySplitRewritesHistoryRetroactively(t *testing.T) {
	tracker := newEquityTracker(t)
	rows := []EquityRow{
		{Date: date.MustParse("2024-01-01"), ISIN: "X", Type: Buying, Quantity: Q(10), Price: 10},
		{Date: date.MustParse("2024-02-01"), ISIN: "X", Type: Buying, Quantity: Q(10), Price: 10},
		{Date: date.MustParse("2024-03-01"), ISIN: "X", Type: Buying, Quantity: Q(10), Price: 10},
		{Date: date.MustParse("2024-04-01"), ISIN: "X", Type: StockSplit, Quantity: Q(2)},
	}
	require.NoError(t, tracker.Replay(rows))

	history := tracker.History()
	require.Len(t, history, 4)
	for i, want := range []int{20, 40, 60, 60} {
		assert.True(t, history[i].Quantity.Equal(Q(want)),
			"history[%d].Quantity = %s, want %d", i, history[i].Quantity, want)
	}
	// Principal is money already spent; a split never changes it.
	for i := range history {
		assert.Equal(t, 100.0*float64(min(i+1, 3)), history[i].Principal, "history[%d].Principal", i)
	}
}

func TestEquitySplitLeavesOtherAssetsAlone(t *testing.T) {
	tracker := newEquityTracker(t)
	rows := []EquityRow{
		{Date: date.MustParse("2024-01-01"), ISIN: "A", Type: Buying, Quantity: Q(10), Price: 10},
		{Date: date.MustParse("2024-01-01"), ISIN: "B", Type: Buying, Quantity: Q(5), Price: 10},
		{Date: date.MustParse("2024-02-01"), ISIN: "A", Type: StockSplit, Quantity: Q(3)},
	}
	require.NoError(t, tracker.Replay(rows))

	history := tracker.History()
	require.Len(t, history, 3)
	assert.True(t, history[0].Quantity.Equal(Q(30)), "A rewritten")
	assert.True(t, history[1].Quantity.Equal(Q(5)), "B untouched")
}

func TestEquitySameDayTransactionsCollapse(t *testing.T) {
	tracker := newEquityTracker(t)
	rows := []EquityRow{
		{Date: date.MustParse("2024-01-01"), ISIN: "X", Type: Buying, Quantity: Q(10), Price: 100},
		{Date: date.MustParse("2024-01-01"), ISIN: "X", Type: Buying, Quantity: Q(5), Price: 100},
	}
	require.NoError(t, tracker.Replay(rows))

	history := tracker.History()
	require.Len(t, history, 1, "same asset, same day must be one end-of-day row")
	assert.True(t, history[0].Quantity.Equal(Q(15)), "quantity = %s", history[0].Quantity)
	assert.Equal(t, 1500.0, history[0].Principal)
}

func TestEquityDividendAccumulatesGross(t *testing.T) {
	tracker := newEquityTracker(t)
	rows := []EquityRow{
		{Date: date.MustParse("2024-01-01"), ISIN: "X", Type: Buying, Quantity: Q(10), Price: 100},
		{Date: date.MustParse("2024-06-01"), ISIN: "X", Type: DividendTx, Quantity: Q(10), Price: 1.5, Taxes: 3},
	}
	require.NoError(t, tracker.Replay(rows))

	history := tracker.History()
	require.Len(t, history, 2)
	s := history[1]
	assert.Equal(t, 15.0, s.Dividends)
	assert.Equal(t, 3.0, s.Taxes)
	assert.Equal(t, 1000.0, s.Principal, "dividends never touch principal")
	assert.True(t, s.Quantity.Equal(Q(10)))
}

func TestEquityForeignCurrencyConversion(t *testing.T) {
	tracker := newEquityTracker(t)
	err := tracker.Process(EquityRow{
		Date: date.MustParse("2024-01-05"), ISIN: "US0378331005", Type: Buying,
		Quantity: Q(10), Price: 100, Currency: "USD",
	})
	require.NoError(t, err)

	history := tracker.History()
	require.Len(t, history, 1)
	// USD rate as of 2024-01-05 is the 2024-01-01 observation, 0.95.
	assert.Equal(t, 950.0, history[0].Principal)
}

func TestEquityMissingForexAborts(t *testing.T) {
	tracker := NewEquityTracker(NewResolver(fstest.MapFS{}, nil, zerolog.Nop()), zerolog.Nop())
	err := tracker.Process(EquityRow{
		Date: date.MustParse("2024-01-05"), ISIN: "X", Type: Buying,
		Quantity: Q(1), Price: 100, Currency: "JPY",
	})
	assert.True(t, errors.Is(err, ErrMissingPriceData), "err = %v", err)
	assert.Empty(t, tracker.History())
}

func TestEquityUnknownTypeSkipsRow(t *testing.T) {
	tracker := newEquityTracker(t)
	rows := []EquityRow{
		{Date: date.MustParse("2024-01-01"), ISIN: "X", Type: Buying, Quantity: Q(10), Price: 100},
		{Date: date.MustParse("2024-02-01"), ISIN: "X", Type: "SECURITIES_LENDING", Quantity: Q(99)},
	}
	require.NoError(t, tracker.Replay(rows))

	history := tracker.History()
	require.Len(t, history, 1, "unrecognized type must not emit a snapshot")
	assert.True(t, tracker.Position("X").Quantity.Equal(Q(10)), "position must be untouched")
}
