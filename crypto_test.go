package networth

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvdmeer/networth/date"
)

func newCryptoTracker(t *testing.T, meta Metadata) *CryptoTracker {
	t.Helper()
	return NewCryptoTracker(newTestResolver(meta), meta, zerolog.Nop())
}

func TestCryptoBuy(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	err := tracker.Process(CryptoRow{
		Date: date.MustParse("2024-01-02"), Type: "buy",
		QtyIn: "1", TokenIn: "ETH", QtyOut: "1500", TokenOut: "EUR",
	})
	require.NoError(t, err)

	pos := tracker.Position("ETH")
	require.NotNil(t, pos)
	assert.True(t, pos.Quantity.Equal(Q(1)))
	assert.Equal(t, 1500.0, pos.Principal)
	require.Len(t, tracker.History(), 1)
}

func TestCryptoSellInForeignCurrency(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	rows := []CryptoRow{
		{Date: date.MustParse("2024-01-02"), Type: "buy",
			QtyIn: "1", TokenIn: "ETH", QtyOut: "1500", TokenOut: "EUR"},
		{Date: date.MustParse("2024-01-05"), Type: "sell",
			QtyIn: "1200", TokenIn: "USD", QtyOut: "0.5", TokenOut: "ETH"},
	}
	require.NoError(t, tracker.Replay(rows))

	pos := tracker.Position("ETH")
	assert.True(t, pos.Quantity.Equal(Q(0.5)), "quantity = %s", pos.Quantity)
	// Sale proceeds convert at the USD rate as of the sale date, 0.95.
	assert.InDelta(t, 1500-1200*0.95, pos.Principal, 1e-9)
}

func TestCryptoSwapEthForUSDC(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	rows := []CryptoRow{
		{Date: date.MustParse("2024-01-02"), Type: "buy",
			QtyIn: "1", TokenIn: "ETH", QtyOut: "1800", TokenOut: "EUR"},
		{Date: date.MustParse("2024-01-05"), Type: "swap",
			QtyIn: "2000", TokenIn: "USDC", QtyOut: "1", TokenOut: "ETH"},
	}
	require.NoError(t, tracker.Replay(rows))

	// ETH is worth 2000 on the swap date and USDC holds its 1.0 peg, so the
	// whole 2000 of in-value is removed from the one out-asset.
	eth := tracker.Position("ETH")
	assert.True(t, eth.Quantity.IsZero(), "ETH quantity = %s", eth.Quantity)
	assert.InDelta(t, 1800-2000, eth.Principal, 1e-9)

	usdc := tracker.Position("USDC")
	assert.True(t, usdc.Quantity.Equal(Q(2000)))
	assert.InDelta(t, 2000, usdc.Principal, 1e-9)
}

func TestCryptoSwapConservesPrincipal(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	inject := func(coin string, price float64) {
		h := &date.History[float64]{}
		h.Append(date.MustParse("2024-01-01"), price)
		tracker.resolver.Inject(coin, h)
	}
	inject("AAA", 1.7)
	inject("BBB", 0.3)
	inject("CCC", 1.1)
	inject("DDD", 2.9)

	err := tracker.Process(CryptoRow{
		Date: date.MustParse("2024-01-05"), Type: "swap",
		QtyIn: "5, 1", TokenIn: "CCC, DDD", QtyOut: "3, 2", TokenOut: "AAA, BBB",
	})
	require.NoError(t, err)

	totalIn := 5*1.1 + 1*2.9
	added := tracker.Position("CCC").Principal + tracker.Position("DDD").Principal
	removed := tracker.Position("AAA").Principal + tracker.Position("BBB").Principal
	assert.InDelta(t, totalIn, added, 1e-9)
	assert.InDelta(t, -totalIn, removed, 1e-9, "principal removed must mirror principal added")
}

func TestCryptoSwapValuelessOutsSplitEqually(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	// FOO and BAR have no price feed at all: they value at 0, so the in-value
	// is removed in equal shares rather than pro-rata.
	err := tracker.Process(CryptoRow{
		Date: date.MustParse("2024-01-05"), Type: "swap",
		QtyIn: "100", TokenIn: "USDC", QtyOut: "1, 1", TokenOut: "FOO, BAR",
	})
	require.NoError(t, err)

	assert.InDelta(t, -50, tracker.Position("FOO").Principal, 1e-9)
	assert.InDelta(t, -50, tracker.Position("BAR").Principal, 1e-9)
	assert.InDelta(t, 100, tracker.Position("USDC").Principal, 1e-9)
}

func TestCryptoFamilyProxyOwnsPrincipal(t *testing.T) {
	meta := Metadata{"WETH": {Family: "ETH"}}
	tracker := newCryptoTracker(t, meta)
	err := tracker.Process(CryptoRow{
		Date: date.MustParse("2024-01-02"), Type: "buy",
		QtyIn: "1", TokenIn: "WETH", QtyOut: "1800", TokenOut: "EUR",
	})
	require.NoError(t, err)

	weth := tracker.Position("WETH")
	assert.True(t, weth.Quantity.Equal(Q(1)))
	assert.Equal(t, 0.0, weth.Principal, "a proxied coin's own principal stays 0")

	eth := tracker.Position("ETH")
	require.NotNil(t, eth, "the proxy position must exist")
	assert.Equal(t, 1800.0, eth.Principal)
	assert.True(t, eth.Quantity.IsZero(), "proxying never moves quantity")

	history := tracker.History()
	require.Len(t, history, 2, "both the coin and its proxy get a snapshot")
	assert.Equal(t, "ETH", history[0].Coin)
	assert.Equal(t, "WETH", history[1].Coin)
}

func TestCryptoRewardWithAllocationList(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	err := tracker.Process(CryptoRow{
		Date: date.MustParse("2024-01-05"), Type: "reward|ETH",
		QtyIn: "100", TokenIn: "USDC",
	})
	require.NoError(t, err)

	usdc := tracker.Position("USDC")
	assert.True(t, usdc.Quantity.Equal(Q(100)))
	assert.InDelta(t, 100, usdc.Principal, 1e-9)
	assert.InDelta(t, -100, tracker.Position("ETH").Principal, 1e-9,
		"the reward's value dilutes the named source")
}

func TestCryptoRewardSourceKeepsSymbolCase(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	rows := []CryptoRow{
		{Date: date.MustParse("2024-01-02"), Type: "buy",
			QtyIn: "1", TokenIn: "stETH", QtyOut: "1800", TokenOut: "EUR"},
		{Date: date.MustParse("2024-01-05"), Type: "reward|stETH",
			QtyIn: "100", TokenIn: "USDC"},
	}
	require.NoError(t, tracker.Replay(rows))

	// The allocation list names the position exactly as the token columns
	// spell it; the reward's cost must land on the held mixed-case position.
	assert.InDelta(t, 1700, tracker.Position("stETH").Principal, 1e-9)
	assert.Nil(t, tracker.Position("STETH"), "no case-folded phantom position")
}

func TestCryptoRewardWithoutSourcesIsFree(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	err := tracker.Process(CryptoRow{
		Date: date.MustParse("2024-01-05"), Type: "reward",
		QtyIn: "0.1", TokenIn: "ETH",
	})
	require.NoError(t, err)

	pos := tracker.Position("ETH")
	assert.True(t, pos.Quantity.Equal(Q(0.1)))
	assert.InDelta(t, 0, pos.Principal, 1e-9, "quantity up, cost basis unchanged")
}

func TestCryptoFeeLayersOntoAcquiredAsset(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	err := tracker.Process(CryptoRow{
		Date: date.MustParse("2024-01-05"), Type: "buy",
		QtyIn: "100", TokenIn: "USDC", QtyOut: "100", TokenOut: "EUR",
		FeeQty: "0.01", FeeToken: "ETH",
	})
	require.NoError(t, err)

	// 0.01 ETH of gas at 2000 EUR/ETH: 20 EUR leaves ETH, lands on USDC.
	eth := tracker.Position("ETH")
	assert.True(t, eth.Quantity.Equal(Q(-0.01)), "ETH quantity = %s", eth.Quantity)
	assert.InDelta(t, -20, eth.Principal, 1e-9)
	assert.InDelta(t, 120, tracker.Position("USDC").Principal, 1e-9)
}

func TestCryptoInteractionFeeIsBurned(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	err := tracker.Process(CryptoRow{
		Date: date.MustParse("2024-01-05"), Type: "interaction",
		FeeQty: "0.02", FeeToken: "ETH",
	})
	require.NoError(t, err)

	pos := tracker.Position("ETH")
	assert.True(t, pos.Quantity.Equal(Q(-0.02)))
	assert.InDelta(t, -40, pos.Principal, 1e-9, "no target position, gas value is burned")
	require.Len(t, tracker.History(), 1)
}

func TestCryptoApproveLeavesNoTrace(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	err := tracker.Process(CryptoRow{
		Date: date.MustParse("2024-01-05"), Type: "approve USDC spending",
		FeeQty: "0.001", FeeToken: "ETH",
	})
	require.NoError(t, err)
	assert.Empty(t, tracker.History())
	assert.Nil(t, tracker.Position("ETH"))
}

func TestCryptoUnknownTypeSkipped(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	err := tracker.Process(CryptoRow{
		Date: date.MustParse("2024-01-05"), Type: "bridge",
		QtyIn: "1", TokenIn: "ETH",
	})
	require.NoError(t, err)
	assert.Empty(t, tracker.History())
}

func TestCryptoMalformedRowSkipped(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	err := tracker.Process(CryptoRow{
		Date: date.MustParse("2024-01-05"), Type: "swap",
		QtyIn: "1, 2", TokenIn: "ETH", QtyOut: "1", TokenOut: "USDC",
	})
	require.NoError(t, err, "a malformed row is logged and skipped, never fatal")
	assert.Empty(t, tracker.History())
}

func TestCryptoSendPricesItself(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	rows := []CryptoRow{
		{Date: date.MustParse("2024-01-02"), Type: "buy",
			QtyIn: "1", TokenIn: "ETH", QtyOut: "1800", TokenOut: "EUR"},
		{Date: date.MustParse("2024-01-10"), Type: "send",
			QtyOut: "0.5", TokenOut: "ETH"},
	}
	require.NoError(t, tracker.Replay(rows))

	pos := tracker.Position("ETH")
	assert.True(t, pos.Quantity.Equal(Q(0.5)))
	// Sent units leave at their own as-of value, 2200 on 2024-01-10.
	assert.InDelta(t, 1800-0.5*2200, pos.Principal, 1e-9)
}

func TestCryptoReceivePricesItself(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	err := tracker.Process(CryptoRow{
		Date: date.MustParse("2024-01-01"), Type: "receive",
		QtyIn: "2", TokenIn: "ETH",
	})
	require.NoError(t, err)

	pos := tracker.Position("ETH")
	assert.True(t, pos.Quantity.Equal(Q(2)))
	assert.InDelta(t, 4000, pos.Principal, 1e-9)
}

func TestCryptoSameDaySnapshotsCollapse(t *testing.T) {
	tracker := newCryptoTracker(t, nil)
	rows := []CryptoRow{
		{Date: date.MustParse("2024-01-02"), Type: "buy",
			QtyIn: "1", TokenIn: "ETH", QtyOut: "1000", TokenOut: "EUR"},
		{Date: date.MustParse("2024-01-02"), Type: "buy",
			QtyIn: "1", TokenIn: "ETH", QtyOut: "1000", TokenOut: "EUR"},
		{Date: date.MustParse("2024-01-03"), Type: "buy",
			QtyIn: "1", TokenIn: "ETH", QtyOut: "1000", TokenOut: "EUR"},
	}
	require.NoError(t, tracker.Replay(rows))

	history := tracker.History()
	require.Len(t, history, 2, "one row per coin per day")
	assert.True(t, history[0].Quantity.Equal(Q(2)), "day one ends at 2 ETH")
	assert.Equal(t, 2000.0, history[0].Principal)
	assert.True(t, history[1].Quantity.Equal(Q(3)))
	assert.Equal(t, 3000.0, history[1].Principal)
}
