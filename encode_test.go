package networth

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hvdmeer/networth/date"
)

func TestDecodeEquityRowsSortsByDateThenISIN(t *testing.T) {
	src := strings.NewReader(`Date,ISIN,Type,Quantity,Price,Currency,Fees,Taxes
2024-03-01,ZZ000000,BUYING,1,10,EUR,0,0
2024-01-01,BB000000,BUYING,1,10,EUR,1,0
2024-03-01,AA000000,SELLING,1,12,EUR,0,0
`)
	rows, err := DecodeEquityRows(src, zerolog.Nop())
	if err != nil {
		t.Fatalf("DecodeEquityRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	wantOrder := []string{"BB000000", "AA000000", "ZZ000000"}
	for i, isin := range wantOrder {
		if rows[i].ISIN != isin {
			t.Errorf("rows[%d].ISIN = %s, want %s", i, rows[i].ISIN, isin)
		}
	}
	if rows[0].Fees != 1 {
		t.Errorf("rows[0].Fees = %v, want 1", rows[0].Fees)
	}
}

func TestDecodeEquityRowsSkipsMalformed(t *testing.T) {
	src := strings.NewReader(`Date,ISIN,Type,Quantity,Price
2024-01-01,AA000000,BUYING,1,10
not-a-date,AA000000,BUYING,1,10
2024-01-02,,BUYING,1,10
2024-01-03,AA000000,BUYING,garbage,10
2024-01-04,AA000000,BUYING,2,20
`)
	rows, err := DecodeEquityRows(src, zerolog.Nop())
	if err != nil {
		t.Fatalf("DecodeEquityRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (malformed rows skipped)", len(rows))
	}
}

func TestDecodeEquityRowsHeaderIsCaseInsensitive(t *testing.T) {
	src := strings.NewReader(`date, isin ,TYPE,Quantity,price
2024-01-01,AA000000,BUYING,3,10
`)
	rows, err := DecodeEquityRows(src, zerolog.Nop())
	if err != nil {
		t.Fatalf("DecodeEquityRows: %v", err)
	}
	if len(rows) != 1 || !rows[0].Quantity.Equal(Q(3)) {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestDecodeCryptoRowsStableSortByDate(t *testing.T) {
	src := strings.NewReader(`Date,Type,Qty In,Token In,Qty Out,Token Out,Fee,Fee Token
2024-01-02,swap,"1, 2","AAA, BBB",3,CCC,0.01,ETH
2024-01-01,buy,1,ETH,1500,EUR,,
2024-01-02,send,,,1,AAA,,
`)
	rows, err := DecodeCryptoRows(src, zerolog.Nop())
	if err != nil {
		t.Fatalf("DecodeCryptoRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Type != "buy" {
		t.Errorf("rows[0].Type = %s, want buy", rows[0].Type)
	}
	// Same-day rows keep their source order.
	if rows[1].Type != "swap" || rows[2].Type != "send" {
		t.Errorf("same-day order not preserved: %s, %s", rows[1].Type, rows[2].Type)
	}
	if rows[1].TokenIn != "AAA, BBB" {
		t.Errorf("list cells must stay raw, got %q", rows[1].TokenIn)
	}
	if rows[1].FeeToken != "ETH" {
		t.Errorf("rows[1].FeeToken = %q, want ETH", rows[1].FeeToken)
	}
}

func TestEquitySnapshotsRoundTrip(t *testing.T) {
	history := []EquitySnapshot{
		{Date: date.MustParse("2024-01-01"), ISIN: "AA000000", Quantity: Q(10), Principal: 1000, Fees: 5, Taxes: 2},
		{Date: date.MustParse("2024-02-01"), ISIN: "AA000000", Quantity: Q(20), Principal: 1000.5, Fees: 5, Taxes: 2, Dividends: 15},
	}
	var buf bytes.Buffer
	if err := EncodeEquitySnapshots(&buf, history); err != nil {
		t.Fatalf("EncodeEquitySnapshots: %v", err)
	}
	got, err := DecodeEquitySnapshots(&buf)
	if err != nil {
		t.Fatalf("DecodeEquitySnapshots: %v", err)
	}
	if len(got) != len(history) {
		t.Fatalf("got %d snapshots, want %d", len(got), len(history))
	}
	for i := range got {
		if got[i].Date != history[i].Date || got[i].ISIN != history[i].ISIN ||
			!got[i].Quantity.Equal(history[i].Quantity) ||
			got[i].Principal != history[i].Principal ||
			got[i].Dividends != history[i].Dividends {
			t.Errorf("snapshot %d differs: got %+v, want %+v", i, got[i], history[i])
		}
	}
}

func TestEncodeCryptoSnapshotsFormat(t *testing.T) {
	history := []CryptoSnapshot{
		{Date: date.MustParse("2024-01-05"), Coin: "ETH", Quantity: Q(0.5), Principal: 1234.567},
	}
	var buf bytes.Buffer
	if err := EncodeCryptoSnapshots(&buf, history); err != nil {
		t.Fatalf("EncodeCryptoSnapshots: %v", err)
	}
	want := "Date,Coin,Quantity,Principal Invested\n2024-01-05,ETH,0.5,1234.57\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}
