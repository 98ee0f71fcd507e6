// Package networth tracks personal investment positions and their cost basis
// over time. It replays transaction tables into per-asset snapshot histories,
// one ledger per asset class, and values everything in EUR.
//
// The core functionalities include:
//   - Equity Tracking: Replaying broker transactions (buys, sells, dividends,
//     stock splits) into running per-ISIN positions, with splits applied
//     retroactively to the whole emitted history.
//   - Crypto Tracking: Replaying on-chain operations (buys, sells, transfers,
//     multi-asset swaps, rewards, contract interactions) into per-coin
//     positions, including gas fee settlement and family-proxy cost basis.
//   - As-Of Pricing: Resolving asset prices and forex rates from local CSV
//     series with carry-forward semantics, never interpolated and never
//     future-looking.
//   - Data Persistence: Encoding and decoding all tables to and from plain
//     CSV, and importing the broker's JSON export.
//
// This package serves as the foundational logic for the `nw` command-line
// tool; it performs no network access and reads all inputs from local files.
package networth
