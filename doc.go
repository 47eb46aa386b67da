// Package depot values a securities depot spread over several banks.
//
// The depot is described by two source tables: a registry of instruments
// (id, ticker, name, default value) and a ledger of bookings (date,
// instrument, bank, signed quantity). Everything else is derived, per run:
//
//   - Expand turns the ledger into daily share counts per instrument and bank.
//   - Align turns recorded closing prices into one price per calendar day and
//     instrument, carrying the last known price forward. Updater fetches the
//     missing closes of trading days beforehand.
//   - Valuate multiplies shares by prices, AggregateAccounts sums over banks.
//   - ComputeDeltas compares live prices with the closes of a reference day
//     (the previous trading day, and optionally the last trading day of the
//     previous month) and produces a Report.
//
// Derived tables are dense: every day, instrument and account has a cell, and
// missing facts are explicit nulls. How a sparse series becomes dense is a
// FillRule: zero for bookings, forward fill for prices.
//
// Input that has the wrong shape stops a run with an ErrValidation error.
// Missing prices, failed fetches and unknown instruments are logged and flow
// through as nulls or exclusions.
//
// This package serves as the foundational logic for the `dwatch` command-line
// tool.
package depot
