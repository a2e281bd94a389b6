// Package ledger holds the pure computation core: turning one expense into
// per-participant shares, folding expenses and settlements into net balances,
// and reducing balances to a small set of suggested payments. Everything in
// this package is side-effect-free and safe to recompute on demand.
package ledger
