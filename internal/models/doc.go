// Package models defines the core domain models for tabsplit.
//
// # Bills
//
// A Bill is the aggregate everything else works on:
//   - LineItem: one purchase line, with its share ledger
//   - PersonCost: one diner's slot and the amounts allocated to them
//   - Totals: bill-level figures (tax, tip, grand total) derived from the items
//
// Bills are identified by their creation time (see Bill.ID). A bill that has
// been persisted and frozen is never edited in place; editing it produces a
// fork with a fresh creation time (see Bill.Fork).
//
// # Directory and accounts
//
//   - Person: a participant directory entry, referenced from PersonCost by GUID
//   - Account: a remote backup account on the tabsplit server
//
// # Design Principles
//
// 1. **Money is decimal**: every amount is a decimal.Decimal; only the
// allocator rounds to cents.
// 2. **Accumulators are derived**: PersonCost amounts are recomputed on every
// allocation pass and never persisted.
// 3. **Avoid circular references**: diners are referenced by DinerID and
// people by GUID rather than by pointer.
package models
