// Package models defines the core domain models for receipt splitting.
//
// # Models
//
//   - Receipt: a scanned or manually entered receipt with its split state
//   - ReceiptData: the extracted receipt contents (items and aggregate charges)
//   - LineItem: one priced entry on a receipt
//   - Participant: a person taking part in the split
//   - Assignment: the multiset of participants claiming units of one item
//
// # Item identity
//
// Line items carry no id of their own. An item is referenced by its
// zero-based position in ReceiptData.Items rendered as a decimal string
// (see ItemID). Persisted assignments rely on this scheme, so reordering or
// deleting items orphans assignments that point at old positions.
//
// # Money
//
// All amounts are decimal.Decimal values in the receipt's currency. Item
// prices are line totals, not unit prices.
package models
