// Package models defines the core domain models for the settlement engine.
//
// # Money representation
//
// All monetary amounts are int64 in the smallest currency unit (KRW has no
// fractional unit, so 10000 means 10,000 won). A TransactionEvent carries a
// signed amount: positive for approvals, negative for cancels. Settlement
// rows store unsigned magnitudes; direction is carried by EntryType, never
// by the sign of the stored amount.
//
// # Ownership
//
// A TransactionEvent is an immutable fact created once per gateway webhook
// notification. Every Settlement is owned by exactly one event and produced
// in a batch (one batch per event). Batches persist all-or-nothing after
// Zero-Sum validation.
//
// # Hierarchy
//
// Organizations form a fixed five-level hierarchy:
// DISTRIBUTOR > AGENCY > DEALER > SELLER > VENDOR. Merchants hang off a
// VENDOR-level organization. Entity paths are dot-delimited chains of
// organization codes identifying a node's position in the tree.
package models
