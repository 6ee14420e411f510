// Package models defines the persisted domain models for tripsplit.
//
// # Models
//
//   - Trip: a trip and its member roster (the membership source of truth)
//   - Member: one trip member, identified by the user ID issued by the identity provider
//   - Expense: a shared expense with its computed split
//   - ExpenseSplit: one member's portion of an expense
//   - Payment: a recorded repayment between two members
//
// Balances and suggested settlements are never stored. They are recomputed by
// the calculator package from a snapshot of a trip's expenses and payments.
//
// # Design Principles
//
// 1. **Amounts are decimals**: all money uses shopspring/decimal at two decimal places
// 2. **Whole split sets**: editing an expense replaces every ExpenseSplit at once
// 3. **Avoid circular references**: use ID strings instead of pointers for relationships
package models
