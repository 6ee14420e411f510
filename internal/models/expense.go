package models

import "github.com/shopspring/decimal"

// Expense is a shared expense paid by one member and split among others.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// TripID is the trip this expense belongs to.
	TripID string

	// Title is the human-readable name for the expense.
	Title string

	// Amount is the total paid. Always positive, two decimal places.
	Amount decimal.Decimal

	// Currency is the currency tag of Amount.
	Currency string

	// Category is a free-form label such as "food" or "lodging".
	Category string

	// PaidBy is the user ID of the member who fronted the money.
	PaidBy string

	// Method is the split method the splits were computed with
	// ("equal", "ratio" or "custom"). Kept so edits can recompute.
	Method string

	// Splits is the computed split. It sums to Amount.
	Splits []ExpenseSplit

	// CreatedAt is the Unix timestamp when the expense was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last edit.
	UpdatedAt int64
}

// ExpenseSplit is the portion of one expense attributed to one member.
type ExpenseSplit struct {
	UserID string

	// Amount is this member's share.
	Amount decimal.Decimal

	// Weight is the ratio weight the member was given, zero for other methods.
	Weight decimal.Decimal
}
