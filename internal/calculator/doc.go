// Package calculator implements the expense math for a trip: splitting one
// expense among participants, folding split expenses into per-member balances,
// and planning the transfers that settle those balances.
//
// The three stages are pure functions and form a one-way pipeline:
//
//	ComputeSplit      amount + method + participants -> []Split
//	AggregateBalances []Expense + roster             -> []Balance
//	PlanSettlement    []Balance                      -> []Settlement
//
// All amounts are github.com/shopspring/decimal values kept at two decimal
// places. Splitting and settlement work in integer cents so that
// sum(splits) == amount and sum(balances) == 0 hold exactly.
//
// None of the functions retain or mutate their inputs, so they are safe to call
// from any goroutine. Callers that edit expenses concurrently must pass a
// snapshot.
package calculator
