package service

import (
	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/storage"
)

// tripLedger is the aggregated state of one trip snapshot.
type tripLedger struct {
	balances []calculator.Balance
	warnings []calculator.Warning
}

// buildLedger folds every expense and recorded payment of a snapshot into
// per-member balances. Payments go through the same aggregation as expenses.
func buildLedger(snap *storage.TripSnapshot) tripLedger {
	roster := make([]calculator.Member, len(snap.Trip.Members))
	for i, m := range snap.Trip.Members {
		roster[i] = calculator.Member{UserID: m.UserID, DisplayName: m.DisplayName}
	}

	expenses := make([]calculator.Expense, 0, len(snap.Expenses)+len(snap.Payments))
	for _, e := range snap.Expenses {
		splits := make([]calculator.Split, len(e.Splits))
		for i, s := range e.Splits {
			splits[i] = calculator.Split{UserID: s.UserID, Amount: s.Amount}
		}
		expenses = append(expenses, calculator.Expense{
			ID:         e.ID,
			Title:      e.Title,
			Amount:     e.Amount,
			Currency:   e.Currency,
			Category:   e.Category,
			PaidBy:     e.PaidBy,
			SplitAmong: splits,
		})
	}
	for _, p := range snap.Payments {
		expenses = append(expenses, calculator.PaymentExpense(calculator.Payment{
			ID:         p.ID,
			FromUserID: p.FromUserID,
			ToUserID:   p.ToUserID,
			Amount:     p.Amount,
			Currency:   p.Currency,
		}))
	}

	balances, warnings := calculator.AggregateBalances(expenses, roster)
	return tripLedger{balances: balances, warnings: warnings}
}

// balanceOf returns the balance of userID, or false when the ledger has none.
func (l tripLedger) balanceOf(userID string) (calculator.Balance, bool) {
	for _, b := range l.balances {
		if b.UserID == userID {
			return b, true
		}
	}
	return calculator.Balance{}, false
}
