package calculator

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Member identifies a trip member. DisplayName is only used for presentation.
type Member struct {
	UserID      string
	DisplayName string
}

// Expense is a shared expense whose split has already been computed.
type Expense struct {
	ID         string
	Title      string
	Amount     decimal.Decimal
	Currency   string
	Category   string
	PaidBy     string
	SplitAmong []Split
}

// Payment is a recorded repayment from one member to another.
type Payment struct {
	ID         string
	FromUserID string
	ToUserID   string
	Amount     decimal.Decimal
	Currency   string
}

// PaymentExpense expresses a repayment as an expense fronted by the payer and
// owed entirely by the receiver, so it can be folded in by AggregateBalances.
func PaymentExpense(p Payment) Expense {
	return Expense{
		ID:         p.ID,
		Title:      "Payment",
		Amount:     p.Amount,
		Currency:   p.Currency,
		PaidBy:     p.FromUserID,
		SplitAmong: []Split{{UserID: p.ToUserID, Amount: p.Amount}},
	}
}

// Balance is one member's net position across all expenses.
// Positive means the member is owed money, negative means they owe money.
type Balance struct {
	UserID      string
	DisplayName string
	Currency    string
	TotalPaid   decimal.Decimal
	TotalOwed   decimal.Decimal
	Balance     decimal.Decimal

	// Unlisted is set for members that appear in expenses but not in the roster.
	Unlisted bool
}

// WarningKind classifies data-integrity problems found while aggregating.
type WarningKind string

const (
	// WarningUnknownMember: a payer or split member is not on the roster.
	WarningUnknownMember WarningKind = "unknown_member"
	// WarningSplitMismatch: an expense's splits do not add up to its amount.
	WarningSplitMismatch WarningKind = "split_mismatch"
	// WarningMixedCurrency: expenses use more than one currency.
	WarningMixedCurrency WarningKind = "mixed_currency"
)

// Warning describes a data-integrity problem that did not stop aggregation.
type Warning struct {
	Kind      WarningKind
	ExpenseID string
	UserID    string
	Message   string
}

// AggregateBalances computes one Balance per roster member from expenses.
//
// Every roster member is present in the result, in roster order, including
// members without activity. Members that appear in an expense but not in the
// roster are appended after the roster (sorted by id) with Unlisted set and a
// WarningUnknownMember is reported, so the ledger stays closed while the
// membership source catches up.
func AggregateBalances(expenses []Expense, roster []Member) ([]Balance, []Warning) {
	balances := make([]Balance, 0, len(roster))
	index := make(map[string]int, len(roster))

	for _, m := range roster {
		if _, exists := index[m.UserID]; exists {
			continue
		}
		index[m.UserID] = len(balances)
		balances = append(balances, Balance{UserID: m.UserID, DisplayName: m.DisplayName})
	}

	var (
		warnings []Warning
		unlisted []Balance
		currency string
	)
	unlistedIndex := make(map[string]int)

	// lookup returns the balance row for userID, creating an unlisted row on first sight.
	lookup := func(expenseID, userID string) *Balance {
		if i, ok := index[userID]; ok {
			return &balances[i]
		}
		if i, ok := unlistedIndex[userID]; ok {
			return &unlisted[i]
		}
		warnings = append(warnings, Warning{
			Kind:      WarningUnknownMember,
			ExpenseID: expenseID,
			UserID:    userID,
			Message:   fmt.Sprintf("member %s is not on the trip roster", userID),
		})
		unlistedIndex[userID] = len(unlisted)
		unlisted = append(unlisted, Balance{UserID: userID, DisplayName: userID, Unlisted: true})
		return &unlisted[len(unlisted)-1]
	}

	for _, e := range expenses {
		switch {
		case currency == "":
			currency = e.Currency
		case e.Currency != "" && e.Currency != currency:
			warnings = append(warnings, Warning{
				Kind:      WarningMixedCurrency,
				ExpenseID: e.ID,
				Message:   fmt.Sprintf("expense currency %s differs from ledger currency %s", e.Currency, currency),
			})
		}

		payer := lookup(e.ID, e.PaidBy)
		payer.TotalPaid = payer.TotalPaid.Add(e.Amount)

		owed := decimal.Zero
		for _, s := range e.SplitAmong {
			member := lookup(e.ID, s.UserID)
			member.TotalOwed = member.TotalOwed.Add(s.Amount)
			owed = owed.Add(s.Amount)
		}

		if diff := e.Amount.Sub(owed); diff.Abs().GreaterThanOrEqual(MinorUnit) {
			warnings = append(warnings, Warning{
				Kind:      WarningSplitMismatch,
				ExpenseID: e.ID,
				Message:   fmt.Sprintf("splits total %s but expense amount is %s", owed.StringFixed(CurrencyPlaces), e.Amount.StringFixed(CurrencyPlaces)),
			})
		}
	}

	slices.SortFunc(unlisted, func(a, b Balance) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
	balances = append(balances, unlisted...)

	for i := range balances {
		balances[i].Currency = currency
		balances[i].Balance = balances[i].TotalPaid.Sub(balances[i].TotalOwed)
	}

	return balances, warnings
}

// SumBalances returns the sum of all net balances. For a consistent ledger it is zero.
func SumBalances(balances []Balance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Balance)
	}
	return total
}
