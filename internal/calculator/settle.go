package calculator

import (
	"container/heap"
	"fmt"

	"github.com/shopspring/decimal"
)

// Settlement is one advisory payment instruction: From pays To Amount.
type Settlement struct {
	From     Member
	To       Member
	Amount   decimal.Decimal
	Currency string
}

// Planner turns balances into settlements.
type Planner struct {
	// Tolerance is how far the balances may sum away from zero before the
	// ledger is rejected. Zero means DefaultTolerance.
	Tolerance decimal.Decimal
}

// PlanSettlement plans settlements with the default tolerance.
func PlanSettlement(balances []Balance) ([]Settlement, error) {
	return Planner{}.Plan(balances)
}

// Plan returns the transfers that bring every balance to zero.
//
// The largest creditor is repeatedly matched with the largest debtor, ties
// going to the lower member id, and the smaller of the two amounts is
// transferred. This emits at most n-1 settlements for n non-zero balances but
// is not guaranteed to be the minimum possible.
//
// Balances are rounded to cents first. If the rounded balances do not sum to
// zero within Tolerance the ledger is imbalanced and nothing is emitted. Drift
// inside the tolerance is absorbed by the member with the smallest non-zero
// balance so that every emitted transfer is whole.
//
// A member counts as settled only at exactly zero cents, not within
// Tolerance. Two members at +0.01 and -0.01 therefore get a 0.01 transfer,
// and applying the result always leaves every balance at exactly zero.
//
// Balances too large to hold in int64 cents are rejected with
// ErrAmountOutOfRange.
func (p Planner) Plan(balances []Balance) ([]Settlement, error) {
	tolerance := p.Tolerance
	if !tolerance.IsPositive() {
		tolerance = DefaultTolerance
	}

	var currency string
	sum := decimal.Zero
	entries := make([]*ledgerEntry, 0, len(balances))

	for _, b := range balances {
		if currency == "" {
			currency = b.Currency
		}
		cents, ok := Cents(b.Balance)
		if !ok {
			return nil, newDomainError(
				ErrorAmountOutOfRange,
				"balances",
				fmt.Sprintf("balance of %s is too large to settle", b.UserID),
			)
		}
		sum = sum.Add(FromCents(cents))
		entries = append(entries, &ledgerEntry{
			member: Member{UserID: b.UserID, DisplayName: b.DisplayName},
			cents:  cents,
		})
	}

	if sum.Abs().GreaterThan(tolerance) {
		return nil, newDomainError(
			ErrorImbalancedLedger,
			"balances",
			fmt.Sprintf("balances sum to %s instead of zero; re-check expenses", sum.StringFixed(CurrencyPlaces)),
		)
	}

	residual, ok := Cents(sum)
	if !ok {
		return nil, newDomainError(ErrorAmountOutOfRange, "tolerance", "ledger drift is too large to settle")
	}

	if residual != 0 {
		absorbResidual(entries, residual)
	}

	creditors := &entryHeap{}
	debtors := &entryHeap{}
	for _, e := range entries {
		switch {
		case e.cents > 0:
			heap.Push(creditors, e)
		case e.cents < 0:
			heap.Push(debtors, &ledgerEntry{member: e.member, cents: -e.cents})
		}
	}

	var settlements []Settlement
	for creditors.Len() > 0 && debtors.Len() > 0 {
		creditor := heap.Pop(creditors).(*ledgerEntry)
		debtor := heap.Pop(debtors).(*ledgerEntry)

		transfer := min(creditor.cents, debtor.cents)
		settlements = append(settlements, Settlement{
			From:     debtor.member,
			To:       creditor.member,
			Amount:   FromCents(transfer),
			Currency: currency,
		})

		creditor.cents -= transfer
		debtor.cents -= transfer
		if creditor.cents > 0 {
			heap.Push(creditors, creditor)
		}
		if debtor.cents > 0 {
			heap.Push(debtors, debtor)
		}
	}

	if creditors.Len() > 0 || debtors.Len() > 0 {
		return nil, newDomainError(ErrorImbalancedLedger, "balances", "settlement left members with outstanding balances")
	}

	return settlements, nil
}

// absorbResidual removes residual from the entry with the smallest non-zero
// balance, lowest member id first.
func absorbResidual(entries []*ledgerEntry, residual int64) {
	var target *ledgerEntry
	for _, e := range entries {
		if e.cents == 0 {
			continue
		}
		if target == nil || abs(e.cents) < abs(target.cents) ||
			(abs(e.cents) == abs(target.cents) && e.member.UserID < target.member.UserID) {
			target = e
		}
	}
	if target == nil {
		target = entries[0]
	}
	target.cents -= residual
}

// ApplySettlements returns a copy of balances with settlements applied as if
// they had been paid. Payers accrue TotalPaid and receivers TotalOwed, the
// same way a recorded Payment is aggregated.
func ApplySettlements(balances []Balance, settlements []Settlement) []Balance {
	out := make([]Balance, len(balances))
	copy(out, balances)

	index := make(map[string]int, len(out))
	for i, b := range out {
		index[b.UserID] = i
	}

	for _, s := range settlements {
		if i, ok := index[s.From.UserID]; ok {
			out[i].TotalPaid = out[i].TotalPaid.Add(s.Amount)
			out[i].Balance = out[i].Balance.Add(s.Amount)
		}
		if i, ok := index[s.To.UserID]; ok {
			out[i].TotalOwed = out[i].TotalOwed.Add(s.Amount)
			out[i].Balance = out[i].Balance.Sub(s.Amount)
		}
	}

	return out
}

// ledgerEntry holds a member's outstanding amount in cents.
type ledgerEntry struct {
	member Member
	cents  int64
}

// entryHeap is a max-heap on cents, ties broken by ascending member id.
type entryHeap []*ledgerEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].cents != h[j].cents {
		return h[i].cents > h[j].cents
	}
	return h[i].member.UserID < h[j].member.UserID
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(*ledgerEntry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
