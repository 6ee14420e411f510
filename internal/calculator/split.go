package calculator

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Method selects how an expense amount is divided among participants.
type Method string

const (
	// MethodEqual gives every participant the same share, residual cents going
	// to the first participants in member-id order.
	MethodEqual Method = "equal"
	// MethodRatio divides the amount proportionally to non-negative weights.
	MethodRatio Method = "ratio"
	// MethodCustom takes explicit per-participant amounts.
	MethodCustom Method = "custom"
)

// ParseMethod converts a wire value into a Method. An empty string means equal.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MethodEqual, nil
	case MethodEqual, MethodRatio, MethodCustom:
		return m, nil
	default:
		return "", newDomainError(ErrorInvalidSplit, "method", fmt.Sprintf("unknown split method %q", s))
	}
}

// Participant is one member taking part in an expense.
// Weight is read for MethodRatio, Amount for MethodCustom; both are ignored otherwise.
type Participant struct {
	UserID string
	Weight decimal.Decimal
	Amount decimal.Decimal
}

// Split is the portion of one expense attributed to one member.
type Split struct {
	UserID string
	Amount decimal.Decimal
}

// SplitResult is the output of ComputeSplit.
//
// AmountDifference is amount - sum(Splits). It is always zero for equal and
// ratio splits. For custom splits it carries the discrepancy the caller should
// show to the user when ComputeSplit reports ErrSplitMismatch.
type SplitResult struct {
	Splits           []Split
	AmountDifference decimal.Decimal
}

// Total returns the sum of all split amounts.
func (r SplitResult) Total() decimal.Decimal {
	return sumSplits(r.Splits)
}

// ComputeSplit divides amount among participants according to method.
//
// Equal and ratio splits always sum exactly to amount. A custom split is
// returned unchanged when it adds up; otherwise the raw splits and the
// difference are returned together with an error matching ErrSplitMismatch.
// Participants with a zero ratio weight or zero custom amount are left out of
// the result rather than given a zero split.
func ComputeSplit(amount decimal.Decimal, method Method, participants []Participant) (SplitResult, error) {
	if !amount.IsPositive() {
		return SplitResult{}, newDomainError(ErrorInvalidSplit, "amount", "amount must be greater than zero")
	}

	if !isCentExact(amount) {
		return SplitResult{}, newDomainError(ErrorInvalidSplit, "amount", "amount has more than two decimal places")
	}

	total, ok := Cents(amount)
	if !ok || amount.GreaterThan(MaxAmount) {
		return SplitResult{}, newDomainError(ErrorInvalidSplit, "amount", fmt.Sprintf("amount must not exceed %s", MaxAmount.StringFixed(CurrencyPlaces)))
	}

	if err := validateParticipants(participants); err != nil {
		return SplitResult{}, err
	}

	switch method {
	case MethodEqual:
		return SplitResult{Splits: splitEqual(total, sortedByUser(participants))}, nil
	case MethodRatio:
		return splitRatio(total, sortedByUser(participants))
	case MethodCustom:
		return splitCustom(amount, participants)
	default:
		return SplitResult{}, newDomainError(ErrorInvalidSplit, "method", fmt.Sprintf("unknown split method %q", method))
	}
}

func validateParticipants(participants []Participant) error {
	if len(participants) == 0 {
		return newDomainError(ErrorInvalidSplit, "participants", "at least one participant is required")
	}

	seen := make(map[string]struct{}, len(participants))
	for i, p := range participants {
		field := fmt.Sprintf("participants[%d]", i)
		if strings.TrimSpace(p.UserID) == "" {
			return newDomainError(ErrorInvalidSplit, field+".userId", "userId is required")
		}
		if _, dup := seen[p.UserID]; dup {
			return newDomainError(ErrorInvalidSplit, field+".userId", fmt.Sprintf("participant %s appears more than once", p.UserID))
		}
		seen[p.UserID] = struct{}{}
	}

	return nil
}

func sortedByUser(participants []Participant) []Participant {
	sorted := slices.Clone(participants)
	slices.SortStableFunc(sorted, func(a, b Participant) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
	return sorted
}

func splitEqual(total int64, participants []Participant) []Split {
	n := int64(len(participants))
	shares := make([]int64, len(participants))
	for i := range shares {
		shares[i] = total / n
	}
	distributeResidual(total, shares)

	return toSplits(participants, shares)
}

func splitRatio(total int64, participants []Participant) (SplitResult, error) {
	weighted := make([]Participant, 0, len(participants))
	totalWeight := decimal.Zero

	for _, p := range participants {
		if p.Weight.IsNegative() {
			return SplitResult{}, newDomainError(ErrorInvalidSplit, "weight", fmt.Sprintf("weight for %s must not be negative", p.UserID))
		}
		if p.Weight.IsZero() {
			continue
		}
		weighted = append(weighted, p)
		totalWeight = totalWeight.Add(p.Weight)
	}

	if len(weighted) == 0 {
		return SplitResult{}, newDomainError(ErrorInvalidSplit, "weight", "at least one participant must have a positive weight")
	}

	cents := decimal.NewFromInt(total)
	shares := make([]int64, len(weighted))
	for i, p := range weighted {
		// QuoRem truncates exactly; Div would round at DivisionPrecision.
		q, _ := cents.Mul(p.Weight).QuoRem(totalWeight, 0)
		shares[i] = q.IntPart()
	}
	distributeResidual(total, shares)

	return SplitResult{Splits: toSplits(weighted, shares)}, nil
}

func splitCustom(amount decimal.Decimal, participants []Participant) (SplitResult, error) {
	splits := make([]Split, 0, len(participants))

	for _, p := range participants {
		if p.Amount.IsNegative() {
			return SplitResult{}, newDomainError(ErrorInvalidSplit, "amount", fmt.Sprintf("amount for %s must not be negative", p.UserID))
		}
		if !isCentExact(p.Amount) {
			return SplitResult{}, newDomainError(ErrorInvalidSplit, "amount", fmt.Sprintf("amount for %s has more than two decimal places", p.UserID))
		}
		if p.Amount.IsZero() {
			continue
		}
		splits = append(splits, Split{UserID: p.UserID, Amount: p.Amount})
	}

	sum := sumSplits(splits)
	result := SplitResult{Splits: splits, AmountDifference: amount.Sub(sum)}

	if result.AmountDifference.Abs().GreaterThanOrEqual(MinorUnit) {
		return result, newDomainError(
			ErrorSplitMismatch,
			"participants",
			fmt.Sprintf("split amounts total %s, expected %s (difference %s)",
				sum.StringFixed(CurrencyPlaces), amount.StringFixed(CurrencyPlaces), result.AmountDifference.StringFixed(CurrencyPlaces)),
		)
	}

	return result, nil
}

// distributeResidual adds one cent at a time to shares, in order, until they
// sum to total. Callers pass floored shares so the residual is never negative.
func distributeResidual(total int64, shares []int64) {
	var sum int64
	for _, s := range shares {
		sum += s
	}

	for i := 0; sum < total; i = (i + 1) % len(shares) {
		shares[i]++
		sum++
	}
}

func toSplits(participants []Participant, shares []int64) []Split {
	splits := make([]Split, len(participants))
	for i, p := range participants {
		splits[i] = Split{UserID: p.UserID, Amount: FromCents(shares[i])}
	}
	return splits
}

func sumSplits(splits []Split) decimal.Decimal {
	total := decimal.Zero
	for _, s := range splits {
		total = total.Add(s.Amount)
	}
	return total
}
