package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/metrics"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
	"github.com/mmynk/tripsplit/pkg/api"
	"github.com/mmynk/tripsplit/pkg/api/apiconnect"
)

var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

// ExpenseService implements the Connect ExpenseService: split previews,
// expense bookkeeping, balances with suggested settlements, and recorded payments.
type ExpenseService struct {
	store   storage.Store
	planner calculator.Planner
	metrics *metrics.Metrics
}

// NewExpenseService creates a new ExpenseService. m may be nil.
func NewExpenseService(store storage.Store, planner calculator.Planner, m *metrics.Metrics) *ExpenseService {
	return &ExpenseService{store: store, planner: planner, metrics: m}
}

// ComputeSplit previews a split without storing anything. The app calls it on
// every edit of the amount, method or participants. A custom split that does
// not add up is not an error here: it comes back with Valid false and the
// difference, so the form can show it.
func (s *ExpenseService) ComputeSplit(ctx context.Context, req *connect.Request[api.ComputeSplitRequest]) (*connect.Response[api.ComputeSplitResponse], error) {
	slog.Debug("ComputeSplit request received",
		"amount", req.Msg.Amount,
		"method", req.Msg.Method,
		"participants_count", len(req.Msg.Participants),
	)

	in, err := parseSplitInput(req.Msg.Amount, req.Msg.Method, req.Msg.Participants)
	if err != nil {
		return nil, err
	}

	result, err := calculator.ComputeSplit(in.amount, in.method, in.participants)
	resp := &api.ComputeSplitResponse{
		Splits:           toAPISplits(result.Splits),
		Total:            formatAmount(result.Total()),
		AmountDifference: formatAmount(result.AmountDifference),
		Valid:            err == nil,
	}
	switch {
	case errors.Is(err, calculator.ErrSplitMismatch):
		resp.Message = err.Error()
	case err != nil:
		return nil, calculatorError(err)
	}

	return connect.NewResponse(resp), nil
}

// CreateExpense computes the split server-side and stores the expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	slog.Info("CreateExpense request received",
		"trip_id", req.Msg.TripID,
		"amount", req.Msg.Amount,
		"method", req.Msg.Method,
		"participants_count", len(req.Msg.Participants),
	)

	trip, err := loadTrip(ctx, s.store, req.Msg.TripID)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{TripID: trip.ID}
	draft := expenseDraft{
		title:        req.Msg.Title,
		amount:       req.Msg.Amount,
		currency:     req.Msg.Currency,
		category:     req.Msg.Category,
		paidBy:       req.Msg.PaidBy,
		method:       req.Msg.Method,
		participants: req.Msg.Participants,
	}
	if err := draft.apply(ctx, trip, expense); err != nil {
		return nil, err
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, storeError("CreateExpense", err, "trip_id", trip.ID)
	}

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"trip_id", trip.ID,
		"amount", formatAmount(expense.Amount),
		"paid_by", expense.PaidBy,
	)

	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// UpdateExpense recomputes the split and replaces the stored expense and its
// whole split set.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	slog.Info("UpdateExpense request received",
		"expense_id", req.Msg.ExpenseID,
		"amount", req.Msg.Amount,
		"method", req.Msg.Method,
	)

	existing, trip, err := s.loadExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}

	draft := expenseDraft{
		title:        req.Msg.Title,
		amount:       req.Msg.Amount,
		currency:     req.Msg.Currency,
		category:     req.Msg.Category,
		paidBy:       req.Msg.PaidBy,
		method:       req.Msg.Method,
		participants: req.Msg.Participants,
	}
	if err := draft.apply(ctx, trip, existing); err != nil {
		return nil, err
	}

	if err := s.store.UpdateExpense(ctx, existing); err != nil {
		return nil, storeError("UpdateExpense", err, "expense_id", existing.ID)
	}

	slog.Info("Expense updated", "expense_id", existing.ID, "trip_id", trip.ID)

	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: toAPIExpense(existing)}), nil
}

// GetExpense retrieves one expense.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	slog.Info("GetExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, _, err := s.loadExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// DeleteExpense removes an expense and its splits.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, _, err := s.loadExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		return nil, storeError("DeleteExpense", err, "expense_id", expense.ID)
	}

	slog.Info("Expense deleted", "expense_id", expense.ID, "trip_id", expense.TripID)

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ListExpenses lists a trip's expenses in creation order.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	slog.Info("ListExpenses request received", "trip_id", req.Msg.TripID)

	trip, err := loadTrip(ctx, s.store, req.Msg.TripID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByTrip(ctx, trip.ID)
	if err != nil {
		return nil, storeError("ListExpensesByTrip", err, "trip_id", trip.ID)
	}

	out := make([]api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}

	slog.Info("ListExpenses successful", "trip_id", trip.ID, "count", len(out))

	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// GetTripBalances recomputes every member's balance from a snapshot of the
// trip's expenses and recorded payments, then plans the transfers that settle
// them. Nothing here is stored.
func (s *ExpenseService) GetTripBalances(ctx context.Context, req *connect.Request[api.GetTripBalancesRequest]) (*connect.Response[api.GetTripBalancesResponse], error) {
	tripID := req.Msg.TripID
	slog.Info("GetTripBalances request received", "trip_id", tripID)

	if tripID == "" {
		return nil, invalidArgument("trip_id required")
	}

	snap, err := s.store.SnapshotTrip(ctx, tripID)
	if err != nil {
		return nil, storeError("SnapshotTrip", err, "trip_id", tripID)
	}
	if _, err := requireMember(ctx, snap.Trip); err != nil {
		return nil, err
	}

	ledger := buildLedger(snap)
	for _, w := range ledger.warnings {
		slog.Warn("Ledger warning",
			"trip_id", tripID,
			"kind", w.Kind,
			"expense_id", w.ExpenseID,
			"member", w.UserID,
			"message", w.Message,
		)
		s.metrics.ObserveWarning(string(w.Kind))
	}

	settlements, err := s.planner.Plan(ledger.balances)
	if errors.Is(err, calculator.ErrAmountOutOfRange) {
		slog.Error("GetTripBalances failed - balance out of range", "trip_id", tripID, "error", err)
		return nil, calculatorError(err)
	}
	if err != nil {
		s.metrics.ObserveImbalanced()
		slog.Error("GetTripBalances failed - imbalanced ledger",
			"trip_id", tripID,
			"sum", formatAmount(calculator.SumBalances(ledger.balances)),
			"error", err,
		)
		return nil, connect.NewError(connect.CodeDataLoss,
			fmt.Errorf("balances for trip %s do not add up; re-check the expense splits: %w", tripID, err))
	}
	s.metrics.ObservePlan(len(settlements))

	currency := snap.Trip.Currency
	if len(ledger.balances) > 0 && ledger.balances[0].Currency != "" {
		currency = ledger.balances[0].Currency
	}

	resp := &api.GetTripBalancesResponse{
		Currency:    currency,
		Balances:    make([]api.Balance, len(ledger.balances)),
		Settlements: make([]api.Settlement, len(settlements)),
	}
	for i, b := range ledger.balances {
		resp.Balances[i] = api.Balance{
			UserID:      b.UserID,
			DisplayName: b.DisplayName,
			TotalPaid:   formatAmount(b.TotalPaid),
			TotalOwed:   formatAmount(b.TotalOwed),
			Balance:     formatAmount(b.Balance),
			Unlisted:    b.Unlisted,
		}
	}
	for i, st := range settlements {
		stCurrency := st.Currency
		if stCurrency == "" {
			stCurrency = currency
		}
		resp.Settlements[i] = api.Settlement{
			FromUserID:      st.From.UserID,
			FromDisplayName: st.From.DisplayName,
			ToUserID:        st.To.UserID,
			ToDisplayName:   st.To.DisplayName,
			Amount:          formatAmount(st.Amount),
			Currency:        stCurrency,
		}
	}
	for _, w := range ledger.warnings {
		resp.Warnings = append(resp.Warnings, api.Warning{
			Kind:      string(w.Kind),
			ExpenseID: w.ExpenseID,
			UserID:    w.UserID,
			Message:   w.Message,
		})
	}

	slog.Info("GetTripBalances successful",
		"trip_id", tripID,
		"members", len(resp.Balances),
		"settlements", len(resp.Settlements),
		"warnings", len(resp.Warnings),
	)

	return connect.NewResponse(resp), nil
}

// loadExpense fetches an expense together with its trip, checking the caller is a member.
func (s *ExpenseService) loadExpense(ctx context.Context, expenseID string) (*models.Expense, *models.Trip, error) {
	if expenseID == "" {
		return nil, nil, invalidArgument("expense_id required")
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, storeError("GetExpense", err, "expense_id", expenseID)
	}
	trip, err := loadTrip(ctx, s.store, expense.TripID)
	if err != nil {
		return nil, nil, err
	}
	return expense, trip, nil
}

// expenseDraft is the editable part of an expense as sent by the client.
type expenseDraft struct {
	title        string
	amount       string
	currency     string
	category     string
	paidBy       string
	method       string
	participants []api.Participant
}

// apply validates the draft against the trip roster, computes the split and
// writes the result into expense.
func (d expenseDraft) apply(ctx context.Context, trip *models.Trip, expense *models.Expense) error {
	callerID, err := requireCaller(ctx)
	if err != nil {
		return err
	}

	currency := normalizeCurrency(d.currency)
	if currency == "" {
		currency = trip.Currency
	}
	if currency != trip.Currency {
		return invalidArgument("currency %s does not match trip currency %s", currency, trip.Currency)
	}

	paidBy := strings.TrimSpace(d.paidBy)
	if paidBy == "" {
		paidBy = callerID
	}
	if !trip.HasMember(paidBy) {
		return invalidArgument("payer %q is not a member of this trip", paidBy)
	}

	participants := d.participants
	if len(participants) == 0 {
		// Nobody selected means everyone on the trip.
		for _, m := range trip.Members {
			participants = append(participants, api.Participant{UserID: m.UserID})
		}
	}
	for _, p := range participants {
		if !trip.HasMember(strings.TrimSpace(p.UserID)) {
			return invalidArgument("participant %q is not a member of this trip", p.UserID)
		}
	}

	in, err := parseSplitInput(d.amount, d.method, participants)
	if err != nil {
		return err
	}
	result, err := calculator.ComputeSplit(in.amount, in.method, in.participants)
	if err != nil {
		return calculatorError(err)
	}

	splits := make([]models.ExpenseSplit, len(result.Splits))
	for i, split := range result.Splits {
		splits[i] = models.ExpenseSplit{UserID: split.UserID, Amount: split.Amount}
		if in.method == calculator.MethodRatio {
			splits[i].Weight = in.weights[split.UserID]
		}
	}

	expense.Title = strings.TrimSpace(d.title)
	expense.Amount = in.amount
	expense.Currency = currency
	expense.Category = strings.ToLower(strings.TrimSpace(d.category))
	expense.PaidBy = paidBy
	expense.Method = string(in.method)
	expense.Splits = splits
	return nil
}

type splitInput struct {
	amount       decimal.Decimal
	method       calculator.Method
	participants []calculator.Participant
	weights      map[string]decimal.Decimal
}

func parseSplitInput(amount, method string, in []api.Participant) (splitInput, error) {
	var out splitInput
	var err error

	if out.amount, err = parseOptional("amount", amount); err != nil {
		return out, err
	}
	if out.method, err = calculator.ParseMethod(method); err != nil {
		return out, calculatorError(err)
	}

	out.weights = make(map[string]decimal.Decimal, len(in))
	out.participants = make([]calculator.Participant, len(in))
	for i, p := range in {
		weight, err := parseOptional("weight", p.Weight)
		if err != nil {
			return out, err
		}
		share, err := parseOptional("participant amount", p.Amount)
		if err != nil {
			return out, err
		}
		userID := strings.TrimSpace(p.UserID)
		out.participants[i] = calculator.Participant{UserID: userID, Weight: weight, Amount: share}
		out.weights[userID] = weight
	}

	return out, nil
}
