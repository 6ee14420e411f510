// Package service implements the tripsplit Connect services on top of the
// storage layer and the calculator.
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
	"github.com/mmynk/tripsplit/internal/middleware"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
	"github.com/mmynk/tripsplit/pkg/api"
)

var (
	errUnauthenticated = errors.New("authentication required")
	errNotMember       = errors.New("caller is not a member of this trip")
)

// storeError maps a storage failure to a Connect error, logging anything that
// is not a plain not-found.
func storeError(op string, err error, args ...any) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	slog.Error(op+" failed", append(args, "error", err)...)
	return connect.NewError(connect.CodeInternal, fmt.Errorf("%s: %w", op, err))
}

// calculatorError maps a calculator DomainError to a Connect error.
func calculatorError(err error) error {
	switch {
	case errors.Is(err, calculator.ErrImbalancedLedger):
		return connect.NewError(connect.CodeDataLoss, err)
	case errors.Is(err, calculator.ErrAmountOutOfRange):
		return connect.NewError(connect.CodeOutOfRange, err)
	case errors.Is(err, calculator.ErrInvalidSplit), errors.Is(err, calculator.ErrSplitMismatch):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// requireCaller returns the authenticated user ID placed in ctx by the auth interceptor.
func requireCaller(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}
	return userID, nil
}

// requireMember checks that the caller is on the trip roster.
func requireMember(ctx context.Context, trip *models.Trip) (string, error) {
	userID, err := requireCaller(ctx)
	if err != nil {
		return "", err
	}
	if !trip.HasMember(userID) {
		return "", connect.NewError(connect.CodePermissionDenied, errNotMember)
	}
	return userID, nil
}

// loadTrip fetches a trip the caller is a member of.
func loadTrip(ctx context.Context, store storage.Store, tripID string) (*models.Trip, error) {
	if tripID == "" {
		return nil, invalidArgument("trip_id required")
	}
	trip, err := store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, storeError("GetTrip", err, "trip_id", tripID)
	}
	if _, err := requireMember(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// parseAmount parses a money field, rejecting anything not positive, below a
// cent, or above calculator.MaxAmount.
func parseAmount(field, value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, invalidArgument("%s: %q is not a number", field, value)
	}
	if !amount.IsPositive() {
		return decimal.Zero, invalidArgument("%s must be greater than zero", field)
	}
	if !amount.Equal(amount.Round(calculator.CurrencyPlaces)) {
		return decimal.Zero, invalidArgument("%s has more than %d decimal places", field, calculator.CurrencyPlaces)
	}
	if amount.GreaterThan(calculator.MaxAmount) {
		return decimal.Zero, invalidArgument("%s must not exceed %s", field, formatAmount(calculator.MaxAmount))
	}
	return amount, nil
}

// parseOptional parses a decimal field that may be left empty.
func parseOptional(field, value string) (decimal.Decimal, error) {
	d, err := calculator.ParseAmount(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, invalidArgument("%s: %q is not a number", field, value)
	}
	return d, nil
}

func normalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(calculator.CurrencyPlaces)
}

func toAPITrip(trip *models.Trip) api.Trip {
	members := make([]api.Member, len(trip.Members))
	for i, m := range trip.Members {
		members[i] = api.Member{UserID: m.UserID, DisplayName: m.DisplayName}
	}
	return api.Trip{
		ID:        trip.ID,
		Name:      trip.Name,
		Currency:  trip.Currency,
		Members:   members,
		CreatedAt: trip.CreatedAt,
	}
}

func toAPIExpense(e *models.Expense) api.Expense {
	splits := make([]api.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = api.Split{UserID: s.UserID, Amount: formatAmount(s.Amount)}
		if !s.Weight.IsZero() {
			splits[i].Weight = s.Weight.String()
		}
	}
	return api.Expense{
		ID:        e.ID,
		TripID:    e.TripID,
		Title:     e.Title,
		Amount:    formatAmount(e.Amount),
		Currency:  e.Currency,
		Category:  e.Category,
		PaidBy:    e.PaidBy,
		Method:    e.Method,
		Splits:    splits,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func toAPIPayment(p *models.Payment) api.Payment {
	return api.Payment{
		ID:         p.ID,
		TripID:     p.TripID,
		FromUserID: p.FromUserID,
		ToUserID:   p.ToUserID,
		Amount:     formatAmount(p.Amount),
		Currency:   p.Currency,
		CreatedAt:  p.CreatedAt,
		CreatedBy:  p.CreatedBy,
		Note:       p.Note,
	}
}

func toAPISplits(splits []calculator.Split) []api.Split {
	out := make([]api.Split, len(splits))
	for i, s := range splits {
		out[i] = api.Split{UserID: s.UserID, Amount: formatAmount(s.Amount)}
	}
	return out
}
