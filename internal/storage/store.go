// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/tripsplit/internal/models"
)

// ErrNotFound is returned (wrapped) when a trip, expense or payment does not exist.
var ErrNotFound = errors.New("not found")

// TripSnapshot is a consistent view of everything that feeds a trip's balances.
type TripSnapshot struct {
	Trip     *models.Trip
	Expenses []*models.Expense
	Payments []*models.Payment
}

// Store defines the interface for trip, expense and payment storage.
// This abstraction allows swapping storage backends (SQLite, a document store, etc.)
// without changing the service layer.
type Store interface {
	// CreateTrip persists a new trip with its initial roster.
	// The trip.ID and trip.CreatedAt fields are populated by the store.
	CreateTrip(ctx context.Context, trip *models.Trip) error

	// GetTrip retrieves a trip and its roster by ID.
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)

	// ListTripsByMember retrieves every trip userID is a member of.
	ListTripsByMember(ctx context.Context, userID string) ([]*models.Trip, error)

	// AddTripMembers appends members to the roster. Members already present
	// keep their position and get their display name updated.
	AddTripMembers(ctx context.Context, tripID string, members []models.Member) error

	// RemoveTripMember removes one member from the roster. check, if not nil,
	// runs on a snapshot taken inside the same write transaction; an error from
	// it aborts the removal and is returned unchanged.
	RemoveTripMember(ctx context.Context, tripID, userID string, check func(*TripSnapshot) error) error

	// CreateExpense persists a new expense and its splits.
	// The expense.ID and timestamps are populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense and its splits by ID.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces an expense and its whole split set atomically.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense and its splits.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByTrip retrieves all expenses of a trip in creation order.
	ListExpensesByTrip(ctx context.Context, tripID string) ([]*models.Expense, error)

	// CreatePayment records a repayment.
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// GetPayment retrieves a payment by ID.
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)

	// ListPaymentsByTrip retrieves all payments of a trip, newest first.
	ListPaymentsByTrip(ctx context.Context, tripID string) ([]*models.Payment, error)

	// DeletePayment removes a payment.
	DeletePayment(ctx context.Context, paymentID string) error

	// SnapshotTrip reads the trip, its expenses and its payments in a single
	// read transaction so that balances never see a half-applied edit.
	SnapshotTrip(ctx context.Context, tripID string) (*TripSnapshot, error)

	// Close releases any resources held by the store.
	Close() error
}
