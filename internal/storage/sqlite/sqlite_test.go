package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createTestTrip(t *testing.T, store *SQLiteStore, members ...string) *models.Trip {
	t.Helper()
	trip := &models.Trip{Name: "Lisbon", Currency: "EUR"}
	for _, m := range members {
		trip.Members = append(trip.Members, models.Member{UserID: m, DisplayName: strings.ToUpper(m)})
	}
	if err := store.CreateTrip(context.Background(), trip); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	return trip
}

func TestTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateTrip generates ID and keeps roster order", func(t *testing.T) {
		trip := createTestTrip(t, store, "carol", "alice", "bob")
		if trip.ID == "" {
			t.Error("Expected trip ID to be generated")
		}
		if trip.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}

		got, err := store.GetTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("GetTrip failed: %v", err)
		}
		if got.Name != "Lisbon" || got.Currency != "EUR" {
			t.Errorf("Unexpected trip: %+v", got)
		}
		want := []string{"carol", "alice", "bob"}
		if len(got.Members) != len(want) {
			t.Fatalf("Expected %d members, got %d", len(want), len(got.Members))
		}
		for i, m := range got.Members {
			if m.UserID != want[i] {
				t.Errorf("Member %d: got %s, want %s", i, m.UserID, want[i])
			}
		}
		if got.Members[0].DisplayName != "CAROL" {
			t.Errorf("Expected display name CAROL, got %s", got.Members[0].DisplayName)
		}
	})

	t.Run("GetTrip returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetTrip(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AddTripMembers appends and updates existing", func(t *testing.T) {
		trip := createTestTrip(t, store, "alice", "bob")

		err := store.AddTripMembers(ctx, trip.ID, []models.Member{
			{UserID: "dave", DisplayName: "Dave"},
			{UserID: "alice", DisplayName: "Alice L."},
		})
		if err != nil {
			t.Fatalf("AddTripMembers failed: %v", err)
		}

		got, err := store.GetTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("GetTrip failed: %v", err)
		}
		if len(got.Members) != 3 {
			t.Fatalf("Expected 3 members, got %d", len(got.Members))
		}
		if got.Members[0].UserID != "alice" || got.Members[0].DisplayName != "Alice L." {
			t.Errorf("Expected alice to keep first position with new name, got %+v", got.Members[0])
		}
		if got.Members[2].UserID != "dave" {
			t.Errorf("Expected dave last, got %s", got.Members[2].UserID)
		}
	})

	t.Run("AddTripMembers to missing trip", func(t *testing.T) {
		err := store.AddTripMembers(ctx, "nonexistent-id", []models.Member{{UserID: "x"}})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RemoveTripMember", func(t *testing.T) {
		trip := createTestTrip(t, store, "alice", "bob")

		if err := store.RemoveTripMember(ctx, trip.ID, "bob", nil); err != nil {
			t.Fatalf("RemoveTripMember failed: %v", err)
		}
		got, _ := store.GetTrip(ctx, trip.ID)
		if got.HasMember("bob") {
			t.Error("Expected bob to be removed")
		}

		err := store.RemoveTripMember(ctx, trip.ID, "bob", nil)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second removal, got %v", err)
		}
	})

	t.Run("ListTripsByMember", func(t *testing.T) {
		fresh := newTestStore(t)
		createTestTrip(t, fresh, "alice", "bob")
		createTestTrip(t, fresh, "alice")
		createTestTrip(t, fresh, "bob")

		trips, err := fresh.ListTripsByMember(ctx, "alice")
		if err != nil {
			t.Fatalf("ListTripsByMember failed: %v", err)
		}
		if len(trips) != 2 {
			t.Errorf("Expected 2 trips for alice, got %d", len(trips))
		}
		for _, trip := range trips {
			if !trip.HasMember("alice") {
				t.Errorf("Trip %s listed without alice on roster", trip.ID)
			}
		}

		trips, err = fresh.ListTripsByMember(ctx, "nobody")
		if err != nil {
			t.Fatalf("ListTripsByMember failed: %v", err)
		}
		if len(trips) != 0 {
			t.Errorf("Expected no trips, got %d", len(trips))
		}
	})
}

func TestExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	trip := createTestTrip(t, store, "alice", "bob", "carol")

	newExpense := func() *models.Expense {
		return &models.Expense{
			TripID:   trip.ID,
			Amount:   dec("100.00"),
			Currency: "EUR",
			Category: "food",
			PaidBy:   "alice",
			Method:   "equal",
			Splits: []models.ExpenseSplit{
				{UserID: "alice", Amount: dec("33.34")},
				{UserID: "bob", Amount: dec("33.33")},
				{UserID: "carol", Amount: dec("33.33")},
			},
		}
	}

	t.Run("CreateExpense round trip keeps exact amounts", func(t *testing.T) {
		expense := newExpense()
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}
		if expense.Title != "Food with alice, bob, carol" {
			t.Errorf("Unexpected generated title: %s", expense.Title)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if !got.Amount.Equal(dec("100")) {
			t.Errorf("Amount mismatch: got %s", got.Amount)
		}
		if got.PaidBy != "alice" || got.Method != "equal" || got.Category != "food" {
			t.Errorf("Unexpected expense fields: %+v", got)
		}
		if len(got.Splits) != 3 {
			t.Fatalf("Expected 3 splits, got %d", len(got.Splits))
		}
		if got.Splits[0].UserID != "alice" || !got.Splits[0].Amount.Equal(dec("33.34")) {
			t.Errorf("Unexpected first split: %+v", got.Splits[0])
		}
	})

	t.Run("Ratio weights are preserved", func(t *testing.T) {
		expense := newExpense()
		expense.Method = "ratio"
		expense.Splits = []models.ExpenseSplit{
			{UserID: "alice", Amount: dec("66.67"), Weight: dec("2")},
			{UserID: "bob", Amount: dec("33.33"), Weight: dec("1")},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if !got.Splits[0].Weight.Equal(dec("2")) {
			t.Errorf("Weight mismatch: got %s", got.Splits[0].Weight)
		}
	})

	t.Run("UpdateExpense replaces the whole split set", func(t *testing.T) {
		expense := newExpense()
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		expense.Title = "Dinner"
		expense.Amount = dec("60.00")
		expense.Method = "custom"
		expense.Splits = []models.ExpenseSplit{
			{UserID: "bob", Amount: dec("20.00")},
			{UserID: "carol", Amount: dec("40.00")},
		}
		if err := store.UpdateExpense(ctx, expense); err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Title != "Dinner" || !got.Amount.Equal(dec("60")) || got.Method != "custom" {
			t.Errorf("Unexpected updated expense: %+v", got)
		}
		if len(got.Splits) != 2 {
			t.Fatalf("Expected 2 splits after update, got %d", len(got.Splits))
		}
		for _, s := range got.Splits {
			if s.UserID == "alice" {
				t.Error("Expected alice's old split to be removed")
			}
		}
	})

	t.Run("UpdateExpense on missing expense", func(t *testing.T) {
		expense := newExpense()
		expense.ID = "nonexistent-id"
		err := store.UpdateExpense(ctx, expense)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteExpense", func(t *testing.T) {
		expense := newExpense()
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if err := store.DeleteExpense(ctx, expense.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("ListExpensesByTrip attaches splits to each expense", func(t *testing.T) {
		other := createTestTrip(t, store, "alice", "bob")
		first := newExpense()
		first.TripID = other.ID
		second := newExpense()
		second.TripID = other.ID
		second.PaidBy = "bob"
		second.Splits = second.Splits[:1]
		second.Amount = dec("33.34")
		for _, e := range []*models.Expense{first, second} {
			if err := store.CreateExpense(ctx, e); err != nil {
				t.Fatalf("CreateExpense failed: %v", err)
			}
		}

		expenses, err := store.ListExpensesByTrip(ctx, other.ID)
		if err != nil {
			t.Fatalf("ListExpensesByTrip failed: %v", err)
		}
		if len(expenses) != 2 {
			t.Fatalf("Expected 2 expenses, got %d", len(expenses))
		}
		if expenses[0].ID != first.ID || expenses[1].ID != second.ID {
			t.Error("Expected expenses in creation order")
		}
		if len(expenses[0].Splits) != 3 || len(expenses[1].Splits) != 1 {
			t.Errorf("Unexpected split counts: %d, %d", len(expenses[0].Splits), len(expenses[1].Splits))
		}
	})
}

func TestPayments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	trip := createTestTrip(t, store, "alice", "bob")

	t.Run("CreatePayment and GetPayment", func(t *testing.T) {
		payment := &models.Payment{
			TripID:     trip.ID,
			FromUserID: "bob",
			ToUserID:   "alice",
			Amount:     dec("55.00"),
			Currency:   "EUR",
			CreatedBy:  "bob",
			Note:       "dinner",
		}
		if err := store.CreatePayment(ctx, payment); err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}

		got, err := store.GetPayment(ctx, payment.ID)
		if err != nil {
			t.Fatalf("GetPayment failed: %v", err)
		}
		if got.FromUserID != "bob" || got.ToUserID != "alice" || !got.Amount.Equal(dec("55")) {
			t.Errorf("Unexpected payment: %+v", got)
		}
		if got.Note != "dinner" {
			t.Errorf("Expected note to round trip, got %q", got.Note)
		}
	})

	t.Run("Payment without note", func(t *testing.T) {
		payment := &models.Payment{
			TripID: trip.ID, FromUserID: "alice", ToUserID: "bob",
			Amount: dec("1.00"), Currency: "EUR", CreatedBy: "alice",
		}
		if err := store.CreatePayment(ctx, payment); err != nil {
			t.Fatalf("CreatePayment failed: %v", err)
		}
		got, err := store.GetPayment(ctx, payment.ID)
		if err != nil {
			t.Fatalf("GetPayment failed: %v", err)
		}
		if got.Note != "" {
			t.Errorf("Expected empty note, got %q", got.Note)
		}
	})

	t.Run("ListPaymentsByTrip newest first", func(t *testing.T) {
		payments, err := store.ListPaymentsByTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListPaymentsByTrip failed: %v", err)
		}
		if len(payments) != 2 {
			t.Fatalf("Expected 2 payments, got %d", len(payments))
		}
		if payments[0].FromUserID != "alice" {
			t.Errorf("Expected the most recent payment first, got %+v", payments[0])
		}
	})

	t.Run("DeletePayment", func(t *testing.T) {
		payments, _ := store.ListPaymentsByTrip(ctx, trip.ID)
		if err := store.DeletePayment(ctx, payments[0].ID); err != nil {
			t.Fatalf("DeletePayment failed: %v", err)
		}
		if err := store.DeletePayment(ctx, payments[0].ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestSnapshotTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	trip := createTestTrip(t, store, "alice", "bob")

	expense := &models.Expense{
		TripID: trip.ID, Title: "Taxi", Amount: dec("30.00"), Currency: "EUR",
		PaidBy: "alice", Method: "equal",
		Splits: []models.ExpenseSplit{
			{UserID: "alice", Amount: dec("15.00")},
			{UserID: "bob", Amount: dec("15.00")},
		},
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	payment := &models.Payment{
		TripID: trip.ID, FromUserID: "bob", ToUserID: "alice",
		Amount: dec("15.00"), Currency: "EUR", CreatedBy: "bob",
	}
	if err := store.CreatePayment(ctx, payment); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	snap, err := store.SnapshotTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("SnapshotTrip failed: %v", err)
	}
	if snap.Trip.ID != trip.ID || len(snap.Trip.Members) != 2 {
		t.Errorf("Unexpected trip in snapshot: %+v", snap.Trip)
	}
	if len(snap.Expenses) != 1 || len(snap.Expenses[0].Splits) != 2 {
		t.Errorf("Unexpected expenses in snapshot: %+v", snap.Expenses)
	}
	if len(snap.Payments) != 1 {
		t.Errorf("Expected 1 payment in snapshot, got %d", len(snap.Payments))
	}

	if _, err := store.SnapshotTrip(ctx, "nonexistent-id"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	trip := createTestTrip(t, store, "alice", "bob")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.CreateExpense(ctx, &models.Expense{
				TripID: trip.ID, Title: "Coffee", Amount: dec("4.00"), Currency: "EUR",
				PaidBy: "alice", Method: "equal",
				Splits: []models.ExpenseSplit{
					{UserID: "alice", Amount: dec("2.00")},
					{UserID: "bob", Amount: dec("2.00")},
				},
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
	}

	expenses, err := store.ListExpensesByTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("ListExpensesByTrip failed: %v", err)
	}
	if len(expenses) != 20 {
		t.Errorf("Expected 20 expenses, got %d", len(expenses))
	}
}

func TestRemoveTripMember_Check(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	coffee := func(tripID string) *models.Expense {
		return &models.Expense{
			TripID: tripID, Title: "Coffee", Amount: dec("4.00"), Currency: "EUR",
			PaidBy: "alice", Method: "equal",
			Splits: []models.ExpenseSplit{
				{UserID: "alice", Amount: dec("2.00")},
				{UserID: "bob", Amount: dec("2.00")},
			},
		}
	}

	t.Run("check error aborts removal", func(t *testing.T) {
		trip := createTestTrip(t, store, "alice", "bob")
		if err := store.CreateExpense(ctx, coffee(trip.ID)); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		errRefused := errors.New("refused")
		var seen int
		err := store.RemoveTripMember(ctx, trip.ID, "bob", func(snap *storage.TripSnapshot) error {
			seen = len(snap.Expenses)
			return errRefused
		})
		if !errors.Is(err, errRefused) {
			t.Fatalf("Expected check error, got %v", err)
		}
		if seen != 1 {
			t.Errorf("Expected check to see 1 expense, saw %d", seen)
		}

		got, _ := store.GetTrip(ctx, trip.ID)
		if !got.HasMember("bob") {
			t.Error("Expected bob to stay on the roster")
		}
	})

	t.Run("missing trip", func(t *testing.T) {
		err := store.RemoveTripMember(ctx, "nonexistent-id", "bob", func(*storage.TripSnapshot) error { return nil })
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("writers wait for the removal", func(t *testing.T) {
		trip := createTestTrip(t, store, "alice", "bob")

		done := make(chan error, 1)
		err := store.RemoveTripMember(ctx, trip.ID, "bob", func(snap *storage.TripSnapshot) error {
			go func() { done <- store.CreateExpense(ctx, coffee(trip.ID)) }()
			select {
			case err := <-done:
				return fmt.Errorf("expense written during removal (err=%v)", err)
			case <-time.After(200 * time.Millisecond):
			}
			if len(snap.Expenses) != 0 {
				return fmt.Errorf("expected no expenses, got %d", len(snap.Expenses))
			}
			return nil
		})
		if err != nil {
			t.Fatalf("RemoveTripMember failed: %v", err)
		}

		if err := <-done; err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		got, _ := store.GetTrip(ctx, trip.ID)
		if got.HasMember("bob") {
			t.Error("Expected bob to be removed")
		}
	})
}

func TestGenerateTitle(t *testing.T) {
	splits := func(ids ...string) []models.ExpenseSplit {
		out := make([]models.ExpenseSplit, len(ids))
		for i, id := range ids {
			out[i] = models.ExpenseSplit{UserID: id}
		}
		return out
	}

	tests := []struct {
		category     string
		splits       []models.ExpenseSplit
		wantContains string
	}{
		{"", nil, "Expense -"},
		{"lodging", nil, "Lodging -"},
		{"", splits("alice"), "Expense with alice"},
		{"food", splits("alice", "bob"), "Food with alice, bob"},
		{"", splits("alice", "bob", "carol"), "with alice, bob, carol"},
		{"", splits("alice", "bob", "carol", "dave"), "with alice, bob and 2 others"},
		{"été", splits("alice"), "Été with alice"},
		{"ñoquis", nil, "Ñoquis -"},
	}

	for _, tt := range tests {
		t.Run(tt.wantContains, func(t *testing.T) {
			got := generateTitle(tt.category, tt.splits)
			if !strings.Contains(got, tt.wantContains) {
				t.Errorf("generateTitle(%q, %v) = %q, want to contain %q", tt.category, tt.splits, got, tt.wantContains)
			}
			if !utf8.ValidString(got) {
				t.Errorf("generateTitle(%q, %v) = %q is not valid UTF-8", tt.category, tt.splits, got)
			}
		})
	}
}
