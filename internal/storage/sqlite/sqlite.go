// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// connectionParams are applied by the driver to every pooled connection.
// Transactions take the write lock up front so concurrent edits queue on
// busy_timeout instead of failing on lock upgrade.
const connectionParams = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+connectionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTrip persists a new trip and its initial roster.
func (s *SQLiteStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.CreatedAt == 0 {
		trip.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO trips (id, name, currency, created_at) VALUES (?, ?, ?, ?)",
		trip.ID, trip.Name, trip.Currency, trip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}

	if err := upsertMembers(ctx, tx, trip.ID, trip.Members); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetTrip retrieves a trip by ID, including its roster in join order.
func (s *SQLiteStore) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	return getTrip(ctx, s.db, tripID)
}

// ListTripsByMember retrieves every trip the user is on, newest first.
func (s *SQLiteStore) ListTripsByMember(ctx context.Context, userID string) ([]*models.Trip, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.currency, t.created_at
		 FROM trips t
		 JOIN trip_members m ON m.trip_id = t.id
		 WHERE m.user_id = ?
		 ORDER BY t.created_at DESC, t.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []*models.Trip
	for rows.Next() {
		trip := &models.Trip{}
		if err := rows.Scan(&trip.ID, &trip.Name, &trip.Currency, &trip.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trips: %w", err)
	}
	rows.Close()

	for _, trip := range trips {
		if trip.Members, err = getMembers(ctx, s.db, trip.ID); err != nil {
			return nil, err
		}
	}

	return trips, nil
}

// AddTripMembers appends members to a trip roster.
func (s *SQLiteStore) AddTripMembers(ctx context.Context, tripID string, members []models.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM trips WHERE id = ?", tripID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check trip: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("trip %s: %w", tripID, storage.ErrNotFound)
	}

	if err := upsertMembers(ctx, tx, tripID, members); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RemoveTripMember removes a member from a trip roster. The transaction takes
// the write lock up front, so no expense or payment can land between check and
// the delete.
func (s *SQLiteStore) RemoveTripMember(ctx context.Context, tripID, userID string, check func(*storage.TripSnapshot) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if check != nil {
		snap, err := snapshotTrip(ctx, tx, tripID)
		if err != nil {
			return err
		}
		if err := check(snap); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx,
		"DELETE FROM trip_members WHERE trip_id = ? AND user_id = ?",
		tripID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("member %s of trip %s: %w", userID, tripID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SnapshotTrip reads a trip with all of its expenses and payments inside one transaction.
func (s *SQLiteStore) SnapshotTrip(ctx context.Context, tripID string) (*storage.TripSnapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	return snapshotTrip(ctx, tx, tripID)
}

func snapshotTrip(ctx context.Context, q querier, tripID string) (*storage.TripSnapshot, error) {
	trip, err := getTrip(ctx, q, tripID)
	if err != nil {
		return nil, err
	}

	expenses, err := listExpenses(ctx, q, tripID)
	if err != nil {
		return nil, err
	}

	payments, err := listPayments(ctx, q, tripID)
	if err != nil {
		return nil, err
	}

	return &storage.TripSnapshot{
		Trip:     trip,
		Expenses: expenses,
		Payments: payments,
	}, nil
}

func getTrip(ctx context.Context, q querier, tripID string) (*models.Trip, error) {
	trip := &models.Trip{}
	err := q.QueryRowContext(ctx,
		"SELECT id, name, currency, created_at FROM trips WHERE id = ?",
		tripID,
	).Scan(&trip.ID, &trip.Name, &trip.Currency, &trip.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trip %s: %w", tripID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	if trip.Members, err = getMembers(ctx, q, tripID); err != nil {
		return nil, err
	}

	return trip, nil
}

func getMembers(ctx context.Context, q querier, tripID string) ([]models.Member, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT user_id, display_name FROM trip_members WHERE trip_id = ? ORDER BY position",
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}

// upsertMembers appends new members after the current last position.
// Members already on the roster keep their position.
func upsertMembers(ctx context.Context, q querier, tripID string, members []models.Member) error {
	var next int
	err := q.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), -1) + 1 FROM trip_members WHERE trip_id = ?",
		tripID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to get member position: %w", err)
	}

	for _, m := range members {
		_, err := q.ExecContext(ctx,
			`INSERT INTO trip_members (trip_id, user_id, display_name, position) VALUES (?, ?, ?, ?)
			 ON CONFLICT (trip_id, user_id) DO UPDATE SET display_name = excluded.display_name`,
			tripID, m.UserID, m.DisplayName, next,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
		next++
	}

	return nil
}
