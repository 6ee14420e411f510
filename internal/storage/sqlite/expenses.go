package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
)

const expenseColumns = "id, trip_id, title, amount, currency, category, paid_by, method, created_at, updated_at"

// CreateExpense persists a new expense and its splits.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	expense.UpdatedAt = expense.CreatedAt
	if expense.Title == "" {
		expense.Title = generateTitle(expense.Category, expense.Splits)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.TripID, expense.Title, expense.Amount.StringFixed(2), expense.Currency,
		expense.Category, expense.PaidBy, expense.Method, expense.CreatedAt, expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertSplits(ctx, tx, expense.ID, expense.Splits); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`,
		expenseID,
	), expense)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT expense_id, user_id, amount, weight FROM expense_splits WHERE expense_id = ? ORDER BY position",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	splits, err := scanSplits(rows)
	if err != nil {
		return nil, err
	}
	expense.Splits = splits[expenseID]

	return expense, nil
}

// UpdateExpense replaces an expense row and its whole split set in one transaction.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.Title == "" {
		expense.Title = generateTitle(expense.Category, expense.Splits)
	}
	expense.UpdatedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE expenses
		 SET title = ?, amount = ?, currency = ?, category = ?, paid_by = ?, method = ?, updated_at = ?
		 WHERE id = ?`,
		expense.Title, expense.Amount.StringFixed(2), expense.Currency, expense.Category,
		expense.PaidBy, expense.Method, expense.UpdatedAt, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}

	if err := insertSplits(ctx, tx, expense.ID, expense.Splits); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteExpense removes an expense. Splits are removed by cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	return nil
}

// ListExpensesByTrip retrieves all expenses for a trip in creation order.
func (s *SQLiteStore) ListExpensesByTrip(ctx context.Context, tripID string) ([]*models.Expense, error) {
	return listExpenses(ctx, s.db, tripID)
}

func listExpenses(ctx context.Context, q querier, tripID string) ([]*models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE trip_id = ? ORDER BY created_at, rowid`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		if err := scanExpense(rows, expense); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	rows.Close()

	// One query for every split of the trip instead of one per expense.
	splitRows, err := q.QueryContext(ctx,
		`SELECT es.expense_id, es.user_id, es.amount, es.weight
		 FROM expense_splits es
		 JOIN expenses e ON e.id = es.expense_id
		 WHERE e.trip_id = ?
		 ORDER BY es.expense_id, es.position`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer splitRows.Close()

	splits, err := scanSplits(splitRows)
	if err != nil {
		return nil, err
	}
	for _, expense := range expenses {
		expense.Splits = splits[expense.ID]
	}

	return expenses, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner, e *models.Expense) error {
	return row.Scan(&e.ID, &e.TripID, &e.Title, &e.Amount, &e.Currency,
		&e.Category, &e.PaidBy, &e.Method, &e.CreatedAt, &e.UpdatedAt)
}

// scanSplits groups split rows by expense ID.
func scanSplits(rows *sql.Rows) (map[string][]models.ExpenseSplit, error) {
	splits := make(map[string][]models.ExpenseSplit)
	for rows.Next() {
		var expenseID string
		var split models.ExpenseSplit
		if err := rows.Scan(&expenseID, &split.UserID, &split.Amount, &split.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits[expenseID] = append(splits[expenseID], split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating splits: %w", err)
	}
	return splits, nil
}

func insertSplits(ctx context.Context, q querier, expenseID string, splits []models.ExpenseSplit) error {
	for i, split := range splits {
		_, err := q.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount, weight, position) VALUES (?, ?, ?, ?, ?)",
			expenseID, split.UserID, split.Amount.StringFixed(2), split.Weight.String(), i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

// generateTitle creates an auto-generated title from the category and the people splitting.
func generateTitle(category string, splits []models.ExpenseSplit) string {
	prefix := "Expense"
	if r, size := utf8.DecodeRuneInString(category); r != utf8.RuneError {
		prefix = string(unicode.ToUpper(r)) + category[size:]
	}

	if len(splits) == 0 {
		return fmt.Sprintf("%s - %s", prefix, time.Now().Format("Jan 2, 2006"))
	}

	names := make([]string, len(splits))
	for i, split := range splits {
		names[i] = split.UserID
	}
	if len(names) <= 3 {
		return fmt.Sprintf("%s with %s", prefix, strings.Join(names, ", "))
	}
	return fmt.Sprintf("%s with %s and %d others",
		prefix,
		strings.Join(names[:2], ", "),
		len(names)-2,
	)
}
