package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Scope is the only way to read or write transactions and categories. Every
// query issued through a Scope carries the owning user's id, so an operation
// that forgets the ownership filter cannot be expressed.
type Scope interface {
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	CreateTransaction(ctx context.Context, in TransactionUpdate) (*Transaction, error)
	UpdateTransaction(ctx context.Context, id uuid.UUID, in TransactionUpdate) (bool, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) (bool, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, nameEn, nameBn, catType string) (*Category, error)
	CategoryVisible(ctx context.Context, id uuid.UUID) (bool, error)
	MonthlySummary(ctx context.Context, from, to time.Time) (income, expense decimal.Decimal, err error)
	ExpenseBreakdown(ctx context.Context, from, to time.Time) ([]CategoryAmount, error)
}

// ForUser returns the repository view scoped to one authenticated identity.
func (s *Store) ForUser(userID uuid.UUID) Scope {
	return &userScope{pool: s.pool, userID: userID}
}

type userScope struct {
	pool   *pgxpool.Pool
	userID uuid.UUID
}

const defaultTransactionLimit = 20

func (s *userScope) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	if limit > 200 {
		limit = 200
	}

	query := `
		SELECT t.id, t.user_id, t.category_id, t.amount::text, t.type, t.date, t.notes, t.created_at, t.updated_at,
		       c.id, c.name_en, c.name_bn, c.type, c.is_default, c.user_id, c.created_at
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1
	`
	args := []any{s.userID}

	if filter.From != nil {
		query += fmt.Sprintf(" AND t.date >= $%d", len(args)+1)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND t.date <= $%d", len(args)+1)
		args = append(args, *filter.To)
	}
	if filter.Type != "" {
		query += fmt.Sprintf(" AND t.type = $%d", len(args)+1)
		args = append(args, filter.Type)
	}

	query += fmt.Sprintf(" ORDER BY t.date DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Transaction, 0, limit)
	for rows.Next() {
		var tx Transaction
		var amount string
		var cat Category
		if err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.CategoryID, &amount, &tx.Type, &tx.Date, &tx.Notes, &tx.CreatedAt, &tx.UpdatedAt,
			&cat.ID, &cat.NameEn, &cat.NameBn, &cat.Type, &cat.IsDefault, &cat.UserID, &cat.CreatedAt,
		); err != nil {
			return nil, err
		}
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		tx.Category = &cat
		items = append(items, tx)
	}

	return items, rows.Err()
}

func (s *userScope) CreateTransaction(ctx context.Context, in TransactionUpdate) (*Transaction, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO transactions (user_id, category_id, amount, type, date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, user_id, category_id, amount::text, type, date, notes, created_at, updated_at
	`, s.userID, in.CategoryID, in.Amount.String(), in.Type, in.Date, in.Notes)

	return scanTransaction(row)
}

// UpdateTransaction rewrites a transaction if and only if it belongs to the
// scope's user. Returns false when no row matched.
func (s *userScope) UpdateTransaction(ctx context.Context, id uuid.UUID, in TransactionUpdate) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE transactions
		SET category_id = $3, amount = $4, type = $5, date = $6, notes = $7, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`, id, s.userID, in.CategoryID, in.Amount.String(), in.Type, in.Date, in.Notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *userScope) DeleteTransaction(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM transactions
		WHERE id = $1 AND user_id = $2
	`, id, s.userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListCategories returns the union of seeded defaults and the user's own
// private categories.
func (s *userScope) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name_en, name_bn, type, is_default, user_id, created_at
		FROM categories
		WHERE is_default = TRUE OR user_id = $1
		ORDER BY is_default DESC, name_en
	`, s.userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.NameEn, &cat.NameBn, &cat.Type, &cat.IsDefault, &cat.UserID, &cat.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, cat)
	}
	return items, rows.Err()
}

func (s *userScope) CreateCategory(ctx context.Context, nameEn, nameBn, catType string) (*Category, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO categories (name_en, name_bn, type, is_default, user_id, created_at)
		VALUES ($1, $2, $3, FALSE, $4, now())
		RETURNING id, name_en, name_bn, type, is_default, user_id, created_at
	`, nameEn, nameBn, catType, s.userID)

	var cat Category
	if err := row.Scan(&cat.ID, &cat.NameEn, &cat.NameBn, &cat.Type, &cat.IsDefault, &cat.UserID, &cat.CreatedAt); err != nil {
		return nil, err
	}
	return &cat, nil
}

// CategoryVisible reports whether the category exists and is usable by the
// scope's user: a default, or privately owned.
func (s *userScope) CategoryVisible(ctx context.Context, id uuid.UUID) (bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM categories
			WHERE id = $1 AND (is_default = TRUE OR user_id = $2)
		)
	`, id, s.userID)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *userScope) MonthlySummary(ctx context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT type, COALESCE(SUM(amount), 0)::text
		FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		GROUP BY type
	`, s.userID, from, to)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	defer rows.Close()

	income, expense := decimal.Zero, decimal.Zero
	for rows.Next() {
		var txType, sum string
		if err := rows.Scan(&txType, &sum); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		val, err := decimal.NewFromString(sum)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("parse sum: %w", err)
		}
		switch txType {
		case "INCOME":
			income = val
		case "EXPENSE":
			expense = val
		}
	}

	return income, expense, rows.Err()
}

func (s *userScope) ExpenseBreakdown(ctx context.Context, from, to time.Time) ([]CategoryAmount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.name_en, c.name_bn, SUM(t.amount)::text
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.type = 'EXPENSE' AND t.date >= $2 AND t.date <= $3
		GROUP BY c.id, c.name_en, c.name_bn
		ORDER BY SUM(t.amount) DESC
	`, s.userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CategoryAmount
	for rows.Next() {
		var item CategoryAmount
		var sum string
		if err := rows.Scan(&item.NameEn, &item.NameBn, &sum); err != nil {
			return nil, err
		}
		val, err := decimal.NewFromString(sum)
		if err != nil {
			return nil, fmt.Errorf("parse sum: %w", err)
		}
		item.Value = val
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var tx Transaction
	var amount string
	if err := row.Scan(&tx.ID, &tx.UserID, &tx.CategoryID, &amount, &tx.Type, &tx.Date, &tx.Notes, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
		return nil, err
	}
	val, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	tx.Amount = val
	return &tx, nil
}
