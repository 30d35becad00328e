package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/rafiqulislamrabbii/expensetracker/internal/storage"
)

// memUserStore is an in-memory credential store for handler tests.
type memUserStore struct {
	mu    sync.Mutex
	users map[string]*storage.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*storage.User)}
}

func (s *memUserStore) GetUserByEmail(_ context.Context, email string) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (s *memUserStore) GetUserByID(_ context.Context, userID uuid.UUID) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memUserStore) CreateUser(_ context.Context, name, email, passwordHash, currency, language string) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return nil, storage.ErrEmailTaken
	}
	u := &storage.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Currency:     currency,
		Language:     language,
		CreatedAt:    time.Now(),
	}
	s.users[email] = u
	copied := *u
	return &copied, nil
}

// fakeStore backs the scoped repository with maps so handler tests run
// without Postgres. Scoping rules mirror the SQL in storage.
type fakeStore struct {
	mu           sync.Mutex
	categories   []storage.Category
	transactions []storage.Transaction
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (s *fakeStore) ForUser(userID uuid.UUID) storage.Scope {
	return &fakeScope{store: s, userID: userID}
}

func (s *fakeStore) addDefaultCategory(nameEn, nameBn, catType string) storage.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	cat := storage.Category{
		ID:        uuid.New(),
		NameEn:    nameEn,
		NameBn:    nameBn,
		Type:      catType,
		IsDefault: true,
		CreatedAt: time.Now(),
	}
	s.categories = append(s.categories, cat)
	return cat
}

type fakeScope struct {
	store  *fakeStore
	userID uuid.UUID
}

func (f *fakeScope) categoryByID(id uuid.UUID) *storage.Category {
	for i := range f.store.categories {
		cat := &f.store.categories[i]
		if cat.ID == id && (cat.IsDefault || (cat.UserID != nil && *cat.UserID == f.userID)) {
			copied := *cat
			return &copied
		}
	}
	return nil
}

func (f *fakeScope) ListTransactions(_ context.Context, filter storage.TransactionFilter) ([]storage.Transaction, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	var items []storage.Transaction
	for _, tx := range f.store.transactions {
		if tx.UserID != f.userID {
			continue
		}
		if filter.From != nil && tx.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && tx.Date.After(*filter.To) {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		tx.Category = f.categoryByID(tx.CategoryID)
		items = append(items, tx)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Date.After(items[j].Date) })

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (f *fakeScope) CreateTransaction(_ context.Context, in storage.TransactionUpdate) (*storage.Transaction, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	now := time.Now()
	tx := storage.Transaction{
		ID:         uuid.New(),
		UserID:     f.userID,
		CategoryID: in.CategoryID,
		Amount:     in.Amount,
		Type:       in.Type,
		Date:       in.Date,
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.store.transactions = append(f.store.transactions, tx)
	out := tx
	out.Category = f.categoryByID(tx.CategoryID)
	return &out, nil
}

func (f *fakeScope) UpdateTransaction(_ context.Context, id uuid.UUID, in storage.TransactionUpdate) (bool, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	for i := range f.store.transactions {
		tx := &f.store.transactions[i]
		if tx.ID == id && tx.UserID == f.userID {
			tx.Amount = in.Amount
			tx.Type = in.Type
			tx.CategoryID = in.CategoryID
			tx.Date = in.Date
			tx.Notes = in.Notes
			tx.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeScope) DeleteTransaction(_ context.Context, id uuid.UUID) (bool, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	for i := range f.store.transactions {
		tx := f.store.transactions[i]
		if tx.ID == id && tx.UserID == f.userID {
			f.store.transactions = append(f.store.transactions[:i], f.store.transactions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeScope) ListCategories(_ context.Context) ([]storage.Category, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	var items []storage.Category
	for _, cat := range f.store.categories {
		if cat.IsDefault || (cat.UserID != nil && *cat.UserID == f.userID) {
			items = append(items, cat)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].IsDefault != items[j].IsDefault {
			return items[i].IsDefault
		}
		return strings.Compare(items[i].NameEn, items[j].NameEn) < 0
	})
	return items, nil
}

func (f *fakeScope) CreateCategory(_ context.Context, nameEn, nameBn, catType string) (*storage.Category, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	owner := f.userID
	cat := storage.Category{
		ID:        uuid.New(),
		NameEn:    nameEn,
		NameBn:    nameBn,
		Type:      catType,
		IsDefault: false,
		UserID:    &owner,
		CreatedAt: time.Now(),
	}
	f.store.categories = append(f.store.categories, cat)
	out := cat
	return &out, nil
}

func (f *fakeScope) CategoryVisible(_ context.Context, id uuid.UUID) (bool, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.categoryByID(id) != nil, nil
}

func (f *fakeScope) MonthlySummary(_ context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range f.store.transactions {
		if tx.UserID != f.userID || tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		switch tx.Type {
		case "INCOME":
			income = income.Add(tx.Amount)
		case "EXPENSE":
			expense = expense.Add(tx.Amount)
		}
	}
	return income, expense, nil
}

func (f *fakeScope) ExpenseBreakdown(_ context.Context, from, to time.Time) ([]storage.CategoryAmount, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	sums := make(map[uuid.UUID]decimal.Decimal)
	for _, tx := range f.store.transactions {
		if tx.UserID != f.userID || tx.Type != "EXPENSE" || tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		sums[tx.CategoryID] = sums[tx.CategoryID].Add(tx.Amount)
	}

	var items []storage.CategoryAmount
	for id, sum := range sums {
		cat := f.categoryByID(id)
		if cat == nil {
			continue
		}
		items = append(items, storage.CategoryAmount{NameEn: cat.NameEn, NameBn: cat.NameBn, Value: sum})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Value.GreaterThan(items[j].Value) })
	return items, nil
}
