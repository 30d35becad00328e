package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rafiqulislamrabbii/expensetracker/internal/security"
)

type categorySeed struct {
	nameEn string
	nameBn string
	typ    string
}

// The default categories every account starts with. Seeding is
// idempotent: rerunning the command never duplicates a row.
var defaultCategories = []categorySeed{
	{"Salary", "বেতন", "INCOME"},
	{"Business", "ব্যবসা", "INCOME"},
	{"Gift", "উপহার", "INCOME"},
	{"Food", "খাবার", "EXPENSE"},
	{"Transport", "যাতায়াত", "EXPENSE"},
	{"Rent", "ভাড়া", "EXPENSE"},
	{"Bills", "বিল (বিদ্যুৎ/গ্যাস)", "EXPENSE"},
	{"Health", "চিকিৎসা", "EXPENSE"},
	{"Education", "শিক্ষা", "EXPENSE"},
	{"Shopping", "কেনাকাটা", "EXPENSE"},
	{"Entertainment", "বিনোদন", "EXPENSE"},
}

func main() {
	env := getEnv("EXPENSE_ENV", "dev")
	if env != "dev" && env != "test" {
		log.Fatalf("refusing to seed: EXPENSE_ENV must be 'dev' or 'test' (got '%s')", env)
	}

	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	db := getEnv("POSTGRES_DB", "expensetracker")
	user := getEnv("POSTGRES_USER", "expense")
	password := getEnv("POSTGRES_PASSWORD", "expense")
	sslmode := getEnv("POSTGRES_SSLMODE", "disable")

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, db, sslmode)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	fmt.Println("Seeding database...")

	if err := seedCategories(ctx, pool); err != nil {
		log.Fatalf("seed categories: %v", err)
	}
	fmt.Println("✓ Default categories seeded")

	if err := seedDemoUser(ctx, pool); err != nil {
		log.Fatalf("seed demo user: %v", err)
	}
	fmt.Println("✓ Demo user seeded")

	fmt.Println("Done.")
}

func seedCategories(ctx context.Context, pool *pgxpool.Pool) error {
	for _, cat := range defaultCategories {
		_, err := pool.Exec(ctx, `
			INSERT INTO categories (name_en, name_bn, type, is_default, user_id, created_at)
			SELECT $1, $2, $3, TRUE, NULL, now()
			WHERE NOT EXISTS (
				SELECT 1 FROM categories WHERE name_en = $1 AND is_default = TRUE
			)
		`, cat.nameEn, cat.nameBn, cat.typ)
		if err != nil {
			return fmt.Errorf("insert category %s: %w", cat.nameEn, err)
		}
	}
	return nil
}

func seedDemoUser(ctx context.Context, pool *pgxpool.Pool) error {
	hash, err := security.HashPassword("demo123", security.DefaultArgon2Params())
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (name, email, password_hash, currency, language, created_at)
		SELECT 'Demo User', 'demo@example.com', $1, 'BDT', 'bn', now()
		WHERE NOT EXISTS (
			SELECT 1 FROM users WHERE email = 'demo@example.com'
		)
	`, hash)
	return err
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
