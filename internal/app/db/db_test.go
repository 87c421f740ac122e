package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("lookup: %w", pgx.ErrNoRows)) {
		t.Error("wrapped pgx.ErrNoRows not detected")
	}
	if IsNoRows(errors.New("boom")) {
		t.Error("plain error detected as no rows")
	}
}

func TestIsCheckViolation(t *testing.T) {
	if !IsCheckViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23514"})) {
		t.Error("check violation not detected")
	}
	if IsCheckViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violation detected as check violation")
	}
}

func TestNewPool_Migrates(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres migration test")
	}

	pool, err := NewPool(context.Background(), dsn)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer pool.Close()

	var n int
	if err := pool.QueryRow(context.Background(), "SELECT count(*) FROM chat_messages WHERE false").Scan(&n); err != nil {
		t.Fatalf("chat_messages missing: %v", err)
	}
}
