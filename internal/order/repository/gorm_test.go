package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tair/gadget-inventory/internal/order/domain"
)

func TestDecrementStockIsConditional(t *testing.T) {
	db, err := gorm.Open(postgres.Open("host=localhost user=test dbname=test sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("failed to open dry-run db: %v", err)
	}

	var (
		sql  string
		vars []any
	)
	err = db.Callback().Update().After("gorm:update").Register("test:capture", func(tx *gorm.DB) {
		sql = tx.Statement.SQL.String()
		vars = tx.Statement.Vars
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	tx := &gormTx{db: db}
	err = tx.DecrementStock(context.Background(), "p1", 3)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("no affected rows must mean insufficient stock, got %v", err)
	}

	for _, want := range []string{`"quantity"=quantity - $1`, "id = $3", "is_deleted = $4", "quantity >= $5"} {
		if !strings.Contains(sql, want) {
			t.Errorf("sql %q lacks %q", sql, want)
		}
	}
	if len(vars) != 5 || vars[0] != 3 || vars[2] != "p1" || vars[3] != false || vars[4] != 3 {
		t.Errorf("vars = %v", vars)
	}
}
