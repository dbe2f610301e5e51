package service

import (
	"errors"
	"testing"

	"github.com/localmart-next/internal/constants"

	"gorm.io/gorm"
)

func TestCheckAndReserveProbeDoesNotMutate(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "probe-product", 7, constants.FulfillmentModeBoth)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		available, err := env.ledger.CheckAndReserve(tx, product.ID, 0)
		if err != nil {
			t.Fatalf("probe failed: %v", err)
		}
		if available != 7 {
			t.Fatalf("probe available want 7 got %d", available)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	if stock := env.stockOf(t, product.ID); stock != 7 {
		t.Fatalf("probe must not mutate stock: %d", stock)
	}
}

func TestCheckAndReserveDecrementsAndReports(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "reserve-product", 5, constants.FulfillmentModeBoth)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		remaining, err := env.ledger.CheckAndReserve(tx, product.ID, 3)
		if err != nil {
			t.Fatalf("reserve failed: %v", err)
		}
		if remaining != 2 {
			t.Fatalf("remaining want 2 got %d", remaining)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	if stock := env.stockOf(t, product.ID); stock != 2 {
		t.Fatalf("stock want 2 got %d", stock)
	}
}

func TestCheckAndReserveInsufficientLeavesStockUntouched(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "short-product", 2, constants.FulfillmentModeBoth)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		_, err := env.ledger.CheckAndReserve(tx, product.ID, 3)
		if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("want ErrInsufficientStock got %v", err)
		}
		var insufficient *InsufficientStockError
		if !errors.As(err, &insufficient) {
			t.Fatalf("want typed error got %v", err)
		}
		if insufficient.ProductID != product.ID || insufficient.Available != 2 {
			t.Fatalf("typed error payload mismatch: %+v", insufficient)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	if stock := env.stockOf(t, product.ID); stock != 2 {
		t.Fatalf("failed reserve must not mutate stock: %d", stock)
	}
}

func TestCheckAndReserveMissingProduct(t *testing.T) {
	env := newTestEnv(t)
	err := env.db.Transaction(func(tx *gorm.DB) error {
		_, err := env.ledger.CheckAndReserve(tx, 99999, 1)
		return err
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound got %v", err)
	}
}

func TestRestoreReturnsReservedStock(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "restore-product", 5, constants.FulfillmentModeBoth)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		if _, err := env.ledger.CheckAndReserve(tx, product.ID, 4); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	err = env.db.Transaction(func(tx *gorm.DB) error {
		return env.ledger.Restore(tx, product.ID, 4)
	})
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if stock := env.stockOf(t, product.ID); stock != 5 {
		t.Fatalf("stock want 5 got %d", stock)
	}
}

func TestRestoreMissingProductIsLoggedNotFatal(t *testing.T) {
	env := newTestEnv(t)

	// 商品已被删除时回补落空，不能让取消事务失败
	err := env.db.Transaction(func(tx *gorm.DB) error {
		return env.ledger.Restore(tx, 9999, 2)
	})
	if err != nil {
		t.Fatalf("restore for missing product should not fail: %v", err)
	}
}
