package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/localmart-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCartRepositoryTest(t *testing.T) (*GormCartRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.CartItem{}, &models.CartSession{}); err != nil {
		t.Fatalf("migrate cart tables failed: %v", err)
	}
	return NewCartRepository(db), db
}

func TestOwnerScopeSeparatesUserAndSession(t *testing.T) {
	repo, _ := setupCartRepositoryTest(t)
	userOwner := models.UserOwner(7)
	sessionOwner := models.SessionOwner("11111111-1111-1111-1111-111111111111")

	if err := repo.Upsert(userOwner, 1, 0, 2); err != nil {
		t.Fatalf("upsert user item failed: %v", err)
	}
	if err := repo.Upsert(sessionOwner, 1, 0, 5); err != nil {
		t.Fatalf("upsert session item failed: %v", err)
	}

	userItems, err := repo.ListByOwner(userOwner)
	if err != nil {
		t.Fatalf("list user items failed: %v", err)
	}
	if len(userItems) != 1 || userItems[0].Quantity != 2 {
		t.Fatalf("user items mismatch: %+v", userItems)
	}

	sessionItems, err := repo.ListByOwner(sessionOwner)
	if err != nil {
		t.Fatalf("list session items failed: %v", err)
	}
	if len(sessionItems) != 1 || sessionItems[0].Quantity != 5 {
		t.Fatalf("session items mismatch: %+v", sessionItems)
	}
}

func TestUpsertUpdatesEarliestRow(t *testing.T) {
	repo, db := setupCartRepositoryTest(t)
	owner := models.UserOwner(3)

	// 直接插入两条同键行，模拟并发添加产生的重复
	rows := []models.CartItem{
		{UserID: 3, ProductID: 9, VariantID: 0, Quantity: 1},
		{UserID: 3, ProductID: 9, VariantID: 0, Quantity: 4},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("create duplicate rows failed: %v", err)
	}

	if err := repo.Upsert(owner, 9, 0, 6); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := repo.GetByOwnerKey(owner, 9, 0)
	if err != nil {
		t.Fatalf("get by key failed: %v", err)
	}
	if got == nil || got.ID != rows[0].ID || got.Quantity != 6 {
		t.Fatalf("earliest row not updated: %+v", got)
	}
}

func TestDeleteByOwnerKeyRemovesDuplicates(t *testing.T) {
	repo, db := setupCartRepositoryTest(t)
	owner := models.UserOwner(4)

	rows := []models.CartItem{
		{UserID: 4, ProductID: 2, VariantID: 0, Quantity: 1},
		{UserID: 4, ProductID: 2, VariantID: 0, Quantity: 2},
		{UserID: 4, ProductID: 5, VariantID: 0, Quantity: 1},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("create rows failed: %v", err)
	}

	affected, err := repo.DeleteByOwnerKey(owner, 2, 0)
	if err != nil {
		t.Fatalf("delete by key failed: %v", err)
	}
	if affected != 2 {
		t.Fatalf("delete affected want 2 got %d", affected)
	}

	remaining, err := repo.ListByOwner(owner)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ProductID != 5 {
		t.Fatalf("remaining rows mismatch: %+v", remaining)
	}
}

func TestReassignOwnerMovesSessionRows(t *testing.T) {
	repo, _ := setupCartRepositoryTest(t)
	sessionID := "22222222-2222-2222-2222-222222222222"
	sessionOwner := models.SessionOwner(sessionID)

	if err := repo.Upsert(sessionOwner, 1, 0, 2); err != nil {
		t.Fatalf("upsert session item failed: %v", err)
	}
	if err := repo.Upsert(sessionOwner, 2, 0, 1); err != nil {
		t.Fatalf("upsert session item failed: %v", err)
	}

	moved, err := repo.ReassignOwner(sessionID, 10)
	if err != nil {
		t.Fatalf("reassign owner failed: %v", err)
	}
	if moved != 2 {
		t.Fatalf("moved want 2 got %d", moved)
	}

	sessionItems, err := repo.ListByOwner(sessionOwner)
	if err != nil {
		t.Fatalf("list session items failed: %v", err)
	}
	if len(sessionItems) != 0 {
		t.Fatalf("session rows should be gone: %+v", sessionItems)
	}

	userItems, err := repo.ListByOwner(models.UserOwner(10))
	if err != nil {
		t.Fatalf("list user items failed: %v", err)
	}
	if len(userItems) != 2 {
		t.Fatalf("user rows want 2 got %d", len(userItems))
	}
}

func TestSessionMarkMergedIsOneShot(t *testing.T) {
	_, db := setupCartRepositoryTest(t)
	sessions := NewSessionRepository(db)
	sessionID := "33333333-3333-3333-3333-333333333333"

	if _, err := sessions.GetOrCreate(sessionID); err != nil {
		t.Fatalf("get or create session failed: %v", err)
	}

	now := time.Now()
	affected, err := sessions.MarkMerged(sessionID, 8, now)
	if err != nil {
		t.Fatalf("mark merged failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("first merge affected want 1 got %d", affected)
	}

	affected, err = sessions.MarkMerged(sessionID, 8, now)
	if err != nil {
		t.Fatalf("second mark merged failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("second merge affected want 0 got %d", affected)
	}
}
