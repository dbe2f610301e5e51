package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/localmart-next/internal/constants"
	"github.com/localmart-next/internal/models"
)

func TestAddItemClampsToStock(t *testing.T) {
	env := newTestEnv(t)
	user := env.createLocalUser(t, "clamp@example.com")
	owner := models.UserOwner(user.ID)
	product := env.createProduct(t, "clamp-product", 5, constants.FulfillmentModeBoth)

	result, err := env.cart.AddItem(owner, product.ID, 0, 3)
	if err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if result.Status != constants.CartAddStatusAdded || result.Quantity != 3 {
		t.Fatalf("first add want ADDED/3 got %s/%d", result.Status, result.Quantity)
	}

	// 3 + 4 超出库存 5，夹取到 5 并标记部分添加
	result, err = env.cart.AddItem(owner, product.ID, 0, 4)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if result.Status != constants.CartAddStatusPartial || result.Quantity != 5 {
		t.Fatalf("second add want ADDED_PARTIAL/5 got %s/%d", result.Status, result.Quantity)
	}

	rows := env.cartRows(t, owner)
	if len(rows) != 1 || rows[0].Quantity != 5 {
		t.Fatalf("cart rows mismatch: %+v", rows)
	}
	// 加购不预占库存
	if stock := env.stockOf(t, product.ID); stock != 5 {
		t.Fatalf("stock want 5 got %d", stock)
	}
}

func TestAddThenRemoveLeavesNoRow(t *testing.T) {
	env := newTestEnv(t)
	user := env.createLocalUser(t, "remove@example.com")
	owner := models.UserOwner(user.ID)
	product := env.createProduct(t, "remove-product", 5, constants.FulfillmentModeBoth)

	if _, err := env.cart.AddItem(owner, product.ID, 0, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	removed, err := env.cart.RemoveItem(owner, product.ID, 0)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !removed {
		t.Fatalf("remove want true")
	}
	if rows := env.cartRows(t, owner); len(rows) != 0 {
		t.Fatalf("cart should be empty: %+v", rows)
	}

	// 再删不算错误
	removed, err = env.cart.RemoveItem(owner, product.ID, 0)
	if err != nil {
		t.Fatalf("second remove failed: %v", err)
	}
	if removed {
		t.Fatalf("second remove want false")
	}
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	env := newTestEnv(t)
	user := env.createLocalUser(t, "setqty@example.com")
	owner := models.UserOwner(user.ID)
	product := env.createProduct(t, "setqty-product", 10, constants.FulfillmentModeBoth)

	if _, err := env.cart.AddItem(owner, product.ID, 0, 4); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	result, err := env.cart.SetQuantity(owner, product.ID, 0, 2)
	if err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if result.Status != constants.CartAddStatusAdded || result.Quantity != 2 {
		t.Fatalf("set want ADDED/2 got %s/%d", result.Status, result.Quantity)
	}

	result, err = env.cart.SetQuantity(owner, product.ID, 0, 0)
	if err != nil {
		t.Fatalf("set zero failed: %v", err)
	}
	if result.Status != constants.CartAddStatusRemoved || result.Quantity != 0 {
		t.Fatalf("set zero want REMOVED/0 got %s/%d", result.Status, result.Quantity)
	}
	if rows := env.cartRows(t, owner); len(rows) != 0 {
		t.Fatalf("cart should be empty: %+v", rows)
	}
}

func TestAddItemLocalityGate(t *testing.T) {
	env := newTestEnv(t)
	localUser := env.createLocalUser(t, "local@example.com")
	remoteUser := env.createRemoteUser(t, "remote@example.com")
	product := env.createProduct(t, "local-only-product", 5, constants.FulfillmentModeLocalOnly)

	if _, err := env.cart.AddItem(models.UserOwner(localUser.ID), product.ID, 0, 1); err != nil {
		t.Fatalf("local user add failed: %v", err)
	}

	_, err := env.cart.AddItem(models.UserOwner(remoteUser.ID), product.ID, 0, 1)
	if !errors.Is(err, ErrLocalityRestricted) {
		t.Fatalf("remote user want ErrLocalityRestricted got %v", err)
	}
	var restricted *LocalityRestrictedError
	if !errors.As(err, &restricted) || restricted.DistanceMiles == nil {
		t.Fatalf("restricted error should carry distance: %v", err)
	}
	if *restricted.DistanceMiles < 100 {
		t.Fatalf("boston distance want > 100 miles got %.1f", *restricted.DistanceMiles)
	}

	// 匿名会话永远圈外
	sessionOwner := models.SessionOwner("44444444-4444-4444-4444-444444444444")
	_, err = env.cart.AddItem(sessionOwner, product.ID, 0, 1)
	if !errors.Is(err, ErrLocalityRestricted) {
		t.Fatalf("anonymous want ErrLocalityRestricted got %v", err)
	}

	// 非本地限定商品不受影响
	shipProduct := env.createProduct(t, "ship-product", 5, constants.FulfillmentModeShipOnly)
	if _, err := env.cart.AddItem(sessionOwner, shipProduct.ID, 0, 1); err != nil {
		t.Fatalf("anonymous ship-only add failed: %v", err)
	}
}

func TestConsolidateMergesDuplicateRows(t *testing.T) {
	env := newTestEnv(t)
	user := env.createLocalUser(t, "consolidate@example.com")
	owner := models.UserOwner(user.ID)
	product := env.createProduct(t, "consolidate-product", 4, constants.FulfillmentModeBoth)

	// 直接写入同键重复行，模拟并发添加的竞态结果
	rows := []models.CartItem{
		{UserID: user.ID, ProductID: product.ID, VariantID: 0, Quantity: 3},
		{UserID: user.ID, ProductID: product.ID, VariantID: 0, Quantity: 2},
		{UserID: user.ID, ProductID: product.ID, VariantID: 0, Quantity: 1},
	}
	if err := env.db.Create(&rows).Error; err != nil {
		t.Fatalf("create duplicate rows failed: %v", err)
	}

	if err := env.cart.Consolidate(owner); err != nil {
		t.Fatalf("consolidate failed: %v", err)
	}

	got := env.cartRows(t, owner)
	if len(got) != 1 {
		t.Fatalf("want single row got %+v", got)
	}
	// 总和 6 夹取到库存 4，准行为最早一行
	if got[0].ID != rows[0].ID || got[0].Quantity != 4 {
		t.Fatalf("canonical row mismatch: %+v", got[0])
	}

	// 幂等
	if err := env.cart.Consolidate(owner); err != nil {
		t.Fatalf("second consolidate failed: %v", err)
	}
	again := env.cartRows(t, owner)
	if len(again) != 1 || again[0].ID != got[0].ID || again[0].Quantity != 4 {
		t.Fatalf("consolidate not idempotent: %+v", again)
	}
}

func TestConsolidateDropsZeroStockKeys(t *testing.T) {
	env := newTestEnv(t)
	user := env.createLocalUser(t, "zerostock@example.com")
	owner := models.UserOwner(user.ID)
	product := env.createProduct(t, "zerostock-product", 0, constants.FulfillmentModeBoth)

	row := models.CartItem{UserID: user.ID, ProductID: product.ID, VariantID: 0, Quantity: 2}
	if err := env.db.Create(&row).Error; err != nil {
		t.Fatalf("create row failed: %v", err)
	}

	if err := env.cart.Consolidate(owner); err != nil {
		t.Fatalf("consolidate failed: %v", err)
	}
	if rows := env.cartRows(t, owner); len(rows) != 0 {
		t.Fatalf("zero-stock key should be dropped: %+v", rows)
	}
}

func TestMergeSessionIntoUserClampsAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createLocalUser(t, "merge@example.com")
	owner := models.UserOwner(user.ID)
	product := env.createProduct(t, "merge-product", 5, constants.FulfillmentModeBoth)

	sessionID := "55555555-5555-5555-5555-555555555555"
	sessionOwner := models.SessionOwner(sessionID)
	if _, err := env.sessions.GetOrCreate(sessionID); err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	if _, err := env.cart.AddItem(sessionOwner, product.ID, 0, 4); err != nil {
		t.Fatalf("session add failed: %v", err)
	}
	if _, err := env.cart.AddItem(owner, product.ID, 0, 3); err != nil {
		t.Fatalf("user add failed: %v", err)
	}

	if err := env.cart.MergeSessionIntoUser(sessionID, user.ID); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	rows := env.cartRows(t, owner)
	if len(rows) != 1 {
		t.Fatalf("want single merged row got %+v", rows)
	}
	// 4 + 3 夹取到库存 5
	if rows[0].Quantity != 5 {
		t.Fatalf("merged quantity want 5 got %d", rows[0].Quantity)
	}
	if sessionRows := env.cartRows(t, sessionOwner); len(sessionRows) != 0 {
		t.Fatalf("session rows should be gone: %+v", sessionRows)
	}

	// 会话级幂等：重复并入不再改动购物车
	if err := env.cart.MergeSessionIntoUser(sessionID, user.ID); err != nil {
		t.Fatalf("second merge failed: %v", err)
	}
	again := env.cartRows(t, owner)
	if len(again) != 1 || again[0].Quantity != 5 {
		t.Fatalf("second merge must be a no-op: %+v", again)
	}
}

func TestListByOwnerComputesSubtotal(t *testing.T) {
	env := newTestEnv(t)
	user := env.createLocalUser(t, "subtotal@example.com")
	owner := models.UserOwner(user.ID)
	product := env.createProduct(t, "subtotal-product", 10, constants.FulfillmentModeBoth)

	if _, err := env.cart.AddItem(owner, product.ID, 0, 3); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	detail, err := env.cart.ListByOwner(owner)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(detail.Items) != 1 {
		t.Fatalf("items want 1 got %d", len(detail.Items))
	}
	if detail.Subtotal.String() != "30.00" {
		t.Fatalf("subtotal want 30.00 got %s", detail.Subtotal.String())
	}
	if detail.Currency != "USD" {
		t.Fatalf("currency want USD got %s", detail.Currency)
	}
}

func TestValidateFlagsStockAndLocalityIssues(t *testing.T) {
	env := newTestEnv(t)
	user := env.createRemoteUser(t, "validate@example.com")
	owner := models.UserOwner(user.ID)
	localOnly := env.createProduct(t, "validate-local", 5, constants.FulfillmentModeLocalOnly)
	lowStock := env.createProduct(t, "validate-low", 1, constants.FulfillmentModeBoth)

	// 绕过服务写入：本地限定与超库存的行，校验必须全部揪出
	rows := []models.CartItem{
		{UserID: user.ID, ProductID: localOnly.ID, VariantID: 0, Quantity: 1},
		{UserID: user.ID, ProductID: lowStock.ID, VariantID: 0, Quantity: 3},
	}
	if err := env.db.Create(&rows).Error; err != nil {
		t.Fatalf("create rows failed: %v", err)
	}

	result, err := env.cart.Validate(owner)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Valid {
		t.Fatalf("validate want invalid")
	}
	if len(result.Issues) != 2 {
		t.Fatalf("issues want 2 got %d: %+v", len(result.Issues), result.Issues)
	}
	// 校验是只读的
	if rows := env.cartRows(t, owner); len(rows) != 2 {
		t.Fatalf("validate must not mutate cart: %+v", rows)
	}
}

func TestTwoOwnersCompeteForLastUnit(t *testing.T) {
	env := newTestEnv(t)
	userA := env.createLocalUser(t, "buyer-a@example.com")
	userB := env.createLocalUser(t, "buyer-b@example.com")
	ownerA := models.UserOwner(userA.ID)
	ownerB := models.UserOwner(userB.ID)
	product := env.createProduct(t, "last-unit", 1, constants.FulfillmentModeBoth)

	// 加购不预占，两人都能放进购物车
	if _, err := env.cart.AddItem(ownerA, product.ID, 0, 1); err != nil {
		t.Fatalf("owner A add failed: %v", err)
	}
	if _, err := env.cart.AddItem(ownerB, product.ID, 0, 1); err != nil {
		t.Fatalf("owner B add failed: %v", err)
	}

	// A 下单拿走最后一件
	if _, err := env.order.CreateOrder(ownerA, []CreateOrderItem{{ProductID: product.ID, Quantity: 1}}); err != nil {
		t.Fatalf("owner A order failed: %v", err)
	}
	if stock := env.stockOf(t, product.ID); stock != 0 {
		t.Fatalf("stock want 0 got %d", stock)
	}

	// B 下单失败且错误指明商品
	_, err := env.order.CreateOrder(ownerB, []CreateOrderItem{{ProductID: product.ID, Quantity: 1}})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("owner B want ErrInsufficientStock got %v", err)
	}

	// B 的购物车读取时行被规约掉
	detail, err := env.cart.ListByOwner(ownerB)
	if err != nil {
		t.Fatalf("owner B list failed: %v", err)
	}
	if len(detail.Items) != 0 {
		t.Fatalf("owner B cart should be emptied by consolidation: %+v", detail.Items)
	}
}

func TestRemoveItemClearsDuplicateRows(t *testing.T) {
	env := newTestEnv(t)
	user := env.createLocalUser(t, "remove-dup@example.com")
	owner := models.UserOwner(user.ID)
	product := env.createProduct(t, "remove-dup-product", 5, constants.FulfillmentModeBoth)

	// 并发添加残留的同键重复行，删除要在一个事务里全部清掉
	rows := []models.CartItem{
		{UserID: user.ID, ProductID: product.ID, VariantID: 0, Quantity: 2},
		{UserID: user.ID, ProductID: product.ID, VariantID: 0, Quantity: 3},
	}
	if err := env.db.Create(&rows).Error; err != nil {
		t.Fatalf("create duplicate rows failed: %v", err)
	}

	removed, err := env.cart.RemoveItem(owner, product.ID, 0)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !removed {
		t.Fatalf("remove want true")
	}
	if got := env.cartRows(t, owner); len(got) != 0 {
		t.Fatalf("duplicate rows should all be gone: %+v", got)
	}
}

func TestValidateSumsDuplicateRows(t *testing.T) {
	env := newTestEnv(t)
	user := env.createLocalUser(t, "validate-dup@example.com")
	owner := models.UserOwner(user.ID)
	product := env.createProduct(t, "validate-dup-product", 5, constants.FulfillmentModeBoth)

	// 两行各 3 件单看都不超库存，合计 6 超出库存 5
	rows := []models.CartItem{
		{UserID: user.ID, ProductID: product.ID, VariantID: 0, Quantity: 3},
		{UserID: user.ID, ProductID: product.ID, VariantID: 0, Quantity: 3},
	}
	if err := env.db.Create(&rows).Error; err != nil {
		t.Fatalf("create duplicate rows failed: %v", err)
	}

	result, err := env.cart.Validate(owner)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Valid {
		t.Fatalf("validate want invalid")
	}
	if len(result.Issues) != 1 {
		t.Fatalf("issues want 1 got %d: %+v", len(result.Issues), result.Issues)
	}
	if !strings.Contains(result.Issues[0], "cart holds 6") {
		t.Fatalf("issue should report summed quantity: %s", result.Issues[0])
	}
}
