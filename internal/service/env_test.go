package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/localmart-next/internal/config"
	"github.com/localmart-next/internal/models"
	"github.com/localmart-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 门店坐标：曼哈顿中城，配送半径 10 英里
var testLocalityConfig = config.LocalityConfig{
	StoreLat:    40.7484,
	StoreLng:    -73.9857,
	RadiusMiles: 10,
}

type testEnv struct {
	db       *gorm.DB
	users    *repository.GormUserRepository
	products *repository.GormProductRepository
	carts    *repository.GormCartRepository
	orders   *repository.GormOrderRepository
	sessions *repository.GormSessionRepository
	ledger   *StockLedger
	locality *LocalityService
	cart     *CartService
	order    *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductVariant{},
		&models.CartSession{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	env := &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		products: repository.NewProductRepository(db),
		carts:    repository.NewCartRepository(db),
		orders:   repository.NewOrderRepository(db),
		sessions: repository.NewSessionRepository(db),
	}
	retryOpts := repository.TxRetryOptions{MaxAttempts: 3, BaseDelay: time.Millisecond}
	env.ledger = NewStockLedger(env.products)
	env.locality = NewLocalityService(env.users, testLocalityConfig)
	env.cart = NewCartService(db, env.carts, env.products, env.sessions, env.ledger, env.locality, retryOpts)
	env.order = NewOrderService(db, env.orders, env.products, env.carts, env.ledger, env.locality, nil, retryOpts, 15)
	return env
}

func (env *testEnv) createUser(t *testing.T, email string, lat, lng *float64) *models.User {
	t.Helper()
	user := &models.User{
		Email:      email,
		AddressLat: lat,
		AddressLng: lng,
		IsActive:   true,
	}
	if err := env.users.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (env *testEnv) createLocalUser(t *testing.T, email string) *models.User {
	t.Helper()
	lat, lng := 40.7505, -73.9934
	return env.createUser(t, email, &lat, &lng)
}

func (env *testEnv) createRemoteUser(t *testing.T, email string) *models.User {
	t.Helper()
	lat, lng := 42.3601, -71.0589
	return env.createUser(t, email, &lat, &lng)
}

func (env *testEnv) createProduct(t *testing.T, slug string, stock int, mode string) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:            slug,
		Title:           "Test " + slug,
		PriceAmount:     models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		PriceCurrency:   "USD",
		StockQuantity:   stock,
		FulfillmentMode: mode,
		IsActive:        true,
	}
	if err := env.products.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (env *testEnv) stockOf(t *testing.T, productID uint) int {
	t.Helper()
	var product models.Product
	if err := env.db.First(&product, productID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	return product.StockQuantity
}

func (env *testEnv) cartRows(t *testing.T, owner models.CartOwner) []models.CartItem {
	t.Helper()
	items, err := env.carts.ListByOwner(owner)
	if err != nil {
		t.Fatalf("list cart rows failed: %v", err)
	}
	return items
}
