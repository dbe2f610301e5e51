package main

import (
	"github.com/localmart-next/internal/config"
	"github.com/localmart-next/internal/constants"
	"github.com/localmart-next/internal/logger"
	"github.com/localmart-next/internal/models"
	"github.com/localmart-next/internal/service"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 演示用户：一位在配送圈内（帝国大厦附近），一位在圈外（波士顿）
	localLat, localLng := 40.7505, -73.9934
	remoteLat, remoteLng := 42.3601, -71.0589
	users := []models.User{
		{
			Email:      "local@example.com",
			AddressLat: &localLat,
			AddressLng: &localLng,
			IsActive:   true,
		},
		{
			Email:      "remote@example.com",
			AddressLat: &remoteLat,
			AddressLng: &remoteLng,
			IsActive:   true,
		},
		{
			Email:    "nowhere@example.com",
			IsActive: true,
		},
	}
	for i := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", users[i].Email).First(&existing).Error; err == nil {
			continue
		}
		if err := models.DB.Create(&users[i]).Error; err != nil {
			stdLog.Fatalf("Failed to seed user %s: %v", users[i].Email, err)
		}
	}

	// 演示商品
	products := []models.Product{
		{
			Slug:            "fresh-sourdough",
			Title:           "Fresh Sourdough Loaf",
			PriceAmount:     models.NewMoneyFromDecimal(decimal.NewFromFloat(8.50)),
			PriceCurrency:   "USD",
			StockQuantity:   20,
			FulfillmentMode: constants.FulfillmentModeLocalOnly,
			IsActive:        true,
		},
		{
			Slug:            "house-coffee-beans",
			Title:           "House Blend Coffee Beans",
			PriceAmount:     models.NewMoneyFromDecimal(decimal.NewFromFloat(15.00)),
			PriceCurrency:   "USD",
			StockQuantity:   50,
			FulfillmentMode: constants.FulfillmentModeBoth,
			IsActive:        true,
		},
		{
			Slug:            "canvas-tote",
			Title:           "Canvas Tote Bag",
			PriceAmount:     models.NewMoneyFromDecimal(decimal.NewFromFloat(12.00)),
			PriceCurrency:   "USD",
			StockQuantity:   100,
			FulfillmentMode: constants.FulfillmentModeShipOnly,
			IsActive:        true,
		},
	}
	for i := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", products[i].Slug).First(&existing).Error; err == nil {
			continue
		}
		if err := models.DB.Create(&products[i]).Error; err != nil {
			stdLog.Fatalf("Failed to seed product %s: %v", products[i].Slug, err)
		}
	}

	// 咖啡豆规格（价格覆盖）
	var coffee models.Product
	if err := models.DB.Where("slug = ?", "house-coffee-beans").First(&coffee).Error; err == nil {
		halfKilo := models.NewMoneyFromDecimal(decimal.NewFromFloat(27.00))
		variants := []models.ProductVariant{
			{ProductID: coffee.ID, Name: "250g", IsActive: true},
			{ProductID: coffee.ID, Name: "500g", PriceAmount: &halfKilo, IsActive: true},
		}
		for i := range variants {
			var existing models.ProductVariant
			if err := models.DB.Where("product_id = ? AND name = ?", variants[i].ProductID, variants[i].Name).
				First(&existing).Error; err == nil {
				continue
			}
			if err := models.DB.Create(&variants[i]).Error; err != nil {
				stdLog.Fatalf("Failed to seed variant %s: %v", variants[i].Name, err)
			}
		}
	}

	// 每个演示用户签发一枚联调令牌
	for _, email := range []string{"local@example.com", "remote@example.com", "nowhere@example.com"} {
		var user models.User
		if err := models.DB.Where("email = ?", email).First(&user).Error; err != nil {
			continue
		}
		token, err := service.IssueUserToken(cfg.UserJWT.SecretKey, user.ID, user.Email, cfg.UserJWT.ExpireHours)
		if err != nil {
			stdLog.Printf("Failed to issue token for %s: %v", email, err)
			continue
		}
		stdLog.Printf("Token for %s: %s", email, token)
	}

	stdLog.Println("Seed completed")
}
