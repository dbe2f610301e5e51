package provider

import (
	"time"

	"github.com/localmart-next/internal/cache"
	"github.com/localmart-next/internal/config"
	"github.com/localmart-next/internal/logger"
	"github.com/localmart-next/internal/models"
	"github.com/localmart-next/internal/queue"
	"github.com/localmart-next/internal/repository"
	"github.com/localmart-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo    repository.UserRepository
	ProductRepo repository.ProductRepository
	CartRepo    repository.CartRepository
	OrderRepo   repository.OrderRepository
	SessionRepo repository.SessionRepository

	// Services
	StockLedger     *service.StockLedger
	LocalityService *service.LocalityService
	CartService     *service.CartService
	OrderService    *service.OrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.SessionRepo = repository.NewSessionRepository(db)
}

func (c *Container) initServices() {
	retryOpts := repository.NormalizeTxRetryOptions(repository.TxRetryOptions{
		MaxAttempts: c.Config.Cart.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.Config.Cart.RetryBaseDelayMS) * time.Millisecond,
	})

	c.StockLedger = service.NewStockLedger(c.ProductRepo)
	c.LocalityService = service.NewLocalityService(c.UserRepo, c.Config.Locality)
	c.CartService = service.NewCartService(models.DB, c.CartRepo, c.ProductRepo, c.SessionRepo, c.StockLedger, c.LocalityService, retryOpts)
	c.OrderService = service.NewOrderService(models.DB, c.OrderRepo, c.ProductRepo, c.CartRepo, c.StockLedger, c.LocalityService, c.QueueClient, retryOpts, c.Config.Order.PaymentExpireMinutes)
}
