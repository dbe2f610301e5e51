package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/localmart-next/internal/constants"
	"github.com/localmart-next/internal/logger"
	"github.com/localmart-next/internal/models"
	"github.com/localmart-next/internal/queue"
	"github.com/localmart-next/internal/repository"

	"gorm.io/gorm"
)

// CreateOrderItem 创建订单行项输入
type CreateOrderItem struct {
	ProductID uint `json:"product_id"`
	VariantID uint `json:"variant_id"`
	Quantity  int  `json:"quantity"`
}

// OrderService 订单服务。下单在单个可重试事务内完成全部库存预占，
// 任一行项失败则整单失败且不留任何扣减。
type OrderService struct {
	db            *gorm.DB
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	cartRepo      repository.CartRepository
	ledger        *StockLedger
	locality      *LocalityService
	queueClient   *queue.Client
	retryOpts     repository.TxRetryOptions
	expireMinutes int
}

// NewOrderService 创建订单服务
func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository, productRepo repository.ProductRepository, cartRepo repository.CartRepository, ledger *StockLedger, locality *LocalityService, queueClient *queue.Client, retryOpts repository.TxRetryOptions, expireMinutes int) *OrderService {
	return &OrderService{
		db:            db,
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		cartRepo:      cartRepo,
		ledger:        ledger,
		locality:      locality,
		queueClient:   queueClient,
		retryOpts:     retryOpts,
		expireMinutes: expireMinutes,
	}
}

func (s *OrderService) resolveExpireMinutes() int {
	if s.expireMinutes > 0 {
		return s.expireMinutes
	}
	return 15
}

// orderLine 预载完成、待预占的行项
type orderLine struct {
	input   CreateOrderItem
	product *models.Product
	variant *models.ProductVariant
}

// CreateOrder 下单。预载并校验所有行项后在一个可重试事务里逐行预占库存；
// 收集全部缺货行项再整体失败，保证错误指明每个缺货商品且不留部分扣减。
func (s *OrderService) CreateOrder(owner models.CartOwner, items []CreateOrderItem) (*models.Order, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	if len(items) == 0 {
		return nil, ErrInvalidOrderItem
	}

	status, err := s.locality.StatusForOwner(owner)
	if err != nil {
		return nil, err
	}

	lines := make([]orderLine, 0, len(items))
	seen := make(map[[2]uint]bool, len(items))
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return nil, ErrInvalidOrderItem
		}
		key := [2]uint{item.ProductID, item.VariantID}
		if seen[key] {
			return nil, ErrInvalidOrderItem
		}
		seen[key] = true

		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		if !product.IsActive {
			return nil, ErrProductNotAvailable
		}
		if err := s.locality.CheckProduct(status, product); err != nil {
			return nil, err
		}
		var variant *models.ProductVariant
		if item.VariantID != 0 {
			variant, err = s.productRepo.GetVariant(item.VariantID)
			if err != nil {
				return nil, err
			}
			if variant == nil || variant.ProductID != product.ID || !variant.IsActive {
				return nil, ErrVariantInvalid
			}
		}
		lines = append(lines, orderLine{input: item, product: product, variant: variant})
	}

	expireMinutes := s.resolveExpireMinutes()
	now := time.Now()
	expiresAt := now.Add(time.Duration(expireMinutes) * time.Minute)

	var order *models.Order
	err = repository.RunInTxWithRetry(s.db, s.retryOpts, func(tx *gorm.DB) error {
		var shortages []InsufficientStockError
		total := models.ZeroMoney()
		orderItems := make([]models.OrderItem, 0, len(lines))
		currency := ""

		for _, line := range lines {
			_, err := s.ledger.CheckAndReserve(tx, line.input.ProductID, line.input.Quantity)
			var insufficient *InsufficientStockError
			if errors.As(err, &insufficient) {
				shortages = append(shortages, *insufficient)
				continue
			}
			if err != nil {
				return err
			}

			unitPrice := line.product.PriceAmount
			if line.variant != nil && line.variant.PriceAmount != nil {
				unitPrice = *line.variant.PriceAmount
			}
			lineTotal := unitPrice.MulInt(line.input.Quantity)
			total = total.Add(lineTotal)
			if currency == "" {
				currency = line.product.PriceCurrency
			}
			title := line.product.Title
			if line.variant != nil {
				title = fmt.Sprintf("%s / %s", title, line.variant.Name)
			}
			orderItems = append(orderItems, models.OrderItem{
				ProductID:  line.input.ProductID,
				VariantID:  line.input.VariantID,
				Title:      title,
				UnitPrice:  unitPrice,
				Quantity:   line.input.Quantity,
				TotalPrice: lineTotal,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}

		if len(shortages) > 0 {
			// 返回错误即回滚，已成功的行项扣减一并撤销
			return &StockShortageError{Shortages: shortages}
		}

		created := &models.Order{
			OrderNo:     generateOrderNo(),
			Status:      constants.OrderStatusPendingPayment,
			Currency:    currency,
			TotalAmount: total,
			ExpiresAt:   &expiresAt,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if owner.IsUser() {
			created.UserID = owner.UserID
		} else {
			created.SessionID = owner.SessionID
		}
		if err := s.orderRepo.WithTx(tx).Create(created, orderItems); err != nil {
			return err
		}
		if err := s.cartRepo.WithTx(tx).ClearByOwner(owner); err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrProductNotFound) || errors.Is(err, repository.ErrTxConflict) {
			return nil, err
		}
		logger.Errorw("order_create_failed", "error", err)
		return nil, ErrOrderCreateFailed
	}

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{
			OrderID: order.ID,
		}, time.Duration(expireMinutes)*time.Minute); err != nil {
			logger.Errorw("order_enqueue_timeout_cancel_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", err,
			)
		}
	}
	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"total", order.TotalAmount.String(),
		"items", len(order.Items),
	)
	return order, nil
}

// GetOrder 获取归属者订单详情，读取时懒同步过期状态
func (s *OrderService) GetOrder(owner models.CartOwner, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndOwner(orderID, owner)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.ensureOrderCanceledIfExpired(order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders 归属者订单列表，读取时懒同步过期状态
func (s *OrderService) ListOrders(owner models.CartOwner, page, pageSize int) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.ListByOwner(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Owner:    owner,
	})
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		if err := s.ensureOrderCanceledIfExpired(&orders[i]); err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

// CancelOrder 归属者主动取消待支付订单并回补库存
func (s *OrderService) CancelOrder(owner models.CartOwner, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndOwner(orderID, owner)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return nil, ErrOrderCancelNotAllowed
	}
	if err := s.cancelPendingOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// CancelExpiredOrder 超时取消（worker 回调入口）。未到期或已离开待支付态为无操作。
func (s *OrderService) CancelExpiredOrder(orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return order, nil
	}
	if order.ExpiresAt == nil || order.ExpiresAt.After(time.Now()) {
		return order, nil
	}
	if err := s.cancelPendingOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// MarkPaid 标记订单已支付（库存在下单时已扣减，这里只消费预占）
func (s *OrderService) MarkPaid(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.ensureOrderCanceledIfExpired(order); err != nil {
		return nil, err
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return nil, ErrOrderNotPayable
	}
	now := time.Now()
	affected, err := s.orderRepo.TransitionStatus(order.ID,
		constants.OrderStatusPendingPayment, constants.OrderStatusPaid,
		map[string]interface{}{"paid_at": now, "updated_at": now})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrOrderNotPayable
	}
	order.Status = constants.OrderStatusPaid
	order.PaidAt = &now
	order.UpdatedAt = now
	logger.Infow("order_marked_paid", "order_id", order.ID, "order_no", order.OrderNo)
	return order, nil
}

// cancelPendingOrder 待支付订单取消：守卫式状态迁移保证回补只发生一次
func (s *OrderService) cancelPendingOrder(order *models.Order) error {
	now := time.Now()
	err := repository.RunInTxWithRetry(s.db, s.retryOpts, func(tx *gorm.DB) error {
		affected, err := s.orderRepo.WithTx(tx).TransitionStatus(order.ID,
			constants.OrderStatusPendingPayment, constants.OrderStatusCanceled,
			map[string]interface{}{"canceled_at": now, "updated_at": now})
		if err != nil {
			return err
		}
		if affected == 0 {
			// 已被并发取消或支付，不重复回补
			return nil
		}
		for i := range order.Items {
			if err := s.ledger.Restore(tx, order.Items[i].ProductID, order.Items[i].Quantity); err != nil {
				return err
			}
		}
		order.Status = constants.OrderStatusCanceled
		order.CanceledAt = &now
		order.UpdatedAt = now
		return nil
	})
	if err != nil {
		return err
	}
	if order.Status == constants.OrderStatusCanceled {
		logger.Infow("order_canceled", "order_id", order.ID, "order_no", order.OrderNo)
	}
	return nil
}

// ensureOrderCanceledIfExpired 读取时懒同步过期订单状态
func (s *OrderService) ensureOrderCanceledIfExpired(order *models.Order) error {
	if order == nil {
		return nil
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return nil
	}
	if order.ExpiresAt == nil || order.ExpiresAt.After(time.Now()) {
		return nil
	}
	return s.cancelPendingOrder(order)
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("LM%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
