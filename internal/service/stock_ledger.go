package service

import (
	"github.com/localmart-next/internal/logger"
	"github.com/localmart-next/internal/repository"

	"gorm.io/gorm"
)

// StockLedger 库存台账。唯一允许改写 products.stock_quantity 的入口，
// 全部操作都要求在调用方事务内执行。
type StockLedger struct {
	productRepo repository.ProductRepository
}

// NewStockLedger 创建库存台账
func NewStockLedger(productRepo repository.ProductRepository) *StockLedger {
	return &StockLedger{productRepo: productRepo}
}

// CheckAndReserve 锁定商品行后按需扣减库存，返回操作后的可售余量。
// delta 为 0 表示只探测不扣减；余量不足时不做任何修改并返回携带余量的错误。
func (l *StockLedger) CheckAndReserve(tx *gorm.DB, productID uint, delta int) (int, error) {
	if tx == nil || productID == 0 || delta < 0 {
		return 0, ErrInvalidCartItem
	}
	repo := l.productRepo.WithTx(tx)
	product, err := repo.LockByID(productID)
	if err != nil {
		return 0, err
	}
	if product == nil {
		return 0, ErrProductNotFound
	}
	available := product.StockQuantity
	if delta == 0 {
		return available, nil
	}
	if available < delta {
		return available, &InsufficientStockError{ProductID: productID, Requested: delta, Available: available}
	}
	affected, err := repo.ReserveStock(productID, delta)
	if err != nil {
		return available, err
	}
	if affected == 0 {
		// 守卫条件兜底：锁后仍被并发改写时拒绝而不是超卖
		return available, &InsufficientStockError{ProductID: productID, Requested: delta, Available: available}
	}
	return available - delta, nil
}

// Restore 回补库存（订单取消/超时路径的逆操作）
func (l *StockLedger) Restore(tx *gorm.DB, productID uint, delta int) error {
	if tx == nil || productID == 0 || delta < 0 {
		return ErrInvalidCartItem
	}
	if delta == 0 {
		return nil
	}
	affected, err := l.productRepo.WithTx(tx).RestoreStock(productID, delta)
	if err != nil {
		return err
	}
	if affected == 0 {
		// 商品已下架删除，预占的数量无处回补，留痕不阻断取消
		logger.Warnw("stock_restore_missing_product", "product_id", productID, "delta", delta)
	}
	return nil
}
