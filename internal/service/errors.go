package service

import (
	"errors"
	"fmt"
	"strings"
)

// 业务哨兵错误：首错即传播，不参与事务冲突重试。
var (
	ErrProductNotFound       = errors.New("product not found")
	ErrProductNotAvailable   = errors.New("product not available")
	ErrVariantInvalid        = errors.New("product variant invalid")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrLocalityRestricted    = errors.New("locality restricted")
	ErrInvalidCartItem       = errors.New("invalid cart item")
	ErrInvalidOwner          = errors.New("invalid cart owner")
	ErrInvalidOrderItem      = errors.New("invalid order item")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderCancelNotAllowed = errors.New("order cancel not allowed")
	ErrOrderNotPayable       = errors.New("order not payable")
	ErrOrderCreateFailed     = errors.New("order create failed")
	ErrSessionRequired       = errors.New("cart session required")
)

// InsufficientStockError 库存不足错误，携带可售余量供调用方降量提示。
type InsufficientStockError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Is 使 errors.Is(err, ErrInsufficientStock) 成立
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// StockShortageError 多行项库存不足的聚合错误（下单失败时指明缺货商品）。
type StockShortageError struct {
	Shortages []InsufficientStockError
}

func (e *StockShortageError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for i := range e.Shortages {
		parts = append(parts, e.Shortages[i].Error())
	}
	return "order rejected: " + strings.Join(parts, "; ")
}

// Is 使 errors.Is(err, ErrInsufficientStock) 成立
func (e *StockShortageError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// LocalityRestrictedError 本地限定商品对圈外买家不可购买。
type LocalityRestrictedError struct {
	ProductID     uint
	DistanceMiles *float64
}

func (e *LocalityRestrictedError) Error() string {
	if e.DistanceMiles != nil {
		return fmt.Sprintf("product %d is local-delivery only; buyer is %.1f miles from the store", e.ProductID, *e.DistanceMiles)
	}
	return fmt.Sprintf("product %d is local-delivery only; buyer location is not resolved", e.ProductID)
}

// Is 使 errors.Is(err, ErrLocalityRestricted) 成立
func (e *LocalityRestrictedError) Is(target error) bool {
	return target == ErrLocalityRestricted
}
