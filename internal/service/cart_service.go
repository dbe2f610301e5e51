package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/localmart-next/internal/constants"
	"github.com/localmart-next/internal/models"
	"github.com/localmart-next/internal/repository"

	"gorm.io/gorm"
)

// AddResult 购物车写操作结果
type AddResult struct {
	Status    string `json:"status"`    // ADDED / ADDED_PARTIAL / REMOVED
	Quantity  int    `json:"quantity"`  // 操作后该键的数量
	Available int    `json:"available"` // 操作时刻的可售库存
}

// CartItemDetail 购物车项详情（用于响应）
type CartItemDetail struct {
	ProductID uint                   `json:"product_id"`
	VariantID uint                   `json:"variant_id,omitempty"`
	Quantity  int                    `json:"quantity"`
	UnitPrice models.Money           `json:"unit_price"`
	LineTotal models.Money           `json:"line_total"`
	Currency  string                 `json:"currency"`
	Product   *models.Product        `json:"product,omitempty"`
	Variant   *models.ProductVariant `json:"variant,omitempty"`
}

// CartDetail 购物车视图
type CartDetail struct {
	Items    []CartItemDetail `json:"items"`
	Subtotal models.Money     `json:"subtotal"`
	Currency string           `json:"currency"`
}

// ValidateResult 结算前校验结果
type ValidateResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// CartService 购物车服务。所有写路径走可重试事务，
// 库存探测与扣减只经过库存台账。
type CartService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	sessionRepo repository.SessionRepository
	ledger      *StockLedger
	locality    *LocalityService
	retryOpts   repository.TxRetryOptions
}

// NewCartService 创建购物车服务
func NewCartService(db *gorm.DB, cartRepo repository.CartRepository, productRepo repository.ProductRepository, sessionRepo repository.SessionRepository, ledger *StockLedger, locality *LocalityService, retryOpts repository.TxRetryOptions) *CartService {
	return &CartService{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		sessionRepo: sessionRepo,
		ledger:      ledger,
		locality:    locality,
		retryOpts:   retryOpts,
	}
}

// loadSellableProduct 取在售商品并校验规格归属
func (s *CartService) loadSellableProduct(productID, variantID uint) (*models.Product, *models.ProductVariant, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, ErrProductNotFound
	}
	if !product.IsActive {
		return nil, nil, ErrProductNotAvailable
	}
	if variantID == 0 {
		return product, nil, nil
	}
	variant, err := s.productRepo.GetVariant(variantID)
	if err != nil {
		return nil, nil, err
	}
	if variant == nil || variant.ProductID != product.ID || !variant.IsActive {
		return nil, nil, ErrVariantInvalid
	}
	return product, variant, nil
}

// checkLocality 添加与校验路径共用的本地资格闸门
func (s *CartService) checkLocality(owner models.CartOwner, product *models.Product) error {
	status, err := s.locality.StatusForOwner(owner)
	if err != nil {
		return err
	}
	return s.locality.CheckProduct(status, product)
}

// AddItem 向购物车增加数量。目标数量为现有数量加增量，夹取到可售库存；
// 夹取到 0 时删行并返回 REMOVED，被截断时返回 ADDED_PARTIAL。
func (s *CartService) AddItem(owner models.CartOwner, productID, variantID uint, quantity int) (*AddResult, error) {
	if !owner.Valid() || productID == 0 || quantity <= 0 {
		return nil, ErrInvalidCartItem
	}
	product, _, err := s.loadSellableProduct(productID, variantID)
	if err != nil {
		return nil, err
	}
	if err := s.checkLocality(owner, product); err != nil {
		return nil, err
	}

	var result AddResult
	err = repository.RunInTxWithRetry(s.db, s.retryOpts, func(tx *gorm.DB) error {
		available, err := s.ledger.CheckAndReserve(tx, productID, 0)
		if err != nil {
			return err
		}
		cartRepo := s.cartRepo.WithTx(tx)
		existing, err := cartRepo.GetByOwnerKey(owner, productID, variantID)
		if err != nil {
			return err
		}
		current := 0
		if existing != nil {
			current = existing.Quantity
		}
		target := current + quantity
		newQty := target
		if newQty > available {
			newQty = available
		}
		return s.applyQuantity(cartRepo, owner, productID, variantID, existing, newQty, target, available, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SetQuantity 将购物车键数量设为绝对值，夹取规则与 AddItem 一致；0 即删除。
func (s *CartService) SetQuantity(owner models.CartOwner, productID, variantID uint, quantity int) (*AddResult, error) {
	if !owner.Valid() || productID == 0 || quantity < 0 {
		return nil, ErrInvalidCartItem
	}
	product, _, err := s.loadSellableProduct(productID, variantID)
	if err != nil {
		return nil, err
	}
	if quantity > 0 {
		if err := s.checkLocality(owner, product); err != nil {
			return nil, err
		}
	}

	var result AddResult
	err = repository.RunInTxWithRetry(s.db, s.retryOpts, func(tx *gorm.DB) error {
		available, err := s.ledger.CheckAndReserve(tx, productID, 0)
		if err != nil {
			return err
		}
		cartRepo := s.cartRepo.WithTx(tx)
		existing, err := cartRepo.GetByOwnerKey(owner, productID, variantID)
		if err != nil {
			return err
		}
		newQty := quantity
		if newQty > available {
			newQty = available
		}
		return s.applyQuantity(cartRepo, owner, productID, variantID, existing, newQty, quantity, available, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// applyQuantity 落库目标数量并填充结果（事务内）
func (s *CartService) applyQuantity(cartRepo repository.CartRepository, owner models.CartOwner, productID, variantID uint, existing *models.CartItem, newQty, target, available int, result *AddResult) error {
	if newQty <= 0 {
		if existing != nil {
			if _, err := cartRepo.DeleteByOwnerKey(owner, productID, variantID); err != nil {
				return err
			}
		}
		*result = AddResult{Status: constants.CartAddStatusRemoved, Quantity: 0, Available: available}
		return nil
	}
	if err := cartRepo.Upsert(owner, productID, variantID, newQty); err != nil {
		return err
	}
	status := constants.CartAddStatusAdded
	if newQty < target {
		status = constants.CartAddStatusPartial
	}
	*result = AddResult{Status: status, Quantity: newQty, Available: available}
	return nil
}

// RemoveItem 删除购物车键，行不存在不算错误。
// 同键重复行会被一次删除，与规约事务争锁时按冲突重试。
func (s *CartService) RemoveItem(owner models.CartOwner, productID, variantID uint) (bool, error) {
	if !owner.Valid() || productID == 0 {
		return false, ErrInvalidCartItem
	}
	var removed bool
	err := repository.RunInTxWithRetry(s.db, s.retryOpts, func(tx *gorm.DB) error {
		affected, err := s.cartRepo.WithTx(tx).DeleteByOwnerKey(owner, productID, variantID)
		if err != nil {
			return err
		}
		removed = affected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// ListByOwner 获取购物车视图。先规约重复行再读取，小计按成交单价汇总。
func (s *CartService) ListByOwner(owner models.CartOwner) (*CartDetail, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	if err := s.Consolidate(owner); err != nil {
		return nil, err
	}
	items, err := s.cartRepo.ListByOwnerWithProduct(owner)
	if err != nil {
		return nil, err
	}
	detail := &CartDetail{Items: make([]CartItemDetail, 0, len(items))}
	subtotal := models.ZeroMoney()
	for i := range items {
		item := &items[i]
		if item.Product == nil || item.Product.ID == 0 {
			continue
		}
		unitPrice := item.UnitPrice()
		lineTotal := unitPrice.MulInt(item.Quantity)
		subtotal = subtotal.Add(lineTotal)
		if detail.Currency == "" {
			detail.Currency = item.Product.PriceCurrency
		}
		detail.Items = append(detail.Items, CartItemDetail{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			LineTotal: lineTotal,
			Currency:  item.Product.PriceCurrency,
			Product:   item.Product,
			Variant:   item.Variant,
		})
	}
	detail.Subtotal = subtotal
	return detail, nil
}

// Validate 结算前只读校验：逐行复查库存与本地资格，不做任何修改
func (s *CartService) Validate(owner models.CartOwner) (*ValidateResult, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	items, err := s.cartRepo.ListByOwnerWithProduct(owner)
	if err != nil {
		return nil, err
	}
	status, err := s.locality.StatusForOwner(owner)
	if err != nil {
		return nil, err
	}

	result := &ValidateResult{Valid: true, Issues: []string{}}
	addIssue := func(format string, args ...interface{}) {
		result.Valid = false
		result.Issues = append(result.Issues, fmt.Sprintf(format, args...))
	}
	// 同键重复行按总量比库存，每键只报一次
	sums := make(map[cartKey]int)
	for i := range items {
		sums[cartKey{ProductID: items[i].ProductID, VariantID: items[i].VariantID}] += items[i].Quantity
	}
	checked := make(map[cartKey]bool)
	for i := range items {
		item := &items[i]
		key := cartKey{ProductID: item.ProductID, VariantID: item.VariantID}
		if checked[key] {
			continue
		}
		checked[key] = true
		product := item.Product
		if product == nil || product.ID == 0 || !product.IsActive {
			addIssue("product %d is no longer available", item.ProductID)
			continue
		}
		if sums[key] > product.StockQuantity {
			addIssue("product %d has only %d in stock, cart holds %d", item.ProductID, product.StockQuantity, sums[key])
		}
		if !s.locality.IsEligible(status, product) {
			addIssue("product %d is local-delivery only and unavailable at your location", item.ProductID)
		}
	}
	return result, nil
}

// Consolidate 规约购物车：并发添加可能产生同键重复行，
// 本操作把每个 (商品, 规格) 键收敛为一行，数量夹取到可售库存。幂等。
func (s *CartService) Consolidate(owner models.CartOwner) error {
	if !owner.Valid() {
		return ErrInvalidOwner
	}
	return repository.RunInTxWithRetry(s.db, s.retryOpts, func(tx *gorm.DB) error {
		return s.consolidateInTx(tx, owner)
	})
}

type cartKey struct {
	ProductID uint
	VariantID uint
}

// consolidateInTx 事务内规约（供读取与身份并入复用）
func (s *CartService) consolidateInTx(tx *gorm.DB, owner models.CartOwner) error {
	cartRepo := s.cartRepo.WithTx(tx)
	items, err := cartRepo.ListByOwner(owner)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	// id 升序遍历，每键首行为准行
	canonical := make(map[cartKey]*models.CartItem)
	sums := make(map[cartKey]int)
	var keys []cartKey
	var dropIDs []uint
	for i := range items {
		item := &items[i]
		key := cartKey{ProductID: item.ProductID, VariantID: item.VariantID}
		if _, ok := canonical[key]; !ok {
			canonical[key] = item
			keys = append(keys, key)
		} else {
			dropIDs = append(dropIDs, item.ID)
		}
		sums[key] += item.Quantity
	}

	for _, key := range keys {
		row := canonical[key]
		available, err := s.ledger.CheckAndReserve(tx, key.ProductID, 0)
		if errors.Is(err, ErrProductNotFound) {
			dropIDs = append(dropIDs, row.ID)
			continue
		}
		if err != nil {
			return err
		}
		newQty := sums[key]
		if newQty > available {
			newQty = available
		}
		if newQty <= 0 {
			dropIDs = append(dropIDs, row.ID)
			continue
		}
		if newQty != row.Quantity {
			if err := cartRepo.UpdateQuantityByID(row.ID, newQty); err != nil {
				return err
			}
		}
	}
	return cartRepo.DeleteByIDs(dropIDs)
}

// MergeSessionIntoUser 登录时把匿名会话购物车并入用户。
// 会话级幂等：merged_at 守卫更新保证每个会话至多并入一次。
func (s *CartService) MergeSessionIntoUser(sessionID string, userID uint) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	if userID == 0 {
		return ErrInvalidOwner
	}
	return repository.RunInTxWithRetry(s.db, s.retryOpts, func(tx *gorm.DB) error {
		affected, err := s.sessionRepo.WithTx(tx).MarkMerged(sessionID, userID, time.Now())
		if err != nil {
			return err
		}
		if affected == 0 {
			// 已并入过或会话不存在，保持无操作
			return nil
		}
		if _, err := s.cartRepo.WithTx(tx).ReassignOwner(sessionID, userID); err != nil {
			return err
		}
		return s.consolidateInTx(tx, models.UserOwner(userID))
	})
}
