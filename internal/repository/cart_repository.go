package repository

import (
	"errors"
	"time"

	"github.com/localmart-next/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口，所有查询按归属身份限定范围。
type CartRepository interface {
	ListByOwner(owner models.CartOwner) ([]models.CartItem, error)
	ListByOwnerWithProduct(owner models.CartOwner) ([]models.CartItem, error)
	GetByOwnerKey(owner models.CartOwner, productID, variantID uint) (*models.CartItem, error)
	Upsert(owner models.CartOwner, productID, variantID uint, quantity int) error
	UpdateQuantityByID(id uint, quantity int) error
	DeleteByOwnerKey(owner models.CartOwner, productID, variantID uint) (int64, error)
	DeleteByIDs(ids []uint) error
	ClearByOwner(owner models.CartOwner) error
	ReassignOwner(sessionID string, userID uint) (int64, error)
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ownerScope 构造归属过滤条件
func ownerScope(query *gorm.DB, owner models.CartOwner) *gorm.DB {
	if owner.IsUser() {
		return query.Where("user_id = ?", owner.UserID)
	}
	return query.Where("user_id = 0 AND session_id = ?", owner.SessionID)
}

// ListByOwner 获取归属者全部购物车行（按 id 升序，规约时以最小 id 为准行）
func (r *GormCartRepository) ListByOwner(owner models.CartOwner) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := ownerScope(r.db, owner).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListByOwnerWithProduct 获取购物车行并预载商品与规格
func (r *GormCartRepository) ListByOwnerWithProduct(owner models.CartOwner) ([]models.CartItem, error) {
	var items []models.CartItem
	err := ownerScope(r.db.Preload("Product").Preload("Variant"), owner).
		Order("id asc").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetByOwnerKey 按键取单行；重复行存在时返回最早的一行
func (r *GormCartRepository) GetByOwnerKey(owner models.CartOwner, productID, variantID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := ownerScope(r.db, owner).
		Where("product_id = ? AND variant_id = ?", productID, variantID).
		Order("id asc").First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Upsert 写入指定键的数量：有行则更新最早一行，无行则创建
func (r *GormCartRepository) Upsert(owner models.CartOwner, productID, variantID uint, quantity int) error {
	existing, err := r.GetByOwnerKey(owner, productID, variantID)
	if err != nil {
		return err
	}
	now := time.Now()
	if existing == nil {
		item := &models.CartItem{
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if owner.IsUser() {
			item.UserID = owner.UserID
		} else {
			item.SessionID = owner.SessionID
		}
		return r.db.Create(item).Error
	}
	return r.db.Model(existing).Updates(map[string]interface{}{
		"quantity":   quantity,
		"updated_at": now,
	}).Error
}

// UpdateQuantityByID 更新指定行的数量
func (r *GormCartRepository) UpdateQuantityByID(id uint, quantity int) error {
	return r.db.Model(&models.CartItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity":   quantity,
		"updated_at": time.Now(),
	}).Error
}

// DeleteByOwnerKey 删除指定键的全部行（含重复行），返回删除数
func (r *GormCartRepository) DeleteByOwnerKey(owner models.CartOwner, productID, variantID uint) (int64, error) {
	result := ownerScope(r.db, owner).
		Where("product_id = ? AND variant_id = ?", productID, variantID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteByIDs 按主键批量删除
func (r *GormCartRepository) DeleteByIDs(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&models.CartItem{}).Error
}

// ClearByOwner 清空归属者购物车
func (r *GormCartRepository) ClearByOwner(owner models.CartOwner) error {
	return ownerScope(r.db, owner).Delete(&models.CartItem{}).Error
}

// ReassignOwner 将会话名下的行整体改挂到用户名下（身份并入）
func (r *GormCartRepository) ReassignOwner(sessionID string, userID uint) (int64, error) {
	if sessionID == "" || userID == 0 {
		return 0, errors.New("invalid reassign owner params")
	}
	result := r.db.Model(&models.CartItem{}).
		Where("user_id = 0 AND session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"user_id":    userID,
			"session_id": "",
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
