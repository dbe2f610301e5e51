package repository

import (
	"errors"
	"time"

	"github.com/localmart-next/internal/models"

	"gorm.io/gorm"
)

// SessionRepository 匿名购物车会话数据访问接口
type SessionRepository interface {
	Get(id string) (*models.CartSession, error)
	GetOrCreate(id string) (*models.CartSession, error)
	MarkMerged(id string, userID uint, now time.Time) (int64, error)
	WithTx(tx *gorm.DB) SessionRepository
}

// GormSessionRepository GORM 实现
type GormSessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建会话仓库
func NewSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSessionRepository) WithTx(tx *gorm.DB) SessionRepository {
	if tx == nil {
		return r
	}
	return &GormSessionRepository{db: tx}
}

// Get 按ID获取会话
func (r *GormSessionRepository) Get(id string) (*models.CartSession, error) {
	if id == "" {
		return nil, nil
	}
	var session models.CartSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetOrCreate 获取或创建会话
func (r *GormSessionRepository) GetOrCreate(id string) (*models.CartSession, error) {
	if id == "" {
		return nil, errors.New("session id is empty")
	}
	session, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}
	now := time.Now()
	session = &models.CartSession{ID: id, CreatedAt: now, UpdatedAt: now}
	if err := r.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// MarkMerged 置位一次性并入标记。WHERE merged_at IS NULL 保证同一会话
// 至多成功一次；影响行数为 0 表示已并入过，调用方按幂等处理。
func (r *GormSessionRepository) MarkMerged(id string, userID uint, now time.Time) (int64, error) {
	if id == "" || userID == 0 {
		return 0, errors.New("invalid mark merged params")
	}
	result := r.db.Model(&models.CartSession{}).
		Where("id = ? AND merged_at IS NULL", id).
		Updates(map[string]interface{}{
			"user_id":    userID,
			"merged_at":  now,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
