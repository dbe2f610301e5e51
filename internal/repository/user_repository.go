package repository

import (
	"errors"

	"github.com/localmart-next/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口（本核心只读）
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	Create(user *models.User) error
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// GetByID 按ID获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create 创建用户（种子与测试用）
func (r *GormUserRepository) Create(user *models.User) error {
	if user == nil {
		return nil
	}
	return r.db.Create(user).Error
}
