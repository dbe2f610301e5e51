package service

import (
	"math"

	"github.com/localmart-next/internal/config"
	"github.com/localmart-next/internal/constants"
	"github.com/localmart-next/internal/models"
	"github.com/localmart-next/internal/repository"
)

const earthRadiusMiles = 3958.8

// LocalityStatus 买家相对门店配送圈的资格
type LocalityStatus struct {
	IsLocal       bool     `json:"is_local"`
	DistanceMiles *float64 `json:"distance_miles,omitempty"`
}

// LocalityService 本地配送圈判定服务
type LocalityService struct {
	userRepo repository.UserRepository
	cfg      config.LocalityConfig
}

// NewLocalityService 创建本地配送圈服务
func NewLocalityService(userRepo repository.UserRepository, cfg config.LocalityConfig) *LocalityService {
	return &LocalityService{userRepo: userRepo, cfg: cfg}
}

// StatusForOwner 解析归属身份的本地资格。
// 匿名会话或未填写坐标的用户一律视为圈外。
func (s *LocalityService) StatusForOwner(owner models.CartOwner) (LocalityStatus, error) {
	if !owner.IsUser() {
		return LocalityStatus{}, nil
	}
	user, err := s.userRepo.GetByID(owner.UserID)
	if err != nil {
		return LocalityStatus{}, err
	}
	if user == nil || !user.HasCoordinates() {
		return LocalityStatus{}, nil
	}
	distance := haversineMiles(s.cfg.StoreLat, s.cfg.StoreLng, *user.AddressLat, *user.AddressLng)
	return LocalityStatus{
		IsLocal:       distance <= s.cfg.RadiusMiles,
		DistanceMiles: &distance,
	}, nil
}

// IsEligible 判断商品对该资格是否可购。只有 local_only 要求圈内。
func (s *LocalityService) IsEligible(status LocalityStatus, product *models.Product) bool {
	if product == nil {
		return false
	}
	if product.FulfillmentMode != constants.FulfillmentModeLocalOnly {
		return true
	}
	return status.IsLocal
}

// CheckProduct 对单个商品做资格校验，不合格返回携带距离的业务错误
func (s *LocalityService) CheckProduct(status LocalityStatus, product *models.Product) error {
	if s.IsEligible(status, product) {
		return nil
	}
	return &LocalityRestrictedError{ProductID: product.ID, DistanceMiles: status.DistanceMiles}
}

// haversineMiles 球面大圆距离（英里）
func haversineMiles(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180
	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lng2 - lng1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(a))
}
