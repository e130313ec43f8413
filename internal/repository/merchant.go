package repository

import (
	"context"
	"marketplace-api/internal/model"
	"time"

	"gorm.io/gorm"
)

type MerchantRepository interface {
	Create(ctx context.Context, merchant *model.Merchant) error
	Get(ctx context.Context, merchantID string) (*model.Merchant, error)
	GetByOwner(ctx context.Context, userID string) (*model.Merchant, error)
	FindMany(ctx context.Context, merchantIDs []string) ([]*model.Merchant, error)
	List(ctx context.Context) ([]*model.Merchant, error)
	UpdateStatus(ctx context.Context, merchantID string, status model.MerchantStatus) error
	Count(ctx context.Context) (int64, error)
}

type merchantRepoImpl struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepoImpl{
		db: db,
	}
}

func (r *merchantRepoImpl) Create(ctx context.Context, merchant *model.Merchant) error {
	return r.db.WithContext(ctx).Create(merchant).Error
}

func (r *merchantRepoImpl) Get(ctx context.Context, merchantID string) (*model.Merchant, error) {
	var merchant model.Merchant
	err := r.db.WithContext(ctx).
		Where("id = ?", merchantID).
		First(&merchant).Error
	if err != nil {
		return nil, err
	}

	return &merchant, nil
}

func (r *merchantRepoImpl) GetByOwner(ctx context.Context, userID string) (*model.Merchant, error) {
	var merchant model.Merchant
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", userID).
		First(&merchant).Error
	if err != nil {
		return nil, err
	}

	return &merchant, nil
}

func (r *merchantRepoImpl) FindMany(ctx context.Context, merchantIDs []string) ([]*model.Merchant, error) {
	var merchants []*model.Merchant
	err := r.db.WithContext(ctx).
		Where("id IN ?", merchantIDs).
		Find(&merchants).Error
	if err != nil {
		return nil, err
	}

	return merchants, nil
}

func (r *merchantRepoImpl) List(ctx context.Context) ([]*model.Merchant, error) {
	var merchants []*model.Merchant
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&merchants).Error
	if err != nil {
		return nil, err
	}

	return merchants, nil
}

func (r *merchantRepoImpl) UpdateStatus(ctx context.Context, merchantID string, status model.MerchantStatus) error {
	result := r.db.WithContext(ctx).Model(&model.Merchant{}).
		Where("id = ?", merchantID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *merchantRepoImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Merchant{}).Count(&count).Error
	return count, err
}
