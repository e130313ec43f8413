package repository

import (
	"context"
	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"time"

	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error)
	List(ctx context.Context, status model.ProductStatus, filter *dto.ProductFilter) ([]*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateStatus(ctx context.Context, productID string, status model.ProductStatus) error
	Delete(ctx context.Context, productID string) error
	CountByMerchant(ctx context.Context, merchantID string) (int64, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) List(ctx context.Context, status model.ProductStatus, filter *dto.ProductFilter) ([]*model.Product, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})

	if status != "" {
		q = q.Where("status = ?", status)
	}
	if filter != nil {
		if filter.CategoryID != "" {
			q = q.Where("category_id = ?", filter.CategoryID)
		}
		if filter.MerchantID != "" {
			q = q.Where("merchant_id = ?", filter.MerchantID)
		}
		if filter.Search != "" {
			q = q.Where("title LIKE ?", "%"+filter.Search+"%")
		}

		perPage := filter.PerPage
		if perPage <= 0 || perPage > 100 {
			perPage = 20
		}
		page := filter.Page
		if page < 1 {
			page = 1
		}
		q = q.Limit(perPage).Offset((page - 1) * perPage)
	}

	var products []*model.Product
	err := q.Order("created_at DESC").Find(&products).Error
	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) Update(ctx context.Context, product *model.Product) error {
	product.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepoImpl) UpdateStatus(ctx context.Context, productID string, status model.ProductStatus) error {
	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
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

func (r *productRepoImpl) Delete(ctx context.Context, productID string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", productID).
		Delete(&model.Product{}).Error
}

func (r *productRepoImpl) CountByMerchant(ctx context.Context, merchantID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("merchant_id = ?", merchantID).
		Count(&count).Error
	return count, err
}
