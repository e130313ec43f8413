package service

import (
	"context"
	"fmt"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"github.com/google/uuid"
)

type ProductService interface {
	Create(ctx context.Context, merchantID string, req *dto.CreateProductRequest) (*model.Product, error)
	Update(ctx context.Context, callerMerchantID string, isAdmin bool, productID string, req *dto.UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, callerMerchantID string, isAdmin bool, productID string) error
	Get(ctx context.Context, callerMerchantID string, isAdmin bool, productID string) (*model.Product, error)
	ListPublished(ctx context.Context, filter *dto.ProductFilter) ([]*model.Product, error)
	Moderate(ctx context.Context, productID string, status model.ProductStatus) error
	ListCategories(ctx context.Context) ([]*model.Category, error)
}

type productServiceImpl struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) ProductService {
	return &productServiceImpl{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *productServiceImpl) Create(ctx context.Context, merchantID string, req *dto.CreateProductRequest) (*model.Product, error) {
	if req.Title == "" || req.Price <= 0 {
		return nil, fmt.Errorf("title and a positive price are required")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	status := model.ProductDraft
	if req.Submit {
		status = model.ProductPending
	}

	product := &model.Product{
		ID:          uuid.NewString(),
		MerchantID:  merchantID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Currency:    currency,
		Stock:       req.Stock,
		Status:      status,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func (s *productServiceImpl) Update(ctx context.Context, callerMerchantID string, isAdmin bool, productID string, req *dto.UpdateProductRequest) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && product.MerchantID != callerMerchantID {
		return nil, ErrForbidden
	}

	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}
	if req.Title != nil {
		product.Title = *req.Title
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	// Content edits drop a published listing back into review.
	if product.Status == model.ProductPublished || req.Submit {
		product.Status = model.ProductPending
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func (s *productServiceImpl) Delete(ctx context.Context, callerMerchantID string, isAdmin bool, productID string) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if !isAdmin && product.MerchantID != callerMerchantID {
		return ErrForbidden
	}

	return s.productRepo.Delete(ctx, productID)
}

func (s *productServiceImpl) Get(ctx context.Context, callerMerchantID string, isAdmin bool, productID string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != model.ProductPublished && !isAdmin && product.MerchantID != callerMerchantID {
		return nil, ErrForbidden
	}

	return product, nil
}

func (s *productServiceImpl) ListPublished(ctx context.Context, filter *dto.ProductFilter) ([]*model.Product, error) {
	return s.productRepo.List(ctx, model.ProductPublished, filter)
}

func (s *productServiceImpl) Moderate(ctx context.Context, productID string, status model.ProductStatus) error {
	switch status {
	case model.ProductPublished, model.ProductRejected:
	default:
		return fmt.Errorf("moderation can only publish or reject, got %s", status)
	}

	return s.productRepo.UpdateStatus(ctx, productID, status)
}

func (s *productServiceImpl) ListCategories(ctx context.Context) ([]*model.Category, error) {
	return s.categoryRepo.List(ctx)
}
