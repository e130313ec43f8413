package service

import (
	"context"
	"fmt"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"github.com/google/uuid"
)

type AdminService interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUserRole(ctx context.Context, userID string, role model.Role) error
	Stats(ctx context.Context) (*dto.AdminStats, error)

	CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, categoryID string, req *dto.CreateCategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, categoryID string) error

	GetSettings(ctx context.Context) (map[string]string, error)
	UpdateSettings(ctx context.Context, settings map[string]string) error

	PublishTerms(ctx context.Context, req *dto.PublishTermsRequest) (*model.TermsVersion, error)
}

type adminServiceImpl struct {
	userRepo     repository.UserRepository
	merchantRepo repository.MerchantRepository
	orderRepo    repository.OrderRepository
	categoryRepo repository.CategoryRepository
	settingRepo  repository.SettingRepository
	termsRepo    repository.TermsRepository
}

func NewAdminService(
	userRepo repository.UserRepository,
	merchantRepo repository.MerchantRepository,
	orderRepo repository.OrderRepository,
	categoryRepo repository.CategoryRepository,
	settingRepo repository.SettingRepository,
	termsRepo repository.TermsRepository,
) AdminService {
	return &adminServiceImpl{
		userRepo:     userRepo,
		merchantRepo: merchantRepo,
		orderRepo:    orderRepo,
		categoryRepo: categoryRepo,
		settingRepo:  settingRepo,
		termsRepo:    termsRepo,
	}
}

func (s *adminServiceImpl) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.List(ctx)
}

func (s *adminServiceImpl) UpdateUserRole(ctx context.Context, userID string, role model.Role) error {
	switch role {
	case model.RoleCustomer, model.RoleMerchant, model.RoleAdmin:
	default:
		return fmt.Errorf("unknown role %s", role)
	}

	return s.userRepo.UpdateRole(ctx, userID, role)
}

func (s *adminServiceImpl) Stats(ctx context.Context) (*dto.AdminStats, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	merchants, err := s.merchantRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count merchants: %w", err)
	}
	orders, err := s.orderRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	revenue, err := s.orderRepo.SumRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}

	return &dto.AdminStats{
		TotalUsers:     users,
		TotalMerchants: merchants,
		TotalOrders:    orders,
		TotalRevenue:   revenue,
	}, nil
}

func (s *adminServiceImpl) CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest) (*model.Category, error) {
	if req.Name == "" || req.Slug == "" {
		return nil, fmt.Errorf("name and slug are required")
	}

	category := &model.Category{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Slug:     req.Slug,
		ParentID: req.ParentID,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	return category, nil
}

func (s *adminServiceImpl) UpdateCategory(ctx context.Context, categoryID string, req *dto.CreateCategoryRequest) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		category.Name = req.Name
	}
	if req.Slug != "" {
		category.Slug = req.Slug
	}
	category.ParentID = req.ParentID

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	return category, nil
}

func (s *adminServiceImpl) DeleteCategory(ctx context.Context, categoryID string) error {
	return s.categoryRepo.Delete(ctx, categoryID)
}

func (s *adminServiceImpl) GetSettings(ctx context.Context) (map[string]string, error) {
	return s.settingRepo.GetAll(ctx)
}

func (s *adminServiceImpl) UpdateSettings(ctx context.Context, settings map[string]string) error {
	for key, value := range settings {
		if err := s.settingRepo.Upsert(ctx, key, value); err != nil {
			return fmt.Errorf("update setting %s: %w", key, err)
		}
	}
	return nil
}

func (s *adminServiceImpl) PublishTerms(ctx context.Context, req *dto.PublishTermsRequest) (*model.TermsVersion, error) {
	if req.Version == "" {
		return nil, fmt.Errorf("version is required")
	}

	version := &model.TermsVersion{
		ID:      uuid.NewString(),
		Version: req.Version,
		Body:    req.Body,
	}
	if err := s.termsRepo.PublishVersion(ctx, version); err != nil {
		return nil, fmt.Errorf("publish terms version: %w", err)
	}

	return version, nil
}
