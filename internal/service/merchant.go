package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultCommissionRate = 0.20

type MerchantService interface {
	Register(ctx context.Context, userID string, req *dto.RegisterMerchantRequest) (*model.Merchant, error)
	GetByOwner(ctx context.Context, userID string) (*model.Merchant, error)
	Get(ctx context.Context, merchantID string) (*model.Merchant, error)
	List(ctx context.Context) ([]*model.Merchant, error)
	UpdateStatus(ctx context.Context, merchantID string, status model.MerchantStatus) error
	Stats(ctx context.Context, merchantID string) (*dto.MerchantStats, error)
	Payouts(ctx context.Context, merchantID string) (*dto.PayoutSummary, error)
}

type merchantServiceImpl struct {
	merchantRepo repository.MerchantRepository
	orderRepo    repository.OrderRepository
	payoutRepo   repository.PayoutRepository
	productRepo  repository.ProductRepository
	userRepo     repository.UserRepository
}

func NewMerchantService(
	merchantRepo repository.MerchantRepository,
	orderRepo repository.OrderRepository,
	payoutRepo repository.PayoutRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
) MerchantService {
	return &merchantServiceImpl{
		merchantRepo: merchantRepo,
		orderRepo:    orderRepo,
		payoutRepo:   payoutRepo,
		productRepo:  productRepo,
		userRepo:     userRepo,
	}
}

func (s *merchantServiceImpl) Register(ctx context.Context, userID string, req *dto.RegisterMerchantRequest) (*model.Merchant, error) {
	if req.StoreName == "" || req.Slug == "" {
		return nil, fmt.Errorf("store name and slug are required")
	}

	if _, err := s.merchantRepo.GetByOwner(ctx, userID); err == nil {
		return nil, fmt.Errorf("user already owns a store")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing store: %w", err)
	}

	merchant := &model.Merchant{
		ID:             uuid.NewString(),
		OwnerUserID:    userID,
		StoreName:      req.StoreName,
		Slug:           req.Slug,
		Status:         model.MerchantPending,
		CommissionRate: defaultCommissionRate,
	}
	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("store slug already taken")
		}
		return nil, fmt.Errorf("create merchant: %w", err)
	}

	return merchant, nil
}

func (s *merchantServiceImpl) GetByOwner(ctx context.Context, userID string) (*model.Merchant, error) {
	return s.merchantRepo.GetByOwner(ctx, userID)
}

func (s *merchantServiceImpl) Get(ctx context.Context, merchantID string) (*model.Merchant, error) {
	return s.merchantRepo.Get(ctx, merchantID)
}

func (s *merchantServiceImpl) List(ctx context.Context) ([]*model.Merchant, error) {
	return s.merchantRepo.List(ctx)
}

// UpdateStatus is the admin approve/suspend action. Approval also promotes
// the owner to the merchant role so the dashboard opens up.
func (s *merchantServiceImpl) UpdateStatus(ctx context.Context, merchantID string, status model.MerchantStatus) error {
	switch status {
	case model.MerchantApproved, model.MerchantSuspended:
	default:
		return fmt.Errorf("cannot set merchant status %s", status)
	}

	merchant, err := s.merchantRepo.Get(ctx, merchantID)
	if err != nil {
		return err
	}

	if err := s.merchantRepo.UpdateStatus(ctx, merchantID, status); err != nil {
		return err
	}

	if status == model.MerchantApproved {
		if err := s.userRepo.UpdateRole(ctx, merchant.OwnerUserID, model.RoleMerchant); err != nil {
			return fmt.Errorf("promote store owner: %w", err)
		}
	}

	return nil
}

func (s *merchantServiceImpl) Stats(ctx context.Context, merchantID string) (*dto.MerchantStats, error) {
	count, revenue, payout, err := s.orderRepo.MerchantStats(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("merchant order stats: %w", err)
	}

	products, err := s.productRepo.CountByMerchant(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("merchant product count: %w", err)
	}

	return &dto.MerchantStats{
		TotalSubOrders: count,
		TotalRevenue:   revenue,
		TotalPayout:    payout,
		TotalProducts:  products,
	}, nil
}

func (s *merchantServiceImpl) Payouts(ctx context.Context, merchantID string) (*dto.PayoutSummary, error) {
	balance, err := s.payoutRepo.GetBalance(ctx, merchantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		balance = &model.PayoutBalance{MerchantID: merchantID}
	} else if err != nil {
		return nil, fmt.Errorf("get payout balance: %w", err)
	}

	transactions, err := s.payoutRepo.ListTransactions(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list payout transactions: %w", err)
	}

	return &dto.PayoutSummary{
		Balance:      balance,
		Transactions: transactions,
	}, nil
}
