package repository

import (
	"context"
	"marketplace-api/internal/model"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PayoutRepository interface {
	// Credit upserts the merchant balance (incrementing available, never
	// overwriting it) and appends the matching ledger entry, inside the
	// caller's transaction.
	Credit(ctx context.Context, tx *gorm.DB, merchantID, subOrderID string, amount float64, currency string) error
	GetBalance(ctx context.Context, merchantID string) (*model.PayoutBalance, error)
	ListTransactions(ctx context.Context, merchantID string) ([]*model.PayoutTransaction, error)
}

type payoutRepoImpl struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &payoutRepoImpl{
		db: db,
	}
}

func (r *payoutRepoImpl) Credit(ctx context.Context, tx *gorm.DB, merchantID, subOrderID string, amount float64, currency string) error {
	balance := &model.PayoutBalance{
		MerchantID: merchantID,
		Available:  amount,
		Pending:    0,
		Currency:   currency,
		UpdatedAt:  time.Now(),
	}

	err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "merchant_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"available":  gorm.Expr("payout_balances.available + ?", amount),
			"updated_at": time.Now(),
		}),
	}).Create(balance).Error
	if err != nil {
		return err
	}

	return tx.WithContext(ctx).Create(&model.PayoutTransaction{
		ID:         uuid.NewString(),
		MerchantID: merchantID,
		SubOrderID: subOrderID,
		Amount:     amount,
		Type:       "SALE_CREDIT",
		CreatedAt:  time.Now(),
	}).Error
}

func (r *payoutRepoImpl) GetBalance(ctx context.Context, merchantID string) (*model.PayoutBalance, error) {
	var balance model.PayoutBalance
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		First(&balance).Error
	if err != nil {
		return nil, err
	}

	return &balance, nil
}

func (r *payoutRepoImpl) ListTransactions(ctx context.Context, merchantID string) ([]*model.PayoutTransaction, error) {
	var transactions []*model.PayoutTransaction
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	return transactions, nil
}
