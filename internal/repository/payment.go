package repository

import (
	"context"
	"marketplace-api/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	// FindByTransactionID runs against the handle it is given so the confirm
	// flow can use it both for the pre-transaction fast path (pass the root db)
	// and for the in-transaction recheck (pass the tx).
	FindByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*model.Payment, error)
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

func (r *paymentRepoImpl) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*model.Payment, error) {
	if db == nil {
		db = r.db
	}

	var payment model.Payment
	err := db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}

	return &payment, nil
}
