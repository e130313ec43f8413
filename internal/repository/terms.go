package repository

import (
	"context"
	"marketplace-api/internal/model"
	"time"

	"gorm.io/gorm"
)

type TermsRepository interface {
	GetActiveVersion(ctx context.Context) (*model.TermsVersion, error)
	HasAccepted(ctx context.Context, userID, termsVersionID string) (bool, error)
	RecordAcceptance(ctx context.Context, acceptance *model.TermsAcceptance) error
	PublishVersion(ctx context.Context, version *model.TermsVersion) error
}

type termsRepoImpl struct {
	db *gorm.DB
}

func NewTermsRepository(db *gorm.DB) TermsRepository {
	return &termsRepoImpl{
		db: db,
	}
}

func (r *termsRepoImpl) GetActiveVersion(ctx context.Context) (*model.TermsVersion, error) {
	var version model.TermsVersion
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("published_at DESC").
		First(&version).Error
	if err != nil {
		return nil, err
	}

	return &version, nil
}

func (r *termsRepoImpl) HasAccepted(ctx context.Context, userID, termsVersionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TermsAcceptance{}).
		Where("user_id = ? AND terms_version_id = ?", userID, termsVersionID).
		Count(&count).Error

	return count > 0, err
}

func (r *termsRepoImpl) RecordAcceptance(ctx context.Context, acceptance *model.TermsAcceptance) error {
	return r.db.WithContext(ctx).Create(acceptance).Error
}

// PublishVersion deactivates the current version and inserts the new one as
// active, atomically.
func (r *termsRepoImpl) PublishVersion(ctx context.Context, version *model.TermsVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.TermsVersion{}).
			Where("active = ?", true).
			Update("active", false).Error; err != nil {
			return err
		}

		version.Active = true
		if version.PublishedAt.IsZero() {
			version.PublishedAt = time.Now()
		}
		return tx.Create(version).Error
	})
}
