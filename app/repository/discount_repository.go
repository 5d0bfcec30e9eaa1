package repository

import (
	"context"
	"strings"

	"github.com/ManuelReschke/ShopFox/app/models"
	"gorm.io/gorm"
)

// discountRepository implements the DiscountRepository interface
type discountRepository struct {
	db *gorm.DB
}

// NewDiscountRepository creates a new discount repository instance
func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepository{db: db}
}

// Create stores a new discount code; codes are kept upper case
func (r *discountRepository) Create(ctx context.Context, code *models.DiscountCode) error {
	code.Code = strings.ToUpper(strings.TrimSpace(code.Code))
	return r.db.WithContext(ctx).Create(code).Error
}

// GetByID retrieves a discount code by its id
func (r *discountRepository) GetByID(ctx context.Context, id string) (*models.DiscountCode, error) {
	var code models.DiscountCode
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// GetByCode retrieves a discount code case-insensitively
func (r *discountRepository) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	err := r.db.WithContext(ctx).Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&dc).Error
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

// HasUsage checks whether a user already redeemed a code
func (r *discountRepository) HasUsage(ctx context.Context, discountCodeID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DiscountUsage{}).
		Where("discount_code_id = ? AND user_id = ?", discountCodeID, userID).
		Count(&count).Error
	return count > 0, err
}

// CountUsages returns the number of ledger rows for a code
func (r *discountRepository) CountUsages(ctx context.Context, discountCodeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DiscountUsage{}).
		Where("discount_code_id = ?", discountCodeID).
		Count(&count).Error
	return count, err
}

// RegisterUsage inserts the usage row and increments usage_count in one
// transaction. The increment is a single UPDATE guarded by the usage limit,
// so concurrent redemptions cannot lose updates or overshoot the limit.
func (r *discountRepository) RegisterUsage(ctx context.Context, usage *models.DiscountUsage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(usage).Error; err != nil {
			if IsDuplicateKey(err) {
				return ErrDiscountAlreadyRedeemed
			}
			return err
		}

		res := tx.Model(&models.DiscountCode{}).
			Where("id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", usage.DiscountCodeID).
			UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDiscountUsageLimitReached
		}
		return nil
	})
}
