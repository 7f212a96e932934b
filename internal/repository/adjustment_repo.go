package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdjustmentRepository interface {
	Create(ctx context.Context, adj *model.StockAdjustment) error
	List(ctx context.Context, shopID uuid.UUID, productID *uuid.UUID, page, limit int) ([]model.StockAdjustment, int64, error)
}

type adjustmentRepository struct {
	db *gorm.DB
}

func NewAdjustmentRepository(db *gorm.DB) AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

func (r *adjustmentRepository) Create(ctx context.Context, adj *model.StockAdjustment) error {
	return GetDB(ctx, r.db).Create(adj).Error
}

func (r *adjustmentRepository) List(ctx context.Context, shopID uuid.UUID, productID *uuid.UUID, page, limit int) ([]model.StockAdjustment, int64, error) {
	var adjustments []model.StockAdjustment
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockAdjustment{}).Where("shop_id = ?", shopID)
	if productID != nil {
		db = db.Where("product_id = ?", *productID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("adjusted_at desc").Offset(offset).Limit(limit).
		Find(&adjustments).Error; err != nil {
		return nil, 0, err
	}

	return adjustments, total, nil
}
