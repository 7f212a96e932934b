package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransferFilter narrows transfer listings. ShopID matches either side of
// the transfer. Nil fields are ignored.
type TransferFilter struct {
	ProductID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

type TransferRepository interface {
	Create(ctx context.Context, transfer *model.StockTransfer) error
	Update(ctx context.Context, transfer *model.StockTransfer) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockTransfer, error)
	List(ctx context.Context, shopID uuid.UUID, filter TransferFilter, page, limit int) ([]model.StockTransfer, int64, error)
}

type transferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, transfer *model.StockTransfer) error {
	return GetDB(ctx, r.db).Create(transfer).Error
}

func (r *transferRepository) Update(ctx context.Context, transfer *model.StockTransfer) error {
	return GetDB(ctx, r.db).Save(transfer).Error
}

func (r *transferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.StockTransfer{}).Error
}

func (r *transferRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StockTransfer, error) {
	var transfer model.StockTransfer
	if err := GetDB(ctx, r.db).First(&transfer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) List(ctx context.Context, shopID uuid.UUID, filter TransferFilter, page, limit int) ([]model.StockTransfer, int64, error) {
	var transfers []model.StockTransfer
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockTransfer{}).
		Where("from_shop_id = ? OR to_shop_id = ?", shopID, shopID)
	if filter.ProductID != nil {
		db = db.Where("product_id = ?", *filter.ProductID)
	}
	if filter.From != nil {
		db = db.Where("transferred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("transferred_at <= ?", *filter.To)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").Order("transferred_at desc").
		Offset(offset).Limit(limit).Find(&transfers).Error; err != nil {
		return nil, 0, err
	}

	return transfers, total, nil
}
