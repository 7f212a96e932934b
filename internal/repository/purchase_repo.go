package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PurchaseFilter narrows purchase listings. Nil fields are ignored.
type PurchaseFilter struct {
	ProductID  *uuid.UUID
	SupplierID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	Update(ctx context.Context, purchase *model.Purchase) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	List(ctx context.Context, shopID uuid.UUID, filter PurchaseFilter, page, limit int) ([]model.Purchase, int64, error)
	ListAll(ctx context.Context, shopID uuid.UUID, filter PurchaseFilter) ([]model.Purchase, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *model.Purchase) error {
	return GetDB(ctx, r.db).Create(purchase).Error
}

func (r *purchaseRepository) Update(ctx context.Context, purchase *model.Purchase) error {
	return GetDB(ctx, r.db).Save(purchase).Error
}

func (r *purchaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Purchase{}).Error
}

func (r *purchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := GetDB(ctx, r.db).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) applyFilter(db *gorm.DB, shopID uuid.UUID, filter PurchaseFilter) *gorm.DB {
	db = db.Where("shop_id = ?", shopID)
	if filter.ProductID != nil {
		db = db.Where("product_id = ?", *filter.ProductID)
	}
	if filter.SupplierID != nil {
		db = db.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.From != nil {
		db = db.Where("purchased_at >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("purchased_at <= ?", *filter.To)
	}
	return db
}

func (r *purchaseRepository) List(ctx context.Context, shopID uuid.UUID, filter PurchaseFilter, page, limit int) ([]model.Purchase, int64, error) {
	var purchases []model.Purchase
	var total int64

	db := r.applyFilter(GetDB(ctx, r.db).Model(&model.Purchase{}), shopID, filter)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").Preload("Supplier").
		Order("purchased_at desc").Offset(offset).Limit(limit).
		Find(&purchases).Error; err != nil {
		return nil, 0, err
	}

	return purchases, total, nil
}

// ListAll returns every matching purchase without pagination, for exports.
func (r *purchaseRepository) ListAll(ctx context.Context, shopID uuid.UUID, filter PurchaseFilter) ([]model.Purchase, error) {
	var purchases []model.Purchase
	db := r.applyFilter(GetDB(ctx, r.db).Model(&model.Purchase{}), shopID, filter)
	if err := db.Preload("Product").Preload("Supplier").
		Order("purchased_at desc").Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}
