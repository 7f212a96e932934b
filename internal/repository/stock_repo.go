package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	Create(ctx context.Context, stock *model.Stock) error
	Update(ctx context.Context, stock *model.Stock) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Stock, error)
	FindByShopAndProduct(ctx context.Context, shopID, productID uuid.UUID) (*model.Stock, error)
	// FindByShopAndProductForUpdate takes a row-level lock. It must only be
	// called inside a transaction; callers locking more than one row are
	// responsible for a consistent lock order.
	FindByShopAndProductForUpdate(ctx context.Context, shopID, productID uuid.UUID) (*model.Stock, error)
	List(ctx context.Context, shopID uuid.UUID, page, limit int, search string) ([]model.Stock, int64, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) Create(ctx context.Context, stock *model.Stock) error {
	return GetDB(ctx, r.db).Create(stock).Error
}

func (r *stockRepository) Update(ctx context.Context, stock *model.Stock) error {
	return GetDB(ctx, r.db).Save(stock).Error
}

func (r *stockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Stock{}).Error
}

func (r *stockRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	if err := GetDB(ctx, r.db).First(&stock, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) FindByShopAndProduct(ctx context.Context, shopID, productID uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	if err := GetDB(ctx, r.db).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) FindByShopAndProductForUpdate(ctx context.Context, shopID, productID uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) List(ctx context.Context, shopID uuid.UUID, page, limit int, search string) ([]model.Stock, int64, error) {
	var stocks []model.Stock
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Stock{}).
		Joins("JOIN products ON products.id = stocks.product_id").
		Where("stocks.shop_id = ?", shopID)
	if search != "" {
		db = db.Where("products.name ILIKE ? OR products.sku ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").Order("stocks.updated_at desc").
		Offset(offset).Limit(limit).Find(&stocks).Error; err != nil {
		return nil, 0, err
	}

	return stocks, total, nil
}
