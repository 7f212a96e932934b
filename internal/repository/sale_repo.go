package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleFilter narrows sale listings. Nil fields are ignored.
type SaleFilter struct {
	ProductID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	// FindByIDForUpdate locks the sale row so that concurrent returns
	// against the same sale serialize on the return bound check.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, shopID uuid.UUID, filter SaleFilter, page, limit int) ([]model.Sale, int64, error)
	ListAll(ctx context.Context, shopID uuid.UUID, filter SaleFilter) ([]model.Sale, error)
}

type SaleReturnRepository interface {
	Create(ctx context.Context, ret *model.SaleReturn) error
	SumReturnedQuantity(ctx context.Context, saleID uuid.UUID) (int, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.SaleReturn, error)
	List(ctx context.Context, shopID uuid.UUID, page, limit int) ([]model.SaleReturn, int64, error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Create(sale).Error
}

func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&sale).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) applyFilter(db *gorm.DB, shopID uuid.UUID, filter SaleFilter) *gorm.DB {
	db = db.Where("shop_id = ?", shopID)
	if filter.ProductID != nil {
		db = db.Where("product_id = ?", *filter.ProductID)
	}
	if filter.From != nil {
		db = db.Where("sold_at >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("sold_at <= ?", *filter.To)
	}
	return db
}

func (r *saleRepository) List(ctx context.Context, shopID uuid.UUID, filter SaleFilter, page, limit int) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	db := r.applyFilter(GetDB(ctx, r.db).Model(&model.Sale{}), shopID, filter)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").Order("sold_at desc").
		Offset(offset).Limit(limit).Find(&sales).Error; err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}

func (r *saleRepository) ListAll(ctx context.Context, shopID uuid.UUID, filter SaleFilter) ([]model.Sale, error) {
	var sales []model.Sale
	db := r.applyFilter(GetDB(ctx, r.db).Model(&model.Sale{}), shopID, filter)
	if err := db.Preload("Product").Order("sold_at desc").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

type saleReturnRepository struct {
	db *gorm.DB
}

func NewSaleReturnRepository(db *gorm.DB) SaleReturnRepository {
	return &saleReturnRepository{db: db}
}

func (r *saleReturnRepository) Create(ctx context.Context, ret *model.SaleReturn) error {
	return GetDB(ctx, r.db).Create(ret).Error
}

// SumReturnedQuantity derives the cumulative returned quantity for a sale
// from its return history.
func (r *saleReturnRepository) SumReturnedQuantity(ctx context.Context, saleID uuid.UUID) (int, error) {
	var total int
	err := GetDB(ctx, r.db).Model(&model.SaleReturn{}).
		Where("sale_id = ?", saleID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

func (r *saleReturnRepository) ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.SaleReturn, error) {
	var returns []model.SaleReturn
	if err := GetDB(ctx, r.db).
		Where("sale_id = ?", saleID).
		Order("returned_at asc").Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

func (r *saleReturnRepository) List(ctx context.Context, shopID uuid.UUID, page, limit int) ([]model.SaleReturn, int64, error) {
	var returns []model.SaleReturn
	var total int64

	db := GetDB(ctx, r.db).Model(&model.SaleReturn{}).Where("shop_id = ?", shopID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("returned_at desc").Offset(offset).Limit(limit).
		Find(&returns).Error; err != nil {
		return nil, 0, err
	}

	return returns, total, nil
}
