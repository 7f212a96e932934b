package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShopRepository interface {
	Create(ctx context.Context, shop *model.Shop) error
	Update(ctx context.Context, shop *model.Shop) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shop, error)
	FindByCode(ctx context.Context, code string) (*model.Shop, error)
	List(ctx context.Context, page, limit int, search string, includeInactive bool) ([]model.Shop, int64, error)
}

type shopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) Create(ctx context.Context, shop *model.Shop) error {
	return GetDB(ctx, r.db).Create(shop).Error
}

func (r *shopRepository) Update(ctx context.Context, shop *model.Shop) error {
	return GetDB(ctx, r.db).Save(shop).Error
}

func (r *shopRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	var shop model.Shop
	if err := GetDB(ctx, r.db).First(&shop, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) FindByCode(ctx context.Context, code string) (*model.Shop, error) {
	var shop model.Shop
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) List(ctx context.Context, page, limit int, search string, includeInactive bool) ([]model.Shop, int64, error) {
	var shops []model.Shop
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Shop{})
	if search != "" {
		db = db.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&shops).Error; err != nil {
		return nil, 0, err
	}

	return shops, total, nil
}
