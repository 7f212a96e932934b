package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	Update(ctx context.Context, expense *model.Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	List(ctx context.Context, shopID uuid.UUID, category string, from, to *time.Time, page, limit int) ([]model.Expense, int64, error)
	SumForPeriod(ctx context.Context, shopID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}

type expenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, expense *model.Expense) error {
	return GetDB(ctx, r.db).Create(expense).Error
}

func (r *expenseRepository) Update(ctx context.Context, expense *model.Expense) error {
	return GetDB(ctx, r.db).Save(expense).Error
}

func (r *expenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Expense{}).Error
}

func (r *expenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	var expense model.Expense
	if err := GetDB(ctx, r.db).First(&expense, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) List(ctx context.Context, shopID uuid.UUID, category string, from, to *time.Time, page, limit int) ([]model.Expense, int64, error) {
	var expenses []model.Expense
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Expense{}).Where("shop_id = ?", shopID)
	if category != "" {
		db = db.Where("category = ?", category)
	}
	if from != nil {
		db = db.Where("incurred_at >= ?", *from)
	}
	if to != nil {
		db = db.Where("incurred_at <= ?", *to)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("incurred_at desc").Offset(offset).Limit(limit).
		Find(&expenses).Error; err != nil {
		return nil, 0, err
	}

	return expenses, total, nil
}

func (r *expenseRepository) SumForPeriod(ctx context.Context, shopID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := GetDB(ctx, r.db).Model(&model.Expense{}).
		Where("shop_id = ? AND incurred_at >= ? AND incurred_at <= ?", shopID, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
