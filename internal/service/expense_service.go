package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateExpenseRequest struct {
	ShopID     *uuid.UUID      `json:"shop_id"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Note       string          `json:"note" binding:"max=255"`
	IncurredAt *time.Time      `json:"incurred_at"`
}

type UpdateExpenseRequest struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Note       string          `json:"note" binding:"max=255"`
	IncurredAt *time.Time      `json:"incurred_at"`
}

type ExpenseService interface {
	Create(ctx context.Context, actor model.Actor, req CreateExpenseRequest) (*model.Expense, error)
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, req UpdateExpenseRequest) (*model.Expense, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	List(ctx context.Context, actor model.Actor, shopID *uuid.UUID, category string, from, to *time.Time, page, limit int) ([]model.Expense, int64, error)
}

type expenseService struct {
	expenseRepo repository.ExpenseRepository
}

func NewExpenseService(expenseRepo repository.ExpenseRepository) ExpenseService {
	return &expenseService{expenseRepo: expenseRepo}
}

func normalizeExpense(category string, amount decimal.Decimal) (string, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return "", apperror.Validation("amount must be positive")
	}
	if category == "" {
		category = model.ExpenseCategoryOther
	}
	if !model.ValidExpenseCategory(category) {
		return "", apperror.Validationf("unknown expense category %q", category)
	}
	return category, nil
}

func (s *expenseService) Create(ctx context.Context, actor model.Actor, req CreateExpenseRequest) (*model.Expense, error) {
	shopID, err := resolveShopID(actor, req.ShopID)
	if err != nil {
		return nil, err
	}
	category, err := normalizeExpense(req.Category, req.Amount)
	if err != nil {
		return nil, err
	}

	incurredAt := time.Now().UTC()
	if req.IncurredAt != nil {
		incurredAt = *req.IncurredAt
	}

	expense := &model.Expense{
		ShopID:          shopID,
		CreatedByUserID: &actor.UserID,
		Category:        category,
		Amount:          req.Amount.RoundBank(2),
		Note:            req.Note,
		IncurredAt:      incurredAt,
	}
	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	return expense, nil
}

func (s *expenseService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req UpdateExpenseRequest) (*model.Expense, error) {
	expense, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	category, err := normalizeExpense(req.Category, req.Amount)
	if err != nil {
		return nil, err
	}

	expense.Category = category
	expense.Amount = req.Amount.RoundBank(2)
	expense.Note = req.Note
	if req.IncurredAt != nil {
		expense.IncurredAt = *req.IncurredAt
	}

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return expense, nil
}

func (s *expenseService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	expense, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.expenseRepo.Delete(ctx, expense.ID); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

func (s *expenseService) List(ctx context.Context, actor model.Actor, shopID *uuid.UUID, category string, from, to *time.Time, page, limit int) ([]model.Expense, int64, error) {
	resolved, err := resolveShopID(actor, shopID)
	if err != nil {
		return nil, 0, err
	}
	return s.expenseRepo.List(ctx, resolved, category, from, to, page, limit)
}

func (s *expenseService) load(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Expense, error) {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("expense not found")
		}
		return nil, fmt.Errorf("failed to load expense: %w", err)
	}
	if err := ensureShopScope(actor, expense.ShopID); err != nil {
		return nil, err
	}
	return expense, nil
}
