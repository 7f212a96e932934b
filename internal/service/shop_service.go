package service

import (
	"context"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
)

type CreateShopRequest struct {
	Code     string `json:"code" binding:"required,max=64"`
	Name     string `json:"name" binding:"required,max=120"`
	Location string `json:"location" binding:"max=255"`
}

type UpdateShopRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Location string `json:"location" binding:"max=255"`
	IsActive *bool  `json:"is_active"`
}

type ShopService interface {
	Create(ctx context.Context, actor model.Actor, req CreateShopRequest) (*model.Shop, error)
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, req UpdateShopRequest) (*model.Shop, error)
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Shop, error)
	List(ctx context.Context, actor model.Actor, page, limit int, search string, includeInactive bool) ([]model.Shop, int64, error)
}

type shopService struct {
	shopRepo  repository.ShopRepository
	txManager repository.TransactionManager
}

func NewShopService(shopRepo repository.ShopRepository, txManager repository.TransactionManager) ShopService {
	return &shopService{shopRepo: shopRepo, txManager: txManager}
}

func (s *shopService) Create(ctx context.Context, actor model.Actor, req CreateShopRequest) (*model.Shop, error) {
	if !actor.IsGlobal() {
		return nil, apperror.Scope("only global accounts can create shops")
	}

	shop := &model.Shop{
		Code:     req.Code,
		Name:     req.Name,
		Location: req.Location,
		IsActive: true,
	}
	if err := s.shopRepo.Create(ctx, shop); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperror.Conflictf("shop code %q already exists", req.Code)
		}
		return nil, fmt.Errorf("failed to create shop: %w", err)
	}
	return shop, nil
}

func (s *shopService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req UpdateShopRequest) (*model.Shop, error) {
	if err := ensureShopScope(actor, id); err != nil {
		return nil, err
	}

	shop, err := s.shopRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("shop not found")
		}
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}

	shop.Name = req.Name
	shop.Location = req.Location
	if req.IsActive != nil {
		// Only global accounts may archive or reactivate shops.
		if !actor.IsGlobal() {
			return nil, apperror.Scope("only global accounts can change shop status")
		}
		shop.IsActive = *req.IsActive
	}

	if err := s.shopRepo.Update(ctx, shop); err != nil {
		return nil, fmt.Errorf("failed to update shop: %w", err)
	}
	return shop, nil
}

func (s *shopService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Shop, error) {
	if err := ensureShopScope(actor, id); err != nil {
		return nil, err
	}
	shop, err := s.shopRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("shop not found")
		}
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}
	return shop, nil
}

func (s *shopService) List(ctx context.Context, actor model.Actor, page, limit int, search string, includeInactive bool) ([]model.Shop, int64, error) {
	if !actor.IsGlobal() {
		// Shop-bound callers only ever see their own shop.
		if actor.ShopID == nil {
			return nil, 0, apperror.Scope("account is not assigned to any shop")
		}
		shop, err := s.shopRepo.FindByID(ctx, *actor.ShopID)
		if err != nil {
			if repository.IsNotFound(err) {
				return []model.Shop{}, 0, nil
			}
			return nil, 0, fmt.Errorf("failed to load shop: %w", err)
		}
		return []model.Shop{*shop}, 1, nil
	}
	return s.shopRepo.List(ctx, page, limit, search, includeInactive)
}
