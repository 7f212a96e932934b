package service

import (
	"context"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
)

type CreateProductRequest struct {
	ShopID      *uuid.UUID `json:"shop_id"`
	SKU         string     `json:"sku" binding:"required,max=64"`
	Name        string     `json:"name" binding:"required,max=160"`
	Unit        string     `json:"unit"`
	Description string     `json:"description"`
}

type UpdateProductRequest struct {
	Name        string `json:"name" binding:"required,max=160"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type ProductService interface {
	Create(ctx context.Context, actor model.Actor, req CreateProductRequest) (*model.Product, error)
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, req UpdateProductRequest) (*model.Product, error)
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Product, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	List(ctx context.Context, actor model.Actor, shopID *uuid.UUID, page, limit int, search string, includeInactive bool) ([]model.Product, int64, error)
}

type productService struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
	txManager   repository.TransactionManager
}

func NewProductService(
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	txManager repository.TransactionManager,
) ProductService {
	return &productService{
		productRepo: productRepo,
		stockRepo:   stockRepo,
		txManager:   txManager,
	}
}

func (s *productService) Create(ctx context.Context, actor model.Actor, req CreateProductRequest) (*model.Product, error) {
	shopID, err := resolveShopID(actor, req.ShopID)
	if err != nil {
		return nil, err
	}

	unit := req.Unit
	if unit == "" {
		unit = model.UnitPiece
	}
	if !model.ValidUnit(unit) {
		return nil, apperror.Validationf("unknown unit %q", unit)
	}

	product := &model.Product{
		ShopID:      shopID,
		SKU:         req.SKU,
		Name:        req.Name,
		Unit:        unit,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperror.Conflictf("sku %q already exists in this shop", req.SKU)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req UpdateProductRequest) (*model.Product, error) {
	product, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	product.Name = req.Name
	if req.Unit != "" {
		if !model.ValidUnit(req.Unit) {
			return nil, apperror.Validationf("unknown unit %q", req.Unit)
		}
		product.Unit = req.Unit
	}
	product.Description = req.Description
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *productService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Product, error) {
	return s.load(ctx, actor, id)
}

// Delete removes a product only while no stock row holds units for it.
func (s *productService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	product, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		stock, err := s.stockRepo.FindByShopAndProductForUpdate(txCtx, product.ShopID, product.ID)
		if err != nil && !repository.IsNotFound(err) {
			return fmt.Errorf("failed to load stock: %w", err)
		}
		if stock != nil {
			if stock.QuantityOnHand > 0 {
				return apperror.Conflict("cannot delete product with stock on hand")
			}
			if err := s.stockRepo.Delete(txCtx, stock.ID); err != nil {
				return fmt.Errorf("failed to delete stock row: %w", err)
			}
		}
		if err := s.productRepo.Delete(txCtx, product.ID); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
}

func (s *productService) List(ctx context.Context, actor model.Actor, shopID *uuid.UUID, page, limit int, search string, includeInactive bool) ([]model.Product, int64, error) {
	resolved, err := resolveShopID(actor, shopID)
	if err != nil {
		return nil, 0, err
	}
	return s.productRepo.List(ctx, resolved, page, limit, search, includeInactive)
}

func (s *productService) load(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if err := ensureShopScope(actor, product.ShopID); err != nil {
		return nil, err
	}
	return product, nil
}
