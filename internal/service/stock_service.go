package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backend/internal/costing"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UpsertStockRequest struct {
	ShopID         *uuid.UUID      `json:"shop_id"`
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	QuantityOnHand int             `json:"quantity_on_hand" binding:"gte=0"`
	BuyingPrice    decimal.Decimal `json:"buying_price" binding:"required"`
	SellingPrice   decimal.Decimal `json:"selling_price" binding:"required"`
}

type AdjustStockRequest struct {
	QuantityDelta int              `json:"quantity_delta"`
	BuyingPrice   *decimal.Decimal `json:"buying_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	Reason        string           `json:"reason" binding:"max=255"`
}

type StockService interface {
	Upsert(ctx context.Context, actor model.Actor, req UpsertStockRequest) (*model.Stock, error)
	Adjust(ctx context.Context, actor model.Actor, stockID uuid.UUID, req AdjustStockRequest) (*model.Stock, error)
	Delete(ctx context.Context, actor model.Actor, stockID uuid.UUID) error
	List(ctx context.Context, actor model.Actor, shopID *uuid.UUID, page, limit int, search string) ([]model.Stock, int64, error)
	ListAdjustments(ctx context.Context, actor model.Actor, shopID, productID *uuid.UUID, page, limit int) ([]model.StockAdjustment, int64, error)
}

type stockService struct {
	stockRepo      repository.StockRepository
	productRepo    repository.ProductRepository
	shopRepo       repository.ShopRepository
	adjustmentRepo repository.AdjustmentRepository
	txManager      repository.TransactionManager
	notifier       Notifier
}

func NewStockService(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	shopRepo repository.ShopRepository,
	adjustmentRepo repository.AdjustmentRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) StockService {
	return &stockService{
		stockRepo:      stockRepo,
		productRepo:    productRepo,
		shopRepo:       shopRepo,
		adjustmentRepo: adjustmentRepo,
		txManager:      txManager,
		notifier:       notifier,
	}
}

// Upsert sets a stock row's quantity and prices outright. It is the seeding
// path for initial inventory; day-to-day movements go through purchases,
// sales and transfers.
func (s *stockService) Upsert(ctx context.Context, actor model.Actor, req UpsertStockRequest) (*model.Stock, error) {
	shopID, err := resolveShopID(actor, req.ShopID)
	if err != nil {
		return nil, err
	}
	if req.BuyingPrice.IsNegative() || req.SellingPrice.IsNegative() {
		return nil, apperror.Validation("prices must not be negative")
	}
	if req.QuantityOnHand > 0 &&
		(req.BuyingPrice.LessThanOrEqual(decimal.Zero) || req.SellingPrice.LessThanOrEqual(decimal.Zero)) {
		return nil, apperror.Validation("prices must be positive while quantity is on hand")
	}

	shop, err := s.shopRepo.FindByID(ctx, shopID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("shop not found")
		}
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}
	if !shop.IsActive {
		return nil, apperror.Validation("cannot manage stock for an inactive shop")
	}

	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.IsActive {
		return nil, apperror.Validation("cannot manage stock for an inactive product")
	}
	if product.ShopID != shopID {
		return nil, apperror.Validation("product does not belong to the given shop")
	}

	var stock *model.Stock
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		stock, err = s.stockRepo.FindByShopAndProductForUpdate(txCtx, shopID, product.ID)
		if err != nil {
			if !repository.IsNotFound(err) {
				return fmt.Errorf("failed to lock stock: %w", err)
			}
			stock = &model.Stock{
				ShopID:         shopID,
				ProductID:      product.ID,
				QuantityOnHand: req.QuantityOnHand,
				BuyingPrice:    req.BuyingPrice.RoundBank(2),
				SellingPrice:   req.SellingPrice.RoundBank(2),
			}
			if err := s.stockRepo.Create(txCtx, stock); err != nil {
				if repository.IsUniqueViolation(err) {
					return apperror.Conflict("stock row was created concurrently, retry the operation")
				}
				return fmt.Errorf("failed to create stock: %w", err)
			}
			return nil
		}

		stock.QuantityOnHand = req.QuantityOnHand
		stock.BuyingPrice = req.BuyingPrice.RoundBank(2)
		stock.SellingPrice = req.SellingPrice.RoundBank(2)
		if err := s.stockRepo.Update(txCtx, stock); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.StockChanged(ctx, shopEvent(EventStockUpserted, shopID, product.ID, map[string]interface{}{
		"stock_id": stock.ID.String(),
		"quantity": stock.QuantityOnHand,
	}))
	return stock, nil
}

// Adjust applies an authoritative manual correction and records it in the
// adjustment ledger. A request changing nothing is rejected.
func (s *stockService) Adjust(ctx context.Context, actor model.Actor, stockID uuid.UUID, req AdjustStockRequest) (*model.Stock, error) {
	if req.QuantityDelta == 0 && req.BuyingPrice == nil && req.SellingPrice == nil {
		return nil, apperror.Validation("no adjustment provided")
	}
	if (req.BuyingPrice != nil && req.BuyingPrice.IsNegative()) ||
		(req.SellingPrice != nil && req.SellingPrice.IsNegative()) {
		return nil, apperror.Validation("prices must not be negative")
	}

	var stock *model.Stock
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		loaded, err := s.stockRepo.FindByID(txCtx, stockID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.NotFound("stock record not found")
			}
			return fmt.Errorf("failed to load stock: %w", err)
		}
		if err := ensureShopScope(actor, loaded.ShopID); err != nil {
			return err
		}

		stock, err = s.stockRepo.FindByShopAndProductForUpdate(txCtx, loaded.ShopID, loaded.ProductID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.NotFound("stock record not found")
			}
			return fmt.Errorf("failed to lock stock: %w", err)
		}

		if stock.QuantityOnHand+req.QuantityDelta > 0 &&
			((req.BuyingPrice != nil && req.BuyingPrice.LessThanOrEqual(decimal.Zero)) ||
				(req.SellingPrice != nil && req.SellingPrice.LessThanOrEqual(decimal.Zero))) {
			return apperror.Validation("prices must be positive while quantity is on hand")
		}

		before := stock.QuantityOnHand
		snap, err := costing.Adjust(snapshotOf(stock), req.QuantityDelta, req.BuyingPrice, req.SellingPrice)
		if err != nil {
			return err
		}
		applySnapshot(stock, snap)
		if err := s.stockRepo.Update(txCtx, stock); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		adjustment := &model.StockAdjustment{
			StockID:          stock.ID,
			ShopID:           stock.ShopID,
			ProductID:        stock.ProductID,
			AdjustedByUserID: &actor.UserID,
			QuantityBefore:   before,
			QuantityAfter:    stock.QuantityOnHand,
			Delta:            req.QuantityDelta,
			Reason:           strings.TrimSpace(req.Reason),
			AdjustedAt:       time.Now().UTC(),
		}
		if err := s.adjustmentRepo.Create(txCtx, adjustment); err != nil {
			return fmt.Errorf("failed to record adjustment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.StockChanged(ctx, shopEvent(EventStockAdjusted, stock.ShopID, stock.ProductID, map[string]interface{}{
		"stock_id": stock.ID.String(),
		"quantity": stock.QuantityOnHand,
	}))
	return stock, nil
}

func (s *stockService) Delete(ctx context.Context, actor model.Actor, stockID uuid.UUID) error {
	var stock *model.Stock
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		stock, err = s.stockRepo.FindByID(txCtx, stockID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.NotFound("stock record not found")
			}
			return fmt.Errorf("failed to load stock: %w", err)
		}
		if err := ensureShopScope(actor, stock.ShopID); err != nil {
			return err
		}
		if err := s.stockRepo.Delete(txCtx, stock.ID); err != nil {
			return fmt.Errorf("failed to delete stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.StockChanged(ctx, shopEvent(EventStockDeleted, stock.ShopID, stock.ProductID, map[string]interface{}{
		"stock_id": stock.ID.String(),
	}))
	return nil
}

func (s *stockService) List(ctx context.Context, actor model.Actor, shopID *uuid.UUID, page, limit int, search string) ([]model.Stock, int64, error) {
	resolved, err := resolveShopID(actor, shopID)
	if err != nil {
		return nil, 0, err
	}
	return s.stockRepo.List(ctx, resolved, page, limit, search)
}

func (s *stockService) ListAdjustments(ctx context.Context, actor model.Actor, shopID, productID *uuid.UUID, page, limit int) ([]model.StockAdjustment, int64, error) {
	resolved, err := resolveShopID(actor, shopID)
	if err != nil {
		return nil, 0, err
	}
	return s.adjustmentRepo.List(ctx, resolved, productID, page, limit)
}
