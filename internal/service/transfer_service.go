package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/costing"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferStockRequest struct {
	ProductID  uuid.UUID `json:"product_id" binding:"required"`
	FromShopID uuid.UUID `json:"from_shop_id" binding:"required"`
	ToShopID   uuid.UUID `json:"to_shop_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required,gt=0"`
	Note       string    `json:"note" binding:"max=255"`
}

type EditTransferRequest struct {
	ProductID  *uuid.UUID `json:"product_id"`
	FromShopID *uuid.UUID `json:"from_shop_id"`
	ToShopID   *uuid.UUID `json:"to_shop_id"`
	Quantity   *int       `json:"quantity" binding:"omitempty,gt=0"`
	Note       *string    `json:"note" binding:"omitempty,max=255"`
}

type ListTransfersQuery struct {
	ShopID    *uuid.UUID
	ProductID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

type TransferService interface {
	Transfer(ctx context.Context, actor model.Actor, req TransferStockRequest) (*model.StockTransfer, error)
	Edit(ctx context.Context, actor model.Actor, id uuid.UUID, req EditTransferRequest) (*model.StockTransfer, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.StockTransfer, error)
	List(ctx context.Context, actor model.Actor, q ListTransfersQuery) ([]model.StockTransfer, int64, error)
}

type transferService struct {
	transferRepo repository.TransferRepository
	shopRepo     repository.ShopRepository
	productRepo  repository.ProductRepository
	stockRepo    repository.StockRepository
	txManager    repository.TransactionManager
	notifier     Notifier
}

func NewTransferService(
	transferRepo repository.TransferRepository,
	shopRepo repository.ShopRepository,
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) TransferService {
	return &transferService{
		transferRepo: transferRepo,
		shopRepo:     shopRepo,
		productRepo:  productRepo,
		stockRepo:    stockRepo,
		txManager:    txManager,
		notifier:     notifier,
	}
}

// validateTransferScope enforces that shop-bound actors only move stock out
// of their own shop.
func validateTransferScope(actor model.Actor, fromShopID, toShopID uuid.UUID) error {
	if actor.IsGlobal() {
		return nil
	}
	if actor.ShopID == nil {
		return apperror.Scope("account is not assigned to any shop")
	}
	assigned := *actor.ShopID
	if fromShopID != assigned && toShopID != assigned {
		return apperror.Scope("access to another shop's data is not allowed")
	}
	if fromShopID != assigned {
		return apperror.Scope("transfers must originate from your shop")
	}
	return nil
}

// Transfer moves quantity from one shop to another. The destination gets a
// mirrored product row (same SKU) if it has none, and the moved units blend
// into its weighted averages at the source's prices.
func (s *transferService) Transfer(ctx context.Context, actor model.Actor, req TransferStockRequest) (*model.StockTransfer, error) {
	if err := validateTransferScope(actor, req.FromShopID, req.ToShopID); err != nil {
		return nil, err
	}

	var transfer *model.StockTransfer
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		productID, buy, sell, err := s.applyTransferImpact(txCtx, req)
		if err != nil {
			return err
		}

		transfer = &model.StockTransfer{
			ProductID:           productID,
			FromShopID:          req.FromShopID,
			ToShopID:            req.ToShopID,
			TransferredByUserID: &actor.UserID,
			Quantity:            req.Quantity,
			UnitBuyingPrice:     buy,
			UnitSellingPrice:    sell,
			Note:                req.Note,
			TransferredAt:       time.Now().UTC(),
		}
		if err := s.transferRepo.Create(txCtx, transfer); err != nil {
			return fmt.Errorf("failed to create transfer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyBothShops(ctx, EventStockTransferred, transfer)
	return transfer, nil
}

// Edit reverses the recorded transfer and applies the new parameters as one
// atomic step. A request that changes nothing returns the row untouched.
func (s *transferService) Edit(ctx context.Context, actor model.Actor, id uuid.UUID, req EditTransferRequest) (*model.StockTransfer, error) {
	var transfer *model.StockTransfer
	var changed bool
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		transfer, err = s.transferRepo.FindByID(txCtx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.NotFound("transfer not found")
			}
			return fmt.Errorf("failed to load transfer: %w", err)
		}

		next := TransferStockRequest{
			ProductID:  transfer.ProductID,
			FromShopID: transfer.FromShopID,
			ToShopID:   transfer.ToShopID,
			Quantity:   transfer.Quantity,
			Note:       transfer.Note,
		}
		if req.ProductID != nil {
			next.ProductID = *req.ProductID
		}
		if req.FromShopID != nil {
			next.FromShopID = *req.FromShopID
		}
		if req.ToShopID != nil {
			next.ToShopID = *req.ToShopID
		}
		if req.Quantity != nil {
			next.Quantity = *req.Quantity
		}
		if req.Note != nil {
			next.Note = *req.Note
		}

		if err := validateTransferScope(actor, next.FromShopID, next.ToShopID); err != nil {
			return err
		}

		if next == (TransferStockRequest{
			ProductID:  transfer.ProductID,
			FromShopID: transfer.FromShopID,
			ToShopID:   transfer.ToShopID,
			Quantity:   transfer.Quantity,
			Note:       transfer.Note,
		}) {
			return nil
		}
		changed = true

		if err := s.reverseTransferImpact(txCtx, transfer); err != nil {
			return err
		}
		productID, buy, sell, err := s.applyTransferImpact(txCtx, next)
		if err != nil {
			return err
		}

		transfer.ProductID = productID
		transfer.FromShopID = next.FromShopID
		transfer.ToShopID = next.ToShopID
		transfer.Quantity = next.Quantity
		transfer.UnitBuyingPrice = buy
		transfer.UnitSellingPrice = sell
		transfer.Note = next.Note
		transfer.TransferredByUserID = &actor.UserID

		if err := s.transferRepo.Update(txCtx, transfer); err != nil {
			return fmt.Errorf("failed to update transfer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.notifyBothShops(ctx, EventTransferEdited, transfer)
	}
	return transfer, nil
}

// Delete reverses the transfer's stock impact and removes the ledger row.
func (s *transferService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	var transfer *model.StockTransfer
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		transfer, err = s.transferRepo.FindByID(txCtx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.NotFound("transfer not found")
			}
			return fmt.Errorf("failed to load transfer: %w", err)
		}

		if err := validateTransferScope(actor, transfer.FromShopID, transfer.ToShopID); err != nil {
			return err
		}
		if err := s.reverseTransferImpact(txCtx, transfer); err != nil {
			return err
		}
		if err := s.transferRepo.Delete(txCtx, transfer.ID); err != nil {
			return fmt.Errorf("failed to delete transfer: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifyBothShops(ctx, EventTransferDeleted, transfer)
	return nil
}

func (s *transferService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.StockTransfer, error) {
	transfer, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("transfer not found")
		}
		return nil, fmt.Errorf("failed to load transfer: %w", err)
	}
	if !actor.IsGlobal() {
		if actor.ShopID == nil || (*actor.ShopID != transfer.FromShopID && *actor.ShopID != transfer.ToShopID) {
			return nil, apperror.Scope("access to another shop's data is not allowed")
		}
	}
	return transfer, nil
}

func (s *transferService) List(ctx context.Context, actor model.Actor, q ListTransfersQuery) ([]model.StockTransfer, int64, error) {
	shopID, err := resolveShopID(actor, q.ShopID)
	if err != nil {
		return nil, 0, err
	}
	filter := repository.TransferFilter{ProductID: q.ProductID, From: q.From, To: q.To}
	return s.transferRepo.List(ctx, shopID, filter, q.Page, q.Limit)
}

// stockKey orders (shop, product) pairs so that two-row locks are always
// taken in the same sequence regardless of transfer direction.
func stockKey(shopID, productID uuid.UUID) string {
	return shopID.String() + "/" + productID.String()
}

// applyTransferImpact validates the transfer and moves the units, returning
// the source product id and the unit prices the moved stock carried.
func (s *transferService) applyTransferImpact(ctx context.Context, req TransferStockRequest) (uuid.UUID, decimal.Decimal, decimal.Decimal, error) {
	var zero decimal.Decimal
	if req.FromShopID == req.ToShopID {
		return uuid.Nil, zero, zero, apperror.Validation("source and destination shops must differ")
	}

	fromShop, err := s.shopRepo.FindByID(ctx, req.FromShopID)
	if err != nil {
		if repository.IsNotFound(err) {
			return uuid.Nil, zero, zero, apperror.NotFound("source or destination shop not found")
		}
		return uuid.Nil, zero, zero, fmt.Errorf("failed to load shop: %w", err)
	}
	toShop, err := s.shopRepo.FindByID(ctx, req.ToShopID)
	if err != nil {
		if repository.IsNotFound(err) {
			return uuid.Nil, zero, zero, apperror.NotFound("source or destination shop not found")
		}
		return uuid.Nil, zero, zero, fmt.Errorf("failed to load shop: %w", err)
	}
	if !fromShop.IsActive || !toShop.IsActive {
		return uuid.Nil, zero, zero, apperror.Validation("cannot transfer stock involving an inactive shop")
	}

	sourceProduct, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		if repository.IsNotFound(err) {
			return uuid.Nil, zero, zero, apperror.NotFound("product not found")
		}
		return uuid.Nil, zero, zero, fmt.Errorf("failed to load product: %w", err)
	}
	if !sourceProduct.IsActive {
		return uuid.Nil, zero, zero, apperror.Validation("cannot transfer an inactive product")
	}
	if sourceProduct.ShopID != req.FromShopID {
		return uuid.Nil, zero, zero, apperror.Validation("product does not belong to the source shop")
	}

	targetProduct, err := s.productRepo.FindByShopAndSKU(ctx, req.ToShopID, sourceProduct.SKU)
	if err != nil {
		if !repository.IsNotFound(err) {
			return uuid.Nil, zero, zero, fmt.Errorf("failed to load destination product: %w", err)
		}
		targetProduct = &model.Product{
			ShopID:      req.ToShopID,
			SKU:         sourceProduct.SKU,
			Name:        sourceProduct.Name,
			Unit:        sourceProduct.Unit,
			Description: sourceProduct.Description,
			IsActive:    true,
		}
		if err := s.productRepo.Create(ctx, targetProduct); err != nil {
			if repository.IsUniqueViolation(err) {
				return uuid.Nil, zero, zero, apperror.Conflict("destination product was created concurrently, retry the operation")
			}
			return uuid.Nil, zero, zero, fmt.Errorf("failed to mirror product: %w", err)
		}
	}

	sourceStock, targetStock, err := s.lockStockPair(ctx,
		req.FromShopID, sourceProduct.ID,
		req.ToShopID, targetProduct.ID,
	)
	if err != nil {
		return uuid.Nil, zero, zero, err
	}
	if sourceStock == nil {
		return uuid.Nil, zero, zero, apperror.NotFound("source stock record not found")
	}

	buy := sourceStock.BuyingPrice
	sell := sourceStock.SellingPrice

	snap, err := costing.Deduct(snapshotOf(sourceStock), req.Quantity)
	if err != nil {
		return uuid.Nil, zero, zero, apperror.Validation("insufficient source stock quantity")
	}
	applySnapshot(sourceStock, snap)
	if err := s.stockRepo.Update(ctx, sourceStock); err != nil {
		return uuid.Nil, zero, zero, fmt.Errorf("failed to update source stock: %w", err)
	}

	if targetStock == nil {
		targetStock = &model.Stock{
			ShopID:         req.ToShopID,
			ProductID:      targetProduct.ID,
			QuantityOnHand: req.Quantity,
			BuyingPrice:    buy,
			SellingPrice:   sell,
		}
		if err := s.stockRepo.Create(ctx, targetStock); err != nil {
			if repository.IsUniqueViolation(err) {
				return uuid.Nil, zero, zero, apperror.Conflict("destination stock was created concurrently, retry the operation")
			}
			return uuid.Nil, zero, zero, fmt.Errorf("failed to create destination stock: %w", err)
		}
	} else {
		applySnapshot(targetStock, costing.ApplyPurchase(snapshotOf(targetStock), req.Quantity, buy, sell))
		if err := s.stockRepo.Update(ctx, targetStock); err != nil {
			return uuid.Nil, zero, zero, fmt.Errorf("failed to update destination stock: %w", err)
		}
	}

	return sourceProduct.ID, buy, sell, nil
}

// reverseTransferImpact undoes a recorded transfer: the source gets its units
// back at unchanged prices and the destination's blend is inverted. It fails
// with Conflict when the destination no longer holds the moved units.
func (s *transferService) reverseTransferImpact(ctx context.Context, transfer *model.StockTransfer) error {
	sourceProduct, err := s.productRepo.FindByID(ctx, transfer.ProductID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperror.Conflict("transfer product no longer exists")
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	targetProduct, err := s.productRepo.FindByShopAndSKU(ctx, transfer.ToShopID, sourceProduct.SKU)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperror.Conflict("destination product for transfer not found")
		}
		return fmt.Errorf("failed to load destination product: %w", err)
	}

	sourceStock, targetStock, err := s.lockStockPair(ctx,
		transfer.FromShopID, sourceProduct.ID,
		transfer.ToShopID, targetProduct.ID,
	)
	if err != nil {
		return err
	}
	if sourceStock == nil {
		return apperror.Conflict("source stock record missing for transfer")
	}
	if targetStock == nil {
		return apperror.Conflict("destination stock record missing for transfer")
	}
	if targetStock.QuantityOnHand < transfer.Quantity {
		return apperror.Conflict("cannot modify transfer because destination stock has already been consumed")
	}

	applySnapshot(sourceStock, costing.Restock(snapshotOf(sourceStock), transfer.Quantity))
	if err := s.stockRepo.Update(ctx, sourceStock); err != nil {
		return fmt.Errorf("failed to update source stock: %w", err)
	}

	snap, err := costing.RemovePurchase(snapshotOf(targetStock), transfer.Quantity, transfer.UnitBuyingPrice, transfer.UnitSellingPrice)
	if err != nil {
		return err
	}
	applySnapshot(targetStock, snap)
	if err := s.stockRepo.Update(ctx, targetStock); err != nil {
		return fmt.Errorf("failed to update destination stock: %w", err)
	}
	return nil
}

// lockStockPair locks both stock rows in ascending key order so two opposing
// transfers cannot deadlock. Missing rows come back nil.
func (s *transferService) lockStockPair(ctx context.Context, shopA, productA, shopB, productB uuid.UUID) (*model.Stock, *model.Stock, error) {
	lock := func(shopID, productID uuid.UUID) (*model.Stock, error) {
		stock, err := s.stockRepo.FindByShopAndProductForUpdate(ctx, shopID, productID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to lock stock: %w", err)
		}
		return stock, nil
	}

	var first, second *model.Stock
	var err error
	if stockKey(shopA, productA) <= stockKey(shopB, productB) {
		if first, err = lock(shopA, productA); err != nil {
			return nil, nil, err
		}
		if second, err = lock(shopB, productB); err != nil {
			return nil, nil, err
		}
		return first, second, nil
	}
	if second, err = lock(shopB, productB); err != nil {
		return nil, nil, err
	}
	if first, err = lock(shopA, productA); err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

func (s *transferService) notifyBothShops(ctx context.Context, event string, transfer *model.StockTransfer) {
	data := map[string]interface{}{
		"transfer_id":  transfer.ID.String(),
		"from_shop_id": transfer.FromShopID.String(),
		"to_shop_id":   transfer.ToShopID.String(),
		"quantity":     transfer.Quantity,
	}
	s.notifier.StockChanged(ctx, shopEvent(event, transfer.FromShopID, transfer.ProductID, data))
	s.notifier.StockChanged(ctx, shopEvent(event, transfer.ToShopID, transfer.ProductID, data))
}
