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

type RecordPurchaseRequest struct {
	ShopID           *uuid.UUID      `json:"shop_id"`
	ProductID        uuid.UUID       `json:"product_id" binding:"required"`
	SupplierID       *uuid.UUID      `json:"supplier_id"`
	InvoiceNumber    *string         `json:"invoice_number"`
	Quantity         int             `json:"quantity" binding:"required,gt=0"`
	UnitBuyingPrice  decimal.Decimal `json:"unit_buying_price" binding:"required"`
	UnitSellingPrice decimal.Decimal `json:"unit_selling_price" binding:"required"`
	Note             string          `json:"note" binding:"max=255"`
	PurchasedAt      *time.Time      `json:"purchased_at"`
}

type EditPurchaseRequest struct {
	SupplierID       *uuid.UUID      `json:"supplier_id"`
	InvoiceNumber    *string         `json:"invoice_number"`
	Quantity         int             `json:"quantity" binding:"required,gt=0"`
	UnitBuyingPrice  decimal.Decimal `json:"unit_buying_price" binding:"required"`
	UnitSellingPrice decimal.Decimal `json:"unit_selling_price" binding:"required"`
	Note             string          `json:"note" binding:"max=255"`
	PurchasedAt      *time.Time      `json:"purchased_at"`
}

type ListPurchasesQuery struct {
	ShopID     *uuid.UUID
	ProductID  *uuid.UUID
	SupplierID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

type PurchaseService interface {
	Record(ctx context.Context, actor model.Actor, req RecordPurchaseRequest) (*model.Purchase, error)
	Edit(ctx context.Context, actor model.Actor, id uuid.UUID, req EditPurchaseRequest) (*model.Purchase, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Purchase, error)
	List(ctx context.Context, actor model.Actor, q ListPurchasesQuery) ([]model.Purchase, int64, error)
	ExportCSV(ctx context.Context, actor model.Actor, q ListPurchasesQuery) ([]byte, error)
	ExportPDF(ctx context.Context, actor model.Actor, q ListPurchasesQuery) ([]byte, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	shopRepo     repository.ShopRepository
	stockRepo    repository.StockRepository
	txManager    repository.TransactionManager
	notifier     Notifier
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
	shopRepo repository.ShopRepository,
	stockRepo repository.StockRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) PurchaseService {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		shopRepo:     shopRepo,
		stockRepo:    stockRepo,
		txManager:    txManager,
		notifier:     notifier,
	}
}

func validatePurchasePrices(buy, sell decimal.Decimal) error {
	if buy.LessThanOrEqual(decimal.Zero) {
		return apperror.Validation("unit_buying_price must be positive")
	}
	if sell.LessThanOrEqual(decimal.Zero) {
		return apperror.Validation("unit_selling_price must be positive")
	}
	return nil
}

// Record books a purchase and folds its quantity and prices into the shop's
// stock under a row lock. The stock row is created on first purchase.
func (s *purchaseService) Record(ctx context.Context, actor model.Actor, req RecordPurchaseRequest) (*model.Purchase, error) {
	shopID, err := resolveShopID(actor, req.ShopID)
	if err != nil {
		return nil, err
	}
	if err := validatePurchasePrices(req.UnitBuyingPrice, req.UnitSellingPrice); err != nil {
		return nil, err
	}

	shop, err := s.shopRepo.FindByID(ctx, shopID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("shop not found")
		}
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}
	if !shop.IsActive {
		return nil, apperror.Validation("cannot record a purchase for an inactive shop")
	}

	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product.ShopID != shopID {
		return nil, apperror.Validation("product does not belong to the given shop")
	}
	if !product.IsActive {
		return nil, apperror.Validation("cannot purchase an inactive product")
	}

	if req.SupplierID != nil {
		if err := s.checkSupplier(ctx, *req.SupplierID, shopID); err != nil {
			return nil, err
		}
	}

	purchasedAt := time.Now().UTC()
	if req.PurchasedAt != nil {
		purchasedAt = *req.PurchasedAt
	}

	purchase := &model.Purchase{
		ShopID:            shopID,
		ProductID:         product.ID,
		SupplierID:        req.SupplierID,
		InvoiceNumber:     req.InvoiceNumber,
		PurchasedByUserID: &actor.UserID,
		Unit:              product.Unit,
		Quantity:          req.Quantity,
		UnitBuyingPrice:   req.UnitBuyingPrice,
		UnitSellingPrice:  req.UnitSellingPrice,
		TotalCost:         req.UnitBuyingPrice.Mul(decimal.NewFromInt(int64(req.Quantity))).RoundBank(2),
		Note:              req.Note,
		PurchasedAt:       purchasedAt,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		stock, err := s.lockOrCreateStock(txCtx, shopID, product.ID)
		if err != nil {
			return err
		}

		snap := costing.ApplyPurchase(snapshotOf(stock), req.Quantity, req.UnitBuyingPrice, req.UnitSellingPrice)
		applySnapshot(stock, snap)
		if err := s.stockRepo.Update(txCtx, stock); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		if err := s.purchaseRepo.Create(txCtx, purchase); err != nil {
			if repository.IsUniqueViolation(err) {
				return apperror.Conflictf("invoice number %q already exists in this shop", derefString(req.InvoiceNumber))
			}
			return fmt.Errorf("failed to create purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.StockChanged(ctx, shopEvent(EventPurchaseRecorded, shopID, product.ID, map[string]interface{}{
		"purchase_id": purchase.ID.String(),
		"quantity":    purchase.Quantity,
	}))
	return purchase, nil
}

// Edit replaces a purchase's quantity and prices. The old effect is removed
// from stock first and the new effect applied, both in one transaction, so
// the stock ends exactly as if the purchase had been recorded this way.
func (s *purchaseService) Edit(ctx context.Context, actor model.Actor, id uuid.UUID, req EditPurchaseRequest) (*model.Purchase, error) {
	if err := validatePurchasePrices(req.UnitBuyingPrice, req.UnitSellingPrice); err != nil {
		return nil, err
	}

	var purchase *model.Purchase
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		purchase, err = s.loadForMutation(txCtx, actor, id)
		if err != nil {
			return err
		}

		if req.SupplierID != nil {
			if err := s.checkSupplier(txCtx, *req.SupplierID, purchase.ShopID); err != nil {
				return err
			}
		}

		stock, err := s.stockRepo.FindByShopAndProductForUpdate(txCtx, purchase.ShopID, purchase.ProductID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.Conflict("cannot modify purchase because purchased stock has already been consumed")
			}
			return fmt.Errorf("failed to lock stock: %w", err)
		}

		snap, err := costing.RemovePurchase(snapshotOf(stock), purchase.Quantity, purchase.UnitBuyingPrice, purchase.UnitSellingPrice)
		if err != nil {
			return err
		}
		snap = costing.ApplyPurchase(snap, req.Quantity, req.UnitBuyingPrice, req.UnitSellingPrice)
		applySnapshot(stock, snap)
		if err := s.stockRepo.Update(txCtx, stock); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		purchase.SupplierID = req.SupplierID
		purchase.InvoiceNumber = req.InvoiceNumber
		purchase.Quantity = req.Quantity
		purchase.UnitBuyingPrice = req.UnitBuyingPrice
		purchase.UnitSellingPrice = req.UnitSellingPrice
		purchase.TotalCost = req.UnitBuyingPrice.Mul(decimal.NewFromInt(int64(req.Quantity))).RoundBank(2)
		purchase.Note = req.Note
		if req.PurchasedAt != nil {
			purchase.PurchasedAt = *req.PurchasedAt
		}

		if err := s.purchaseRepo.Update(txCtx, purchase); err != nil {
			if repository.IsUniqueViolation(err) {
				return apperror.Conflictf("invoice number %q already exists in this shop", derefString(req.InvoiceNumber))
			}
			return fmt.Errorf("failed to update purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.StockChanged(ctx, shopEvent(EventPurchaseEdited, purchase.ShopID, purchase.ProductID, map[string]interface{}{
		"purchase_id": purchase.ID.String(),
		"quantity":    purchase.Quantity,
	}))
	return purchase, nil
}

// Delete reverses the purchase's stock effect and removes the ledger row.
func (s *purchaseService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	var purchase *model.Purchase
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		purchase, err = s.loadForMutation(txCtx, actor, id)
		if err != nil {
			return err
		}

		stock, err := s.stockRepo.FindByShopAndProductForUpdate(txCtx, purchase.ShopID, purchase.ProductID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.Conflict("cannot modify purchase because purchased stock has already been consumed")
			}
			return fmt.Errorf("failed to lock stock: %w", err)
		}

		snap, err := costing.RemovePurchase(snapshotOf(stock), purchase.Quantity, purchase.UnitBuyingPrice, purchase.UnitSellingPrice)
		if err != nil {
			return err
		}
		applySnapshot(stock, snap)
		if err := s.stockRepo.Update(txCtx, stock); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		if err := s.purchaseRepo.Delete(txCtx, purchase.ID); err != nil {
			return fmt.Errorf("failed to delete purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.StockChanged(ctx, shopEvent(EventPurchaseDeleted, purchase.ShopID, purchase.ProductID, map[string]interface{}{
		"purchase_id": purchase.ID.String(),
	}))
	return nil
}

func (s *purchaseService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("purchase not found")
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	if err := ensureShopScope(actor, purchase.ShopID); err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *purchaseService) List(ctx context.Context, actor model.Actor, q ListPurchasesQuery) ([]model.Purchase, int64, error) {
	shopID, err := resolveShopID(actor, q.ShopID)
	if err != nil {
		return nil, 0, err
	}
	filter := repository.PurchaseFilter{
		ProductID:  q.ProductID,
		SupplierID: q.SupplierID,
		From:       q.From,
		To:         q.To,
	}
	return s.purchaseRepo.List(ctx, shopID, filter, q.Page, q.Limit)
}

func (s *purchaseService) ExportCSV(ctx context.Context, actor model.Actor, q ListPurchasesQuery) ([]byte, error) {
	purchases, err := s.listAll(ctx, actor, q)
	if err != nil {
		return nil, err
	}

	header := []string{"purchased_at", "product_sku", "product_name", "supplier", "invoice_number", "quantity", "unit_buying_price", "unit_selling_price", "total_cost", "note"}
	rows := make([][]string, 0, len(purchases))
	for _, p := range purchases {
		supplierName := ""
		if p.Supplier != nil {
			supplierName = p.Supplier.Name
		}
		rows = append(rows, []string{
			p.PurchasedAt.Format(time.RFC3339),
			p.Product.SKU,
			p.Product.Name,
			supplierName,
			derefString(p.InvoiceNumber),
			fmt.Sprintf("%d", p.Quantity),
			p.UnitBuyingPrice.StringFixed(2),
			p.UnitSellingPrice.StringFixed(2),
			p.TotalCost.StringFixed(2),
			p.Note,
		})
	}
	return buildCSV(header, rows)
}

func (s *purchaseService) ExportPDF(ctx context.Context, actor model.Actor, q ListPurchasesQuery) ([]byte, error) {
	purchases, err := s.listAll(ctx, actor, q)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(purchases))
	for _, p := range purchases {
		lines = append(lines, fmt.Sprintf("%s  %s x%d @ %s (total %s)",
			p.PurchasedAt.Format("2006-01-02"),
			p.Product.Name,
			p.Quantity,
			p.UnitBuyingPrice.StringFixed(2),
			p.TotalCost.StringFixed(2),
		))
	}
	return buildPDF("Purchases", lines)
}

func (s *purchaseService) listAll(ctx context.Context, actor model.Actor, q ListPurchasesQuery) ([]model.Purchase, error) {
	shopID, err := resolveShopID(actor, q.ShopID)
	if err != nil {
		return nil, err
	}
	filter := repository.PurchaseFilter{
		ProductID:  q.ProductID,
		SupplierID: q.SupplierID,
		From:       q.From,
		To:         q.To,
	}
	return s.purchaseRepo.ListAll(ctx, shopID, filter)
}

// loadForMutation fetches the purchase inside the transaction and verifies
// shop scope before any stock row is touched.
func (s *purchaseService) loadForMutation(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("purchase not found")
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	if err := ensureShopScope(actor, purchase.ShopID); err != nil {
		return nil, err
	}
	return purchase, nil
}

// checkSupplier verifies the supplier exists, belongs to the shop and has
// not been archived.
func (s *purchaseService) checkSupplier(ctx context.Context, supplierID, shopID uuid.UUID) error {
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperror.NotFound("supplier not found")
		}
		return fmt.Errorf("failed to load supplier: %w", err)
	}
	if supplier.ShopID != shopID {
		return apperror.Validation("supplier does not belong to the given shop")
	}
	if !supplier.IsActive {
		return apperror.Validation("supplier is inactive")
	}
	return nil
}

// lockOrCreateStock locks the (shop, product) stock row, creating a zeroed
// row first when none exists. The insert may race a concurrent first
// purchase; the unique index turns the loser into a retryable conflict.
func (s *purchaseService) lockOrCreateStock(ctx context.Context, shopID, productID uuid.UUID) (*model.Stock, error) {
	stock, err := s.stockRepo.FindByShopAndProductForUpdate(ctx, shopID, productID)
	if err == nil {
		return stock, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to lock stock: %w", err)
	}

	fresh := &model.Stock{
		ShopID:         shopID,
		ProductID:      productID,
		QuantityOnHand: 0,
		BuyingPrice:    decimal.Zero,
		SellingPrice:   decimal.Zero,
	}
	if err := s.stockRepo.Create(ctx, fresh); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperror.Conflict("stock row was created concurrently, retry the operation")
		}
		return nil, fmt.Errorf("failed to create stock row: %w", err)
	}
	return s.stockRepo.FindByShopAndProductForUpdate(ctx, shopID, productID)
}

func snapshotOf(stock *model.Stock) costing.Snapshot {
	return costing.Snapshot{
		Quantity:     stock.QuantityOnHand,
		BuyingPrice:  stock.BuyingPrice,
		SellingPrice: stock.SellingPrice,
	}
}

func applySnapshot(stock *model.Stock, snap costing.Snapshot) {
	stock.QuantityOnHand = snap.Quantity
	stock.BuyingPrice = snap.BuyingPrice
	stock.SellingPrice = snap.SellingPrice
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
