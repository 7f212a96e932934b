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

type RecordSaleRequest struct {
	ShopID    *uuid.UUID `json:"shop_id"`
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	Quantity  int        `json:"quantity" binding:"required,gt=0"`
	// UnitSellingPrice overrides the stock's current selling price for this
	// sale only; the stored average is not touched.
	UnitSellingPrice *decimal.Decimal `json:"unit_selling_price"`
	SoldAt           *time.Time       `json:"sold_at"`
}

type RecordReturnRequest struct {
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Restock  *bool  `json:"restock"`
	Note     string `json:"note" binding:"max=255"`
}

type ListSalesQuery struct {
	ShopID    *uuid.UUID
	ProductID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

type SaleService interface {
	Record(ctx context.Context, actor model.Actor, req RecordSaleRequest) (*model.Sale, error)
	Return(ctx context.Context, actor model.Actor, saleID uuid.UUID, req RecordReturnRequest) (*model.SaleReturn, error)
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, actor model.Actor, q ListSalesQuery) ([]model.Sale, int64, error)
	ListReturns(ctx context.Context, actor model.Actor, shopID *uuid.UUID, page, limit int) ([]model.SaleReturn, int64, error)
	ListReturnsBySale(ctx context.Context, actor model.Actor, saleID uuid.UUID) ([]model.SaleReturn, error)
	ExportCSV(ctx context.Context, actor model.Actor, q ListSalesQuery) ([]byte, error)
}

type saleService struct {
	saleRepo    repository.SaleRepository
	returnRepo  repository.SaleReturnRepository
	productRepo repository.ProductRepository
	shopRepo    repository.ShopRepository
	stockRepo   repository.StockRepository
	txManager   repository.TransactionManager
	notifier    Notifier
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	returnRepo repository.SaleReturnRepository,
	productRepo repository.ProductRepository,
	shopRepo repository.ShopRepository,
	stockRepo repository.StockRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) SaleService {
	return &saleService{
		saleRepo:    saleRepo,
		returnRepo:  returnRepo,
		productRepo: productRepo,
		shopRepo:    shopRepo,
		stockRepo:   stockRepo,
		txManager:   txManager,
		notifier:    notifier,
	}
}

// Record sells quantity units at the stock's current prices, or at a
// caller-supplied selling price. The sale row snapshots the prices it used so
// later stock changes never rewrite history. Selling never changes stock
// prices, only the quantity.
func (s *saleService) Record(ctx context.Context, actor model.Actor, req RecordSaleRequest) (*model.Sale, error) {
	shopID, err := resolveShopID(actor, req.ShopID)
	if err != nil {
		return nil, err
	}
	if req.UnitSellingPrice != nil && req.UnitSellingPrice.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.Validation("unit_selling_price must be positive")
	}

	shop, err := s.shopRepo.FindByID(ctx, shopID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("shop not found")
		}
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}
	if !shop.IsActive {
		return nil, apperror.Validation("cannot record a sale for an inactive shop")
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
		return nil, apperror.Validation("cannot sell an inactive product")
	}

	soldAt := time.Now().UTC()
	if req.SoldAt != nil {
		soldAt = *req.SoldAt
	}

	var sale *model.Sale
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		stock, err := s.stockRepo.FindByShopAndProductForUpdate(txCtx, shopID, product.ID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.Validation("insufficient stock quantity")
			}
			return fmt.Errorf("failed to lock stock: %w", err)
		}

		snap, err := costing.Deduct(snapshotOf(stock), req.Quantity)
		if err != nil {
			return err
		}

		unitSelling := stock.SellingPrice
		if req.UnitSellingPrice != nil {
			unitSelling = req.UnitSellingPrice.RoundBank(2)
		}

		qty := decimal.NewFromInt(int64(req.Quantity))
		revenue := unitSelling.Mul(qty).RoundBank(2)
		cost := stock.BuyingPrice.Mul(qty).RoundBank(2)

		sale = &model.Sale{
			ShopID:           shopID,
			ProductID:        product.ID,
			SoldByUserID:     &actor.UserID,
			Quantity:         req.Quantity,
			UnitBuyingPrice:  stock.BuyingPrice,
			UnitSellingPrice: unitSelling,
			Revenue:          revenue,
			Cost:             cost,
			Profit:           revenue.Sub(cost),
			SoldAt:           soldAt,
		}

		applySnapshot(stock, snap)
		if err := s.stockRepo.Update(txCtx, stock); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
		if err := s.saleRepo.Create(txCtx, sale); err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.StockChanged(ctx, shopEvent(EventSaleRecorded, shopID, product.ID, map[string]interface{}{
		"sale_id":  sale.ID.String(),
		"quantity": sale.Quantity,
	}))
	return sale, nil
}

// Return reverses part of a sale. The sale row is locked so concurrent
// returns serialize on the bound check; refund figures come from the sale's
// own price snapshots. Restocking adds quantity back without touching the
// stock's current prices.
func (s *saleService) Return(ctx context.Context, actor model.Actor, saleID uuid.UUID, req RecordReturnRequest) (*model.SaleReturn, error) {
	restock := true
	if req.Restock != nil {
		restock = *req.Restock
	}

	var ret *model.SaleReturn
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, err := s.saleRepo.FindByIDForUpdate(txCtx, saleID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.NotFound("sale not found")
			}
			return fmt.Errorf("failed to lock sale: %w", err)
		}
		if err := ensureShopScope(actor, sale.ShopID); err != nil {
			return err
		}

		shop, err := s.shopRepo.FindByID(txCtx, sale.ShopID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.NotFound("shop not found")
			}
			return fmt.Errorf("failed to load shop: %w", err)
		}
		if !shop.IsActive {
			return apperror.Validation("cannot return a sale for an inactive shop")
		}

		returned, err := s.returnRepo.SumReturnedQuantity(txCtx, sale.ID)
		if err != nil {
			return fmt.Errorf("failed to sum returns: %w", err)
		}
		remaining := sale.Quantity - returned
		if req.Quantity > remaining {
			return apperror.Conflictf("return quantity exceeds remaining sale quantity (%d)", remaining)
		}

		qty := decimal.NewFromInt(int64(req.Quantity))
		refund := sale.UnitSellingPrice.Mul(qty).RoundBank(2)
		costReversed := sale.UnitBuyingPrice.Mul(qty).RoundBank(2)

		ret = &model.SaleReturn{
			SaleID:            sale.ID,
			ShopID:            sale.ShopID,
			ProductID:         sale.ProductID,
			ProcessedByUserID: &actor.UserID,
			Quantity:          req.Quantity,
			UnitBuyingPrice:   sale.UnitBuyingPrice,
			UnitSellingPrice:  sale.UnitSellingPrice,
			RefundAmount:      refund,
			CostReversed:      costReversed,
			ProfitReversed:    refund.Sub(costReversed),
			Restocked:         restock,
			Note:              req.Note,
			ReturnedAt:        time.Now().UTC(),
		}

		if restock {
			if err := s.restockFromSale(txCtx, sale, req.Quantity); err != nil {
				return err
			}
		}

		if err := s.returnRepo.Create(txCtx, ret); err != nil {
			return fmt.Errorf("failed to create sale return: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.StockChanged(ctx, shopEvent(EventSaleReturned, ret.ShopID, ret.ProductID, map[string]interface{}{
		"sale_id":   ret.SaleID.String(),
		"return_id": ret.ID.String(),
		"quantity":  ret.Quantity,
		"restocked": ret.Restocked,
	}))
	return ret, nil
}

// restockFromSale adds the returned units back to the shop's stock. When the
// stock row has since been deleted it is recreated seeded with the sale's
// price snapshots, so the returned units keep their original cost basis.
func (s *saleService) restockFromSale(ctx context.Context, sale *model.Sale, quantity int) error {
	stock, err := s.stockRepo.FindByShopAndProductForUpdate(ctx, sale.ShopID, sale.ProductID)
	if err != nil {
		if !repository.IsNotFound(err) {
			return fmt.Errorf("failed to lock stock: %w", err)
		}
		fresh := &model.Stock{
			ShopID:         sale.ShopID,
			ProductID:      sale.ProductID,
			QuantityOnHand: quantity,
			BuyingPrice:    sale.UnitBuyingPrice,
			SellingPrice:   sale.UnitSellingPrice,
		}
		if err := s.stockRepo.Create(ctx, fresh); err != nil {
			if repository.IsUniqueViolation(err) {
				return apperror.Conflict("stock row was created concurrently, retry the operation")
			}
			return fmt.Errorf("failed to recreate stock row: %w", err)
		}
		return nil
	}

	applySnapshot(stock, costing.Restock(snapshotOf(stock), quantity))
	if err := s.stockRepo.Update(ctx, stock); err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	return nil
}

func (s *saleService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("sale not found")
		}
		return nil, fmt.Errorf("failed to load sale: %w", err)
	}
	if err := ensureShopScope(actor, sale.ShopID); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *saleService) List(ctx context.Context, actor model.Actor, q ListSalesQuery) ([]model.Sale, int64, error) {
	shopID, err := resolveShopID(actor, q.ShopID)
	if err != nil {
		return nil, 0, err
	}
	filter := repository.SaleFilter{ProductID: q.ProductID, From: q.From, To: q.To}
	return s.saleRepo.List(ctx, shopID, filter, q.Page, q.Limit)
}

func (s *saleService) ListReturns(ctx context.Context, actor model.Actor, shopID *uuid.UUID, page, limit int) ([]model.SaleReturn, int64, error) {
	resolved, err := resolveShopID(actor, shopID)
	if err != nil {
		return nil, 0, err
	}
	return s.returnRepo.List(ctx, resolved, page, limit)
}

func (s *saleService) ListReturnsBySale(ctx context.Context, actor model.Actor, saleID uuid.UUID) ([]model.SaleReturn, error) {
	if _, err := s.Get(ctx, actor, saleID); err != nil {
		return nil, err
	}
	return s.returnRepo.ListBySale(ctx, saleID)
}

func (s *saleService) ExportCSV(ctx context.Context, actor model.Actor, q ListSalesQuery) ([]byte, error) {
	shopID, err := resolveShopID(actor, q.ShopID)
	if err != nil {
		return nil, err
	}
	filter := repository.SaleFilter{ProductID: q.ProductID, From: q.From, To: q.To}
	sales, err := s.saleRepo.ListAll(ctx, shopID, filter)
	if err != nil {
		return nil, err
	}

	header := []string{"sold_at", "product_sku", "product_name", "quantity", "unit_selling_price", "revenue", "cost", "profit"}
	rows := make([][]string, 0, len(sales))
	for _, sale := range sales {
		rows = append(rows, []string{
			sale.SoldAt.Format(time.RFC3339),
			sale.Product.SKU,
			sale.Product.Name,
			fmt.Sprintf("%d", sale.Quantity),
			sale.UnitSellingPrice.StringFixed(2),
			sale.Revenue.StringFixed(2),
			sale.Cost.StringFixed(2),
			sale.Profit.StringFixed(2),
		})
	}
	return buildCSV(header, rows)
}
