package repository

import (
	"context"
	"sort"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockAggregates summarizes a shop's stock holdings at cost and at retail.
type StockAggregates struct {
	Units       int64
	StockValue  decimal.Decimal
	RetailValue decimal.Decimal
}

type ReportRepository interface {
	SaleTotals(ctx context.Context, shopID uuid.UUID, from, to time.Time) (model.SaleTotals, error)
	ReturnTotals(ctx context.Context, shopID uuid.UUID, from, to time.Time) (model.ReturnTotals, error)
	ProductProfits(ctx context.Context, shopID uuid.UUID, from, to time.Time, limit int) ([]model.ProductProfit, error)
	LowStock(ctx context.Context, shopID uuid.UUID, threshold, limit int) ([]model.Stock, error)
	CountLowStock(ctx context.Context, shopID uuid.UUID, threshold int) (int64, error)
	CountProducts(ctx context.Context, shopID uuid.UUID) (int64, error)
	CountSuppliers(ctx context.Context, shopID uuid.UUID) (int64, error)
	StockAggregates(ctx context.Context, shopID uuid.UUID) (StockAggregates, error)
	NetSoldQuantities(ctx context.Context, shopID uuid.UUID, since time.Time) (map[uuid.UUID]int, error)
	AllStocks(ctx context.Context, shopID uuid.UUID) ([]model.Stock, error)
	AuditTimeline(ctx context.Context, shopID, productID uuid.UUID, from, to time.Time, limit int) ([]model.AuditEvent, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) SaleTotals(ctx context.Context, shopID uuid.UUID, from, to time.Time) (model.SaleTotals, error) {
	var totals model.SaleTotals
	err := GetDB(ctx, r.db).Model(&model.Sale{}).
		Where("shop_id = ? AND sold_at >= ? AND sold_at <= ?", shopID, from, to).
		Select("COALESCE(SUM(revenue), 0) as revenue, COALESCE(SUM(cost), 0) as cost, COALESCE(SUM(profit), 0) as profit, COUNT(*) as count").
		Scan(&totals).Error
	return totals, err
}

func (r *reportRepository) ReturnTotals(ctx context.Context, shopID uuid.UUID, from, to time.Time) (model.ReturnTotals, error) {
	var totals model.ReturnTotals
	err := GetDB(ctx, r.db).Model(&model.SaleReturn{}).
		Where("shop_id = ? AND returned_at >= ? AND returned_at <= ?", shopID, from, to).
		Select("COALESCE(SUM(refund_amount), 0) as refund_amount, COALESCE(SUM(cost_reversed), 0) as cost_reversed, COALESCE(SUM(profit_reversed), 0) as profit_reversed, COUNT(*) as count").
		Scan(&totals).Error
	return totals, err
}

// ProductProfits returns per-product sale totals net of returns, ordered by
// profit descending.
func (r *reportRepository) ProductProfits(ctx context.Context, shopID uuid.UUID, from, to time.Time, limit int) ([]model.ProductProfit, error) {
	var sold []model.ProductProfit
	if err := GetDB(ctx, r.db).Table("sales").
		Select("products.id as product_id, products.name as product_name, products.sku as product_sku, SUM(sales.quantity) as quantity_sold, SUM(sales.revenue) as revenue, SUM(sales.cost) as cost, SUM(sales.profit) as profit").
		Joins("JOIN products ON products.id = sales.product_id").
		Where("sales.shop_id = ? AND sales.sold_at >= ? AND sales.sold_at <= ?", shopID, from, to).
		Group("products.id, products.name, products.sku").
		Scan(&sold).Error; err != nil {
		return nil, err
	}

	var returned []struct {
		ProductID      uuid.UUID
		Quantity       int
		RefundAmount   decimal.Decimal
		CostReversed   decimal.Decimal
		ProfitReversed decimal.Decimal
	}
	if err := GetDB(ctx, r.db).Table("sale_returns").
		Select("product_id, SUM(quantity) as quantity, SUM(refund_amount) as refund_amount, SUM(cost_reversed) as cost_reversed, SUM(profit_reversed) as profit_reversed").
		Where("shop_id = ? AND returned_at >= ? AND returned_at <= ?", shopID, from, to).
		Group("product_id").
		Scan(&returned).Error; err != nil {
		return nil, err
	}

	reversals := make(map[uuid.UUID]int, len(returned))
	for i, rt := range returned {
		reversals[rt.ProductID] = i
	}
	for i := range sold {
		if j, ok := reversals[sold[i].ProductID]; ok {
			sold[i].QuantitySold -= returned[j].Quantity
			sold[i].Revenue = sold[i].Revenue.Sub(returned[j].RefundAmount)
			sold[i].Cost = sold[i].Cost.Sub(returned[j].CostReversed)
			sold[i].Profit = sold[i].Profit.Sub(returned[j].ProfitReversed)
		}
	}

	sort.Slice(sold, func(i, j int) bool {
		return sold[i].Profit.GreaterThan(sold[j].Profit)
	})
	if limit > 0 && len(sold) > limit {
		sold = sold[:limit]
	}
	return sold, nil
}

func (r *reportRepository) LowStock(ctx context.Context, shopID uuid.UUID, threshold, limit int) ([]model.Stock, error) {
	var stocks []model.Stock
	if err := GetDB(ctx, r.db).Preload("Product").
		Where("shop_id = ? AND quantity_on_hand <= ?", shopID, threshold).
		Order("quantity_on_hand asc").Limit(limit).
		Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

func (r *reportRepository) CountLowStock(ctx context.Context, shopID uuid.UUID, threshold int) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Stock{}).
		Where("shop_id = ? AND quantity_on_hand <= ?", shopID, threshold).
		Count(&count).Error
	return count, err
}

func (r *reportRepository) CountProducts(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Product{}).
		Where("shop_id = ? AND is_active = ?", shopID, true).
		Count(&count).Error
	return count, err
}

func (r *reportRepository) CountSuppliers(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Supplier{}).
		Where("shop_id = ? AND is_active = ?", shopID, true).
		Count(&count).Error
	return count, err
}

func (r *reportRepository) StockAggregates(ctx context.Context, shopID uuid.UUID) (StockAggregates, error) {
	var agg StockAggregates
	err := GetDB(ctx, r.db).Model(&model.Stock{}).
		Where("shop_id = ?", shopID).
		Select("COALESCE(SUM(quantity_on_hand), 0) as units, COALESCE(SUM(quantity_on_hand * buying_price), 0) as stock_value, COALESCE(SUM(quantity_on_hand * selling_price), 0) as retail_value").
		Scan(&agg).Error
	return agg, err
}

// NetSoldQuantities returns per-product sold quantity minus returned
// quantity since the given time, for sales-velocity estimates.
func (r *reportRepository) NetSoldQuantities(ctx context.Context, shopID uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	type row struct {
		ProductID uuid.UUID
		Quantity  int
	}

	var sold []row
	if err := GetDB(ctx, r.db).Model(&model.Sale{}).
		Select("product_id, COALESCE(SUM(quantity), 0) as quantity").
		Where("shop_id = ? AND sold_at >= ?", shopID, since).
		Group("product_id").
		Scan(&sold).Error; err != nil {
		return nil, err
	}

	var returned []row
	if err := GetDB(ctx, r.db).Model(&model.SaleReturn{}).
		Select("product_id, COALESCE(SUM(quantity), 0) as quantity").
		Where("shop_id = ? AND returned_at >= ?", shopID, since).
		Group("product_id").
		Scan(&returned).Error; err != nil {
		return nil, err
	}

	net := make(map[uuid.UUID]int, len(sold))
	for _, s := range sold {
		net[s.ProductID] = s.Quantity
	}
	for _, rt := range returned {
		net[rt.ProductID] -= rt.Quantity
	}
	return net, nil
}

func (r *reportRepository) AllStocks(ctx context.Context, shopID uuid.UUID) ([]model.Stock, error) {
	var stocks []model.Stock
	if err := GetDB(ctx, r.db).Preload("Product").
		Where("shop_id = ?", shopID).
		Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// AuditTimeline merges all five ledgers into one chronological stream for a
// product in a shop. Deltas are signed from the shop's perspective.
func (r *reportRepository) AuditTimeline(ctx context.Context, shopID, productID uuid.UUID, from, to time.Time, limit int) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	query := `
		SELECT 'purchase' AS kind, id AS ref_id, product_id, quantity AS delta, note, purchased_at AS occurred_at
		FROM purchases
		WHERE shop_id = ? AND product_id = ? AND purchased_at >= ? AND purchased_at <= ?
		UNION ALL
		SELECT 'sale', id, product_id, -quantity, '', sold_at
		FROM sales
		WHERE shop_id = ? AND product_id = ? AND sold_at >= ? AND sold_at <= ?
		UNION ALL
		SELECT 'sale_return', id, product_id, CASE WHEN restocked THEN quantity ELSE 0 END, note, returned_at
		FROM sale_returns
		WHERE shop_id = ? AND product_id = ? AND returned_at >= ? AND returned_at <= ?
		UNION ALL
		SELECT 'transfer', id, product_id, CASE WHEN from_shop_id = ? THEN -quantity ELSE quantity END, note, transferred_at
		FROM stock_transfers
		WHERE (from_shop_id = ? OR to_shop_id = ?) AND product_id = ? AND transferred_at >= ? AND transferred_at <= ?
		UNION ALL
		SELECT 'adjustment', id, product_id, delta, reason, adjusted_at
		FROM stock_adjustments
		WHERE shop_id = ? AND product_id = ? AND adjusted_at >= ? AND adjusted_at <= ?
		ORDER BY occurred_at DESC
		LIMIT ?`
	err := GetDB(ctx, r.db).Raw(query,
		shopID, productID, from, to,
		shopID, productID, from, to,
		shopID, productID, from, to,
		shopID, shopID, shopID, productID, from, to,
		shopID, productID, from, to,
		limit,
	).Scan(&events).Error
	return events, err
}
