package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleTotals are the summed figures of sales in a period.
type SaleTotals struct {
	Revenue decimal.Decimal `json:"revenue"`
	Cost    decimal.Decimal `json:"cost"`
	Profit  decimal.Decimal `json:"profit"`
	Count   int64           `json:"count"`
}

// ReturnTotals are the summed reversal figures of sale returns in a period.
type ReturnTotals struct {
	RefundAmount   decimal.Decimal `json:"refund_amount"`
	CostReversed   decimal.Decimal `json:"cost_reversed"`
	ProfitReversed decimal.Decimal `json:"profit_reversed"`
	Count          int64           `json:"count"`
}

// ProfitReport is the period profit statement for a shop. Returns are netted
// out of revenue and cost; expenses reduce gross profit to net.
type ProfitReport struct {
	ShopID      uuid.UUID       `json:"shop_id"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	Expenses    decimal.Decimal `json:"expenses"`
	NetProfit   decimal.Decimal `json:"net_profit"`
	SalesCount  int64           `json:"sales_count"`
	ReturnCount int64           `json:"return_count"`
}

// ProductProfit ranks one product's net contribution in a period.
type ProductProfit struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	Cost         decimal.Decimal `json:"cost"`
	Profit       decimal.Decimal `json:"profit"`
}

// DashboardSummary is the at-a-glance state of one shop.
type DashboardSummary struct {
	ShopID        uuid.UUID       `json:"shop_id"`
	ProductCount  int64           `json:"product_count"`
	SupplierCount int64           `json:"supplier_count"`
	StockUnits    int64           `json:"stock_units"`
	StockValue    decimal.Decimal `json:"stock_value"`
	RetailValue   decimal.Decimal `json:"retail_value"`
	TodaySales    SaleTotals      `json:"today_sales"`
	LowStockCount int64           `json:"low_stock_count"`
}

// ReorderSuggestion recommends a restock quantity from recent net sales
// velocity projected over the supplier lead time.
type ReorderSuggestion struct {
	ShopID                uuid.UUID       `json:"shop_id"`
	ProductID             uuid.UUID       `json:"product_id"`
	ProductName           string          `json:"product_name"`
	Unit                  string          `json:"unit"`
	CurrentStock          int             `json:"current_stock"`
	AvgDailySales         decimal.Decimal `json:"avg_daily_sales"`
	RecommendedReorderQty int             `json:"recommended_reorder_qty"`
	LookbackDays          int             `json:"lookback_days"`
	LeadDays              int             `json:"lead_days"`
}

// Audit event kinds, one per stock-mutating ledger.
const (
	AuditKindPurchase   = "purchase"
	AuditKindSale       = "sale"
	AuditKindReturn     = "sale_return"
	AuditKindTransfer   = "transfer"
	AuditKindAdjustment = "adjustment"
)

// AuditEvent is one entry in a product's unified stock history, merged from
// all five ledgers. Delta is signed from the perspective of the given shop.
type AuditEvent struct {
	Kind       string    `json:"kind"`
	RefID      uuid.UUID `json:"ref_id"`
	ProductID  uuid.UUID `json:"product_id"`
	Delta      int       `json:"delta"`
	Note       string    `json:"note"`
	OccurredAt time.Time `json:"occurred_at"`
}
