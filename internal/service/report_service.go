package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"backend/internal/cache"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	reportCacheTTL       = time.Minute
	defaultTimelineLimit = 100
)

type ReorderQuery struct {
	ShopID       *uuid.UUID
	LookbackDays int
	LeadDays     int
}

type ReportService interface {
	Profit(ctx context.Context, actor model.Actor, shopID *uuid.UUID, from, to time.Time) (*model.ProfitReport, error)
	ProfitByProduct(ctx context.Context, actor model.Actor, shopID *uuid.UUID, from, to time.Time, limit int) ([]model.ProductProfit, error)
	Dashboard(ctx context.Context, actor model.Actor, shopID *uuid.UUID, lowStockThreshold int) (*model.DashboardSummary, error)
	LowStock(ctx context.Context, actor model.Actor, shopID *uuid.UUID, threshold, limit int) ([]model.Stock, error)
	ReorderSuggestions(ctx context.Context, actor model.Actor, q ReorderQuery) ([]model.ReorderSuggestion, error)
	AuditTimeline(ctx context.Context, actor model.Actor, shopID *uuid.UUID, productID uuid.UUID, from, to time.Time, limit int) ([]model.AuditEvent, error)
}

type reportService struct {
	reportRepo  repository.ReportRepository
	expenseRepo repository.ExpenseRepository
	reportCache cache.ReportCache
}

func NewReportService(
	reportRepo repository.ReportRepository,
	expenseRepo repository.ExpenseRepository,
	reportCache cache.ReportCache,
) ReportService {
	return &reportService{
		reportRepo:  reportRepo,
		expenseRepo: expenseRepo,
		reportCache: reportCache,
	}
}

// Profit builds the period profit statement: sale totals net of returns,
// minus the shop's expenses for the same period.
func (s *reportService) Profit(ctx context.Context, actor model.Actor, shopID *uuid.UUID, from, to time.Time) (*model.ProfitReport, error) {
	resolved, err := resolveShopID(actor, shopID)
	if err != nil {
		return nil, err
	}

	key := cache.Key(resolved.String(), fmt.Sprintf("profit:%d:%d", from.Unix(), to.Unix()))
	var report model.ProfitReport
	if s.cacheGet(ctx, key, &report) {
		return &report, nil
	}

	sales, err := s.reportRepo.SaleTotals(ctx, resolved, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	returns, err := s.reportRepo.ReturnTotals(ctx, resolved, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate returns: %w", err)
	}
	expenses, err := s.expenseRepo.SumForPeriod(ctx, resolved, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate expenses: %w", err)
	}

	revenue := sales.Revenue.Sub(returns.RefundAmount)
	cost := sales.Cost.Sub(returns.CostReversed)
	gross := revenue.Sub(cost)

	report = model.ProfitReport{
		ShopID:      resolved,
		From:        from,
		To:          to,
		Revenue:     revenue,
		Cost:        cost,
		GrossProfit: gross,
		Expenses:    expenses,
		NetProfit:   gross.Sub(expenses),
		SalesCount:  sales.Count,
		ReturnCount: returns.Count,
	}
	s.cacheSet(ctx, key, report)
	return &report, nil
}

func (s *reportService) ProfitByProduct(ctx context.Context, actor model.Actor, shopID *uuid.UUID, from, to time.Time, limit int) ([]model.ProductProfit, error) {
	resolved, err := resolveShopID(actor, shopID)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.ProductProfits(ctx, resolved, from, to, limit)
}

func (s *reportService) Dashboard(ctx context.Context, actor model.Actor, shopID *uuid.UUID, lowStockThreshold int) (*model.DashboardSummary, error) {
	resolved, err := resolveShopID(actor, shopID)
	if err != nil {
		return nil, err
	}

	key := cache.Key(resolved.String(), fmt.Sprintf("dashboard:%d", lowStockThreshold))
	var summary model.DashboardSummary
	if s.cacheGet(ctx, key, &summary) {
		return &summary, nil
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	products, err := s.reportRepo.CountProducts(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	suppliers, err := s.reportRepo.CountSuppliers(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to count suppliers: %w", err)
	}
	agg, err := s.reportRepo.StockAggregates(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stock: %w", err)
	}
	today, err := s.reportRepo.SaleTotals(ctx, resolved, dayStart, now)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate today's sales: %w", err)
	}
	lowStock, err := s.reportRepo.CountLowStock(ctx, resolved, lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to count low stock: %w", err)
	}

	summary = model.DashboardSummary{
		ShopID:        resolved,
		ProductCount:  products,
		SupplierCount: suppliers,
		StockUnits:    agg.Units,
		StockValue:    agg.StockValue,
		RetailValue:   agg.RetailValue,
		TodaySales:    today,
		LowStockCount: lowStock,
	}
	s.cacheSet(ctx, key, summary)
	return &summary, nil
}

func (s *reportService) LowStock(ctx context.Context, actor model.Actor, shopID *uuid.UUID, threshold, limit int) ([]model.Stock, error) {
	resolved, err := resolveShopID(actor, shopID)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.LowStock(ctx, resolved, threshold, limit)
}

// ReorderSuggestions projects each product's net sales velocity over the
// lookback window across the supplier lead time and recommends topping the
// stock up to that level.
func (s *reportService) ReorderSuggestions(ctx context.Context, actor model.Actor, q ReorderQuery) ([]model.ReorderSuggestion, error) {
	resolved, err := resolveShopID(actor, q.ShopID)
	if err != nil {
		return nil, err
	}
	if q.LookbackDays <= 0 {
		q.LookbackDays = 30
	}
	if q.LeadDays <= 0 {
		q.LeadDays = 7
	}

	since := time.Now().UTC().AddDate(0, 0, -q.LookbackDays)
	net, err := s.reportRepo.NetSoldQuantities(ctx, resolved, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate net sales: %w", err)
	}
	stocks, err := s.reportRepo.AllStocks(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to load stocks: %w", err)
	}

	suggestions := make([]model.ReorderSuggestion, 0, len(stocks))
	for _, stock := range stocks {
		soldNet := net[stock.ProductID]
		if soldNet < 0 {
			soldNet = 0
		}
		avgDaily := decimal.NewFromInt(int64(soldNet)).
			Div(decimal.NewFromInt(int64(q.LookbackDays)))
		target := avgDaily.Mul(decimal.NewFromInt(int64(q.LeadDays)))
		gap, _ := target.Sub(decimal.NewFromInt(int64(stock.QuantityOnHand))).Float64()
		reorderQty := int(math.Ceil(gap))
		if reorderQty < 0 {
			reorderQty = 0
		}

		suggestions = append(suggestions, model.ReorderSuggestion{
			ShopID:                stock.ShopID,
			ProductID:             stock.ProductID,
			ProductName:           stock.Product.Name,
			Unit:                  stock.Product.Unit,
			CurrentStock:          stock.QuantityOnHand,
			AvgDailySales:         avgDaily.RoundBank(2),
			RecommendedReorderQty: reorderQty,
			LookbackDays:          q.LookbackDays,
			LeadDays:              q.LeadDays,
		})
	}

	// Most urgent first.
	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].RecommendedReorderQty > suggestions[j].RecommendedReorderQty
	})
	return suggestions, nil
}

func (s *reportService) AuditTimeline(ctx context.Context, actor model.Actor, shopID *uuid.UUID, productID uuid.UUID, from, to time.Time, limit int) ([]model.AuditEvent, error) {
	resolved, err := resolveShopID(actor, shopID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTimelineLimit
	}
	return s.reportRepo.AuditTimeline(ctx, resolved, productID, from, to, limit)
}

func (s *reportService) cacheGet(ctx context.Context, key string, out interface{}) bool {
	data, ok := s.reportCache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("dropping undecodable cached report")
		return false
	}
	return true
}

func (s *reportService) cacheSet(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.reportCache.Set(ctx, key, data, reportCacheTTL)
}
