package service

import (
	"context"
	"sync"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Transaction manager stub ────────────────────────────────────────────────

// stubTxManager serializes transactions behind one mutex, which stands in
// for the row locks the real implementation takes inside postgres.
type stubTxManager struct {
	mu sync.Mutex
}

func (m *stubTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

// ── Notifier stub ───────────────────────────────────────────────────────────

type stubNotifier struct {
	mu     sync.Mutex
	events []StockEvent
}

func (n *stubNotifier) StockChanged(_ context.Context, event StockEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *stubNotifier) eventNames() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	names := make([]string, 0, len(n.events))
	for _, e := range n.events {
		names = append(names, e.Event)
	}
	return names
}

// ── Shop repository stub ────────────────────────────────────────────────────

type stubShopRepo struct {
	shops map[uuid.UUID]*model.Shop
}

func newStubShopRepo() *stubShopRepo {
	return &stubShopRepo{shops: make(map[uuid.UUID]*model.Shop)}
}

func (r *stubShopRepo) add(shop model.Shop) *model.Shop {
	if shop.ID == uuid.Nil {
		shop.ID = uuid.New()
	}
	r.shops[shop.ID] = &shop
	return &shop
}

func (r *stubShopRepo) Create(_ context.Context, shop *model.Shop) error {
	if shop.ID == uuid.Nil {
		shop.ID = uuid.New()
	}
	cp := *shop
	r.shops[shop.ID] = &cp
	return nil
}

func (r *stubShopRepo) Update(_ context.Context, shop *model.Shop) error {
	cp := *shop
	r.shops[shop.ID] = &cp
	return nil
}

func (r *stubShopRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Shop, error) {
	shop, ok := r.shops[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *shop
	return &cp, nil
}

func (r *stubShopRepo) FindByCode(_ context.Context, code string) (*model.Shop, error) {
	for _, shop := range r.shops {
		if shop.Code == code {
			cp := *shop
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubShopRepo) List(_ context.Context, _, _ int, _ string, _ bool) ([]model.Shop, int64, error) {
	out := make([]model.Shop, 0, len(r.shops))
	for _, shop := range r.shops {
		out = append(out, *shop)
	}
	return out, int64(len(out)), nil
}

// ── Product repository stub ─────────────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) add(product model.Product) *model.Product {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.products[product.ID] = &product
	return &product
}

func (r *stubProductRepo) Create(_ context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *stubProductRepo) Update(_ context.Context, product *model.Product) error {
	if _, ok := r.products[product.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *product
	return &cp, nil
}

func (r *stubProductRepo) FindByShopAndSKU(_ context.Context, shopID uuid.UUID, sku string) (*model.Product, error) {
	for _, product := range r.products {
		if product.ShopID == shopID && product.SKU == sku {
			cp := *product
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(_ context.Context, shopID uuid.UUID, _, _ int, _ string, includeInactive bool) ([]model.Product, int64, error) {
	out := make([]model.Product, 0)
	for _, product := range r.products {
		if product.ShopID != shopID {
			continue
		}
		if !includeInactive && !product.IsActive {
			continue
		}
		out = append(out, *product)
	}
	return out, int64(len(out)), nil
}

// ── Supplier repository stub ────────────────────────────────────────────────

type stubSupplierRepo struct {
	suppliers map[uuid.UUID]*model.Supplier
}

func newStubSupplierRepo() *stubSupplierRepo {
	return &stubSupplierRepo{suppliers: make(map[uuid.UUID]*model.Supplier)}
}

func (r *stubSupplierRepo) add(supplier model.Supplier) *model.Supplier {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	r.suppliers[supplier.ID] = &supplier
	return &supplier
}

func (r *stubSupplierRepo) Create(_ context.Context, supplier *model.Supplier) error {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	cp := *supplier
	r.suppliers[supplier.ID] = &cp
	return nil
}

func (r *stubSupplierRepo) Update(_ context.Context, supplier *model.Supplier) error {
	cp := *supplier
	r.suppliers[supplier.ID] = &cp
	return nil
}

func (r *stubSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	supplier, ok := r.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *supplier
	return &cp, nil
}

func (r *stubSupplierRepo) List(_ context.Context, shopID uuid.UUID, _, _ int, _ string) ([]model.Supplier, int64, error) {
	out := make([]model.Supplier, 0)
	for _, supplier := range r.suppliers {
		if supplier.ShopID == shopID {
			out = append(out, *supplier)
		}
	}
	return out, int64(len(out)), nil
}

// ── Stock repository stub ───────────────────────────────────────────────────

type stubStockRepo struct {
	mu     sync.Mutex
	stocks map[uuid.UUID]*model.Stock
}

func newStubStockRepo() *stubStockRepo {
	return &stubStockRepo{stocks: make(map[uuid.UUID]*model.Stock)}
}

func (r *stubStockRepo) add(stock model.Stock) *model.Stock {
	if stock.ID == uuid.Nil {
		stock.ID = uuid.New()
	}
	r.stocks[stock.ID] = &stock
	return &stock
}

func (r *stubStockRepo) Create(_ context.Context, stock *model.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.stocks {
		if existing.ShopID == stock.ShopID && existing.ProductID == stock.ProductID {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	if stock.ID == uuid.Nil {
		stock.ID = uuid.New()
	}
	cp := *stock
	r.stocks[stock.ID] = &cp
	return nil
}

func (r *stubStockRepo) Update(_ context.Context, stock *model.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stocks[stock.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *stock
	r.stocks[stock.ID] = &cp
	return nil
}

func (r *stubStockRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stocks, id)
	return nil
}

func (r *stubStockRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stock, ok := r.stocks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *stock
	return &cp, nil
}

func (r *stubStockRepo) FindByShopAndProduct(ctx context.Context, shopID, productID uuid.UUID) (*model.Stock, error) {
	return r.FindByShopAndProductForUpdate(ctx, shopID, productID)
}

func (r *stubStockRepo) FindByShopAndProductForUpdate(_ context.Context, shopID, productID uuid.UUID) (*model.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stock := range r.stocks {
		if stock.ShopID == shopID && stock.ProductID == productID {
			cp := *stock
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubStockRepo) List(_ context.Context, shopID uuid.UUID, _, _ int, _ string) ([]model.Stock, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Stock, 0)
	for _, stock := range r.stocks {
		if stock.ShopID == shopID {
			out = append(out, *stock)
		}
	}
	return out, int64(len(out)), nil
}

// ── Purchase repository stub ────────────────────────────────────────────────

type stubPurchaseRepo struct {
	purchases map[uuid.UUID]*model.Purchase
	failNext  error
}

func newStubPurchaseRepo() *stubPurchaseRepo {
	return &stubPurchaseRepo{purchases: make(map[uuid.UUID]*model.Purchase)}
}

func (r *stubPurchaseRepo) Create(_ context.Context, purchase *model.Purchase) error {
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	cp := *purchase
	r.purchases[purchase.ID] = &cp
	return nil
}

func (r *stubPurchaseRepo) Update(_ context.Context, purchase *model.Purchase) error {
	if _, ok := r.purchases[purchase.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *purchase
	r.purchases[purchase.ID] = &cp
	return nil
}

func (r *stubPurchaseRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.purchases, id)
	return nil
}

func (r *stubPurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Purchase, error) {
	purchase, ok := r.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *purchase
	return &cp, nil
}

func (r *stubPurchaseRepo) List(_ context.Context, shopID uuid.UUID, _ repository.PurchaseFilter, _, _ int) ([]model.Purchase, int64, error) {
	out := make([]model.Purchase, 0)
	for _, purchase := range r.purchases {
		if purchase.ShopID == shopID {
			out = append(out, *purchase)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubPurchaseRepo) ListAll(ctx context.Context, shopID uuid.UUID, filter repository.PurchaseFilter) ([]model.Purchase, error) {
	out, _, err := r.List(ctx, shopID, filter, 0, 0)
	return out, err
}

// ── Sale repository stubs ───────────────────────────────────────────────────

type stubSaleRepo struct {
	sales map[uuid.UUID]*model.Sale
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) Create(_ context.Context, sale *model.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	cp := *sale
	r.sales[sale.ID] = &cp
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *sale
	return &cp, nil
}

func (r *stubSaleRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	return r.FindByID(ctx, id)
}

func (r *stubSaleRepo) List(_ context.Context, shopID uuid.UUID, _ repository.SaleFilter, _, _ int) ([]model.Sale, int64, error) {
	out := make([]model.Sale, 0)
	for _, sale := range r.sales {
		if sale.ShopID == shopID {
			out = append(out, *sale)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) ListAll(ctx context.Context, shopID uuid.UUID, filter repository.SaleFilter) ([]model.Sale, error) {
	out, _, err := r.List(ctx, shopID, filter, 0, 0)
	return out, err
}

type stubSaleReturnRepo struct {
	returns map[uuid.UUID]*model.SaleReturn
}

func newStubSaleReturnRepo() *stubSaleReturnRepo {
	return &stubSaleReturnRepo{returns: make(map[uuid.UUID]*model.SaleReturn)}
}

func (r *stubSaleReturnRepo) Create(_ context.Context, ret *model.SaleReturn) error {
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	cp := *ret
	r.returns[ret.ID] = &cp
	return nil
}

func (r *stubSaleReturnRepo) SumReturnedQuantity(_ context.Context, saleID uuid.UUID) (int, error) {
	total := 0
	for _, ret := range r.returns {
		if ret.SaleID == saleID {
			total += ret.Quantity
		}
	}
	return total, nil
}

func (r *stubSaleReturnRepo) ListBySale(_ context.Context, saleID uuid.UUID) ([]model.SaleReturn, error) {
	out := make([]model.SaleReturn, 0)
	for _, ret := range r.returns {
		if ret.SaleID == saleID {
			out = append(out, *ret)
		}
	}
	return out, nil
}

func (r *stubSaleReturnRepo) List(_ context.Context, shopID uuid.UUID, _, _ int) ([]model.SaleReturn, int64, error) {
	out := make([]model.SaleReturn, 0)
	for _, ret := range r.returns {
		if ret.ShopID == shopID {
			out = append(out, *ret)
		}
	}
	return out, int64(len(out)), nil
}

// ── Transfer repository stub ────────────────────────────────────────────────

type stubTransferRepo struct {
	transfers map[uuid.UUID]*model.StockTransfer
}

func newStubTransferRepo() *stubTransferRepo {
	return &stubTransferRepo{transfers: make(map[uuid.UUID]*model.StockTransfer)}
}

func (r *stubTransferRepo) Create(_ context.Context, transfer *model.StockTransfer) error {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	cp := *transfer
	r.transfers[transfer.ID] = &cp
	return nil
}

func (r *stubTransferRepo) Update(_ context.Context, transfer *model.StockTransfer) error {
	if _, ok := r.transfers[transfer.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *transfer
	r.transfers[transfer.ID] = &cp
	return nil
}

func (r *stubTransferRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.transfers, id)
	return nil
}

func (r *stubTransferRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockTransfer, error) {
	transfer, ok := r.transfers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *transfer
	return &cp, nil
}

func (r *stubTransferRepo) List(_ context.Context, shopID uuid.UUID, _ repository.TransferFilter, _, _ int) ([]model.StockTransfer, int64, error) {
	out := make([]model.StockTransfer, 0)
	for _, transfer := range r.transfers {
		if transfer.FromShopID == shopID || transfer.ToShopID == shopID {
			out = append(out, *transfer)
		}
	}
	return out, int64(len(out)), nil
}

// ── Expense repository stub ─────────────────────────────────────────────────

type stubExpenseRepo struct {
	expenses map[uuid.UUID]*model.Expense
	sum      decimal.Decimal
}

func newStubExpenseRepo() *stubExpenseRepo {
	return &stubExpenseRepo{expenses: make(map[uuid.UUID]*model.Expense)}
}

func (r *stubExpenseRepo) Create(_ context.Context, expense *model.Expense) error {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	cp := *expense
	r.expenses[expense.ID] = &cp
	return nil
}

func (r *stubExpenseRepo) Update(_ context.Context, expense *model.Expense) error {
	if _, ok := r.expenses[expense.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *expense
	r.expenses[expense.ID] = &cp
	return nil
}

func (r *stubExpenseRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.expenses, id)
	return nil
}

func (r *stubExpenseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Expense, error) {
	expense, ok := r.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *expense
	return &cp, nil
}

func (r *stubExpenseRepo) List(_ context.Context, shopID uuid.UUID, category string, _, _ *time.Time, _, _ int) ([]model.Expense, int64, error) {
	out := make([]model.Expense, 0)
	for _, expense := range r.expenses {
		if expense.ShopID != shopID {
			continue
		}
		if category != "" && expense.Category != category {
			continue
		}
		out = append(out, *expense)
	}
	return out, int64(len(out)), nil
}

func (r *stubExpenseRepo) SumForPeriod(_ context.Context, _ uuid.UUID, _, _ time.Time) (decimal.Decimal, error) {
	return r.sum, nil
}

// ── Adjustment repository stub ──────────────────────────────────────────────

type stubAdjustmentRepo struct {
	adjustments []model.StockAdjustment
}

func newStubAdjustmentRepo() *stubAdjustmentRepo {
	return &stubAdjustmentRepo{}
}

func (r *stubAdjustmentRepo) Create(_ context.Context, adj *model.StockAdjustment) error {
	if adj.ID == uuid.Nil {
		adj.ID = uuid.New()
	}
	r.adjustments = append(r.adjustments, *adj)
	return nil
}

func (r *stubAdjustmentRepo) List(_ context.Context, shopID uuid.UUID, productID *uuid.UUID, _, _ int) ([]model.StockAdjustment, int64, error) {
	out := make([]model.StockAdjustment, 0)
	for _, adj := range r.adjustments {
		if adj.ShopID != shopID {
			continue
		}
		if productID != nil && adj.ProductID != *productID {
			continue
		}
		out = append(out, adj)
	}
	return out, int64(len(out)), nil
}

// ── Common fixtures ─────────────────────────────────────────────────────────

func globalActor() model.Actor {
	return model.Actor{UserID: uuid.New(), Role: model.RoleSystemOwner}
}

func shopActor(shopID uuid.UUID) model.Actor {
	return model.Actor{UserID: uuid.New(), ShopID: &shopID, Role: model.RoleBusinessOwner}
}

func ptr[T any](v T) *T {
	return &v
}
