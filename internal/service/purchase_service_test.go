package service

import (
	"context"
	"sync"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type purchaseFixture struct {
	svc       PurchaseService
	shopRepo  *stubShopRepo
	products  *stubProductRepo
	suppliers *stubSupplierRepo
	stocks    *stubStockRepo
	purchases *stubPurchaseRepo
	notifier  *stubNotifier

	shop    *model.Shop
	product *model.Product
}

func newPurchaseFixture() *purchaseFixture {
	f := &purchaseFixture{
		shopRepo:  newStubShopRepo(),
		products:  newStubProductRepo(),
		suppliers: newStubSupplierRepo(),
		stocks:    newStubStockRepo(),
		purchases: newStubPurchaseRepo(),
		notifier:  &stubNotifier{},
	}
	f.shop = f.shopRepo.add(model.Shop{Code: "main", Name: "Main Shop", IsActive: true})
	f.product = f.products.add(model.Product{
		ShopID:   f.shop.ID,
		SKU:      "RICE-5KG",
		Name:     "Rice 5kg",
		Unit:     model.UnitPiece,
		IsActive: true,
	})
	f.svc = NewPurchaseService(f.purchases, f.products, f.suppliers, f.shopRepo, f.stocks, &stubTxManager{}, f.notifier)
	return f
}

func (f *purchaseFixture) stockOf(t *testing.T) *model.Stock {
	t.Helper()
	stock, err := f.stocks.FindByShopAndProduct(context.Background(), f.shop.ID, f.product.ID)
	require.NoError(t, err)
	return stock
}

func TestRecordPurchaseCreatesStockRow(t *testing.T) {
	f := newPurchaseFixture()
	actor := shopActor(f.shop.ID)

	purchase, err := f.svc.Record(context.Background(), actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         100,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})
	require.NoError(t, err)

	assert.True(t, purchase.TotalCost.Equal(decimal.NewFromInt(1000)), "total cost %s", purchase.TotalCost)

	stock := f.stockOf(t)
	assert.Equal(t, 100, stock.QuantityOnHand)
	assert.True(t, stock.BuyingPrice.Equal(decimal.NewFromInt(10)))
	assert.True(t, stock.SellingPrice.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, []string{EventPurchaseRecorded}, f.notifier.eventNames())
}

func TestRecordPurchaseBlendsWeightedAverage(t *testing.T) {
	f := newPurchaseFixture()
	actor := shopActor(f.shop.ID)
	ctx := context.Background()

	_, err := f.svc.Record(ctx, actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         100,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})
	require.NoError(t, err)

	_, err = f.svc.Record(ctx, actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         50,
		UnitBuyingPrice:  decimal.NewFromFloat(13),
		UnitSellingPrice: decimal.NewFromFloat(18),
	})
	require.NoError(t, err)

	stock := f.stockOf(t)
	assert.Equal(t, 150, stock.QuantityOnHand)
	assert.True(t, stock.BuyingPrice.Equal(decimal.NewFromInt(11)), "buying price %s", stock.BuyingPrice)
	assert.True(t, stock.SellingPrice.Equal(decimal.NewFromInt(16)), "selling price %s", stock.SellingPrice)
}

func TestRecordPurchaseRejectsForeignProduct(t *testing.T) {
	f := newPurchaseFixture()
	other := f.shopRepo.add(model.Shop{Code: "other", Name: "Other", IsActive: true})
	actor := shopActor(other.ID)

	_, err := f.svc.Record(context.Background(), actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         10,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestRecordPurchaseRejectsNonPositivePrices(t *testing.T) {
	f := newPurchaseFixture()
	actor := shopActor(f.shop.ID)

	_, err := f.svc.Record(context.Background(), actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         10,
		UnitBuyingPrice:  decimal.Zero,
		UnitSellingPrice: decimal.NewFromFloat(15),
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestRecordPurchaseRejectsInactiveShop(t *testing.T) {
	f := newPurchaseFixture()
	actor := shopActor(f.shop.ID)
	ctx := context.Background()

	f.shop.IsActive = false
	require.NoError(t, f.shopRepo.Update(ctx, f.shop))

	_, err := f.svc.Record(ctx, actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         10,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestRecordPurchaseRejectsInactiveProduct(t *testing.T) {
	f := newPurchaseFixture()
	actor := shopActor(f.shop.ID)
	ctx := context.Background()

	f.product.IsActive = false
	require.NoError(t, f.products.Update(ctx, f.product))

	_, err := f.svc.Record(ctx, actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         10,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	// The rejected purchase must not have seeded a stock row.
	_, err = f.stocks.FindByShopAndProduct(ctx, f.shop.ID, f.product.ID)
	require.Error(t, err)
}

func TestRecordPurchaseRejectsInactiveSupplier(t *testing.T) {
	f := newPurchaseFixture()
	actor := shopActor(f.shop.ID)
	supplier := f.suppliers.add(model.Supplier{ShopID: f.shop.ID, Name: "Closed Vendor", IsActive: false})

	_, err := f.svc.Record(context.Background(), actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		SupplierID:       &supplier.ID,
		Quantity:         10,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestEditPurchaseRejectsInactiveSupplier(t *testing.T) {
	f := newPurchaseFixture()
	actor := shopActor(f.shop.ID)
	ctx := context.Background()

	purchase, err := f.svc.Record(ctx, actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         10,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})
	require.NoError(t, err)

	supplier := f.suppliers.add(model.Supplier{ShopID: f.shop.ID, Name: "Closed Vendor", IsActive: false})
	_, err = f.svc.Edit(ctx, actor, purchase.ID, EditPurchaseRequest{
		SupplierID:       &supplier.ID,
		Quantity:         10,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Equal(t, 10, f.stockOf(t).QuantityOnHand)
}

func TestRecordPurchaseDuplicateInvoiceConflicts(t *testing.T) {
	f := newPurchaseFixture()
	actor := shopActor(f.shop.ID)

	f.purchases.failNext = &pgconn.PgError{Code: "23505"}
	_, err := f.svc.Record(context.Background(), actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		InvoiceNumber:    ptr("INV-001"),
		Quantity:         10,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestEditPurchaseRestatesStock(t *testing.T) {
	f := newPurchaseFixture()
	actor := shopActor(f.shop.ID)
	ctx := context.Background()

	purchase, err := f.svc.Record(ctx, actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         100,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})
	require.NoError(t, err)

	edited, err := f.svc.Edit(ctx, actor, purchase.ID, EditPurchaseRequest{
		Quantity:         60,
		UnitBuyingPrice:  decimal.NewFromFloat(12),
		UnitSellingPrice: decimal.NewFromFloat(17),
	})
	require.NoError(t, err)

	// Edit must end exactly as if the purchase had been recorded this way.
	assert.Equal(t, 60, edited.Quantity)
	stock := f.stockOf(t)
	assert.Equal(t, 60, stock.QuantityOnHand)
	assert.True(t, stock.BuyingPrice.Equal(decimal.NewFromInt(12)), "buying price %s", stock.BuyingPrice)
	assert.True(t, stock.SellingPrice.Equal(decimal.NewFromInt(17)), "selling price %s", stock.SellingPrice)
	assert.True(t, edited.TotalCost.Equal(decimal.NewFromInt(720)), "total cost %s", edited.TotalCost)
}

func TestEditPurchaseConflictsWhenStockConsumed(t *testing.T) {
	f := newPurchaseFixture()
	actor := shopActor(f.shop.ID)
	ctx := context.Background()

	purchase, err := f.svc.Record(ctx, actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         100,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})
	require.NoError(t, err)

	// Simulate downstream consumption of most of the purchased units.
	stock := f.stockOf(t)
	stock.QuantityOnHand = 30
	require.NoError(t, f.stocks.Update(ctx, stock))

	_, err = f.svc.Edit(ctx, actor, purchase.ID, EditPurchaseRequest{
		Quantity:         100,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	// The failed edit must not have touched the stock row.
	assert.Equal(t, 30, f.stockOf(t).QuantityOnHand)
}

func TestDeletePurchaseReversesStockEffect(t *testing.T) {
	f := newPurchaseFixture()
	actor := shopActor(f.shop.ID)
	ctx := context.Background()

	first, err := f.svc.Record(ctx, actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         100,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})
	require.NoError(t, err)

	second, err := f.svc.Record(ctx, actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         50,
		UnitBuyingPrice:  decimal.NewFromFloat(13),
		UnitSellingPrice: decimal.NewFromFloat(18),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, actor, second.ID))

	stock := f.stockOf(t)
	assert.Equal(t, 100, stock.QuantityOnHand)
	assert.True(t, stock.BuyingPrice.Equal(decimal.NewFromInt(10)), "buying price %s", stock.BuyingPrice)
	assert.True(t, stock.SellingPrice.Equal(decimal.NewFromInt(15)), "selling price %s", stock.SellingPrice)

	_, err = f.svc.Get(ctx, actor, second.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	_, err = f.svc.Get(ctx, actor, first.ID)
	assert.NoError(t, err)
}

func TestDeleteLastPurchaseDrainsStockKeepsPrices(t *testing.T) {
	f := newPurchaseFixture()
	actor := shopActor(f.shop.ID)
	ctx := context.Background()

	purchase, err := f.svc.Record(ctx, actor, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         40,
		UnitBuyingPrice:  decimal.NewFromFloat(7),
		UnitSellingPrice: decimal.NewFromFloat(12),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, actor, purchase.ID))

	stock := f.stockOf(t)
	assert.Equal(t, 0, stock.QuantityOnHand)
	assert.True(t, stock.BuyingPrice.Equal(decimal.NewFromInt(7)))
	assert.True(t, stock.SellingPrice.Equal(decimal.NewFromInt(12)))
}

func TestGlobalActorMustNameShop(t *testing.T) {
	f := newPurchaseFixture()

	_, err := f.svc.Record(context.Background(), globalActor(), RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         10,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestConcurrentPurchasesSerialize(t *testing.T) {
	f := newPurchaseFixture()
	actor := shopActor(f.shop.ID)

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Record(context.Background(), actor, RecordPurchaseRequest{
				ProductID:        f.product.ID,
				Quantity:         10,
				UnitBuyingPrice:  decimal.NewFromFloat(10),
				UnitSellingPrice: decimal.NewFromFloat(15),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		// The one-time stock row creation may race; losers fail as a
		// retryable conflict, never with corrupted totals.
		assert.True(t, apperror.IsKind(err, apperror.KindConflict), "unexpected error: %v", err)
	}

	stock := f.stockOf(t)
	assert.Equal(t, succeeded*10, stock.QuantityOnHand)
	assert.True(t, stock.BuyingPrice.Equal(decimal.NewFromInt(10)))
}

func TestPurchaseScopeOnGet(t *testing.T) {
	f := newPurchaseFixture()
	owner := shopActor(f.shop.ID)
	ctx := context.Background()

	purchase, err := f.svc.Record(ctx, owner, RecordPurchaseRequest{
		ProductID:        f.product.ID,
		Quantity:         10,
		UnitBuyingPrice:  decimal.NewFromFloat(10),
		UnitSellingPrice: decimal.NewFromFloat(15),
	})
	require.NoError(t, err)

	stranger := shopActor(uuid.New())
	_, err = f.svc.Get(ctx, stranger, purchase.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindScope))
}
