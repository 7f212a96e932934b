package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transferFixture struct {
	svc       TransferService
	shops     *stubShopRepo
	products  *stubProductRepo
	stocks    *stubStockRepo
	transfers *stubTransferRepo
	notifier  *stubNotifier

	source  *model.Shop
	dest    *model.Shop
	product *model.Product
}

func newTransferFixture() *transferFixture {
	f := &transferFixture{
		shops:     newStubShopRepo(),
		products:  newStubProductRepo(),
		stocks:    newStubStockRepo(),
		transfers: newStubTransferRepo(),
		notifier:  &stubNotifier{},
	}
	f.source = f.shops.add(model.Shop{Code: "central", Name: "Central", IsActive: true})
	f.dest = f.shops.add(model.Shop{Code: "branch", Name: "Branch", IsActive: true})
	f.product = f.products.add(model.Product{
		ShopID:   f.source.ID,
		SKU:      "SOAP-100G",
		Name:     "Soap 100g",
		Unit:     model.UnitPiece,
		IsActive: true,
	})
	f.stocks.add(model.Stock{
		ShopID:         f.source.ID,
		ProductID:      f.product.ID,
		QuantityOnHand: 80,
		BuyingPrice:    decimal.NewFromInt(5),
		SellingPrice:   decimal.NewFromInt(9),
	})
	f.svc = NewTransferService(f.transfers, f.shops, f.products, f.stocks, &stubTxManager{}, f.notifier)
	return f
}

func (f *transferFixture) stockAt(t *testing.T, shopID, productID uuid.UUID) *model.Stock {
	t.Helper()
	stock, err := f.stocks.FindByShopAndProduct(context.Background(), shopID, productID)
	require.NoError(t, err)
	return stock
}

func TestTransferMirrorsProductAndConservesQuantity(t *testing.T) {
	f := newTransferFixture()
	actor := shopActor(f.source.ID)
	ctx := context.Background()

	transfer, err := f.svc.Transfer(ctx, actor, TransferStockRequest{
		ProductID:  f.product.ID,
		FromShopID: f.source.ID,
		ToShopID:   f.dest.ID,
		Quantity:   30,
	})
	require.NoError(t, err)

	assert.True(t, transfer.UnitBuyingPrice.Equal(decimal.NewFromInt(5)))
	assert.True(t, transfer.UnitSellingPrice.Equal(decimal.NewFromInt(9)))

	source := f.stockAt(t, f.source.ID, f.product.ID)
	assert.Equal(t, 50, source.QuantityOnHand)

	mirrored, err := f.products.FindByShopAndSKU(ctx, f.dest.ID, f.product.SKU)
	require.NoError(t, err)
	assert.Equal(t, f.product.Name, mirrored.Name)
	assert.True(t, mirrored.IsActive)

	dest := f.stockAt(t, f.dest.ID, mirrored.ID)
	assert.Equal(t, 30, dest.QuantityOnHand)
	assert.True(t, dest.BuyingPrice.Equal(decimal.NewFromInt(5)))
	assert.True(t, dest.SellingPrice.Equal(decimal.NewFromInt(9)))

	assert.Equal(t, source.QuantityOnHand+dest.QuantityOnHand, 80)
}

func TestTransferBlendsIntoExistingDestinationStock(t *testing.T) {
	f := newTransferFixture()
	actor := shopActor(f.source.ID)
	ctx := context.Background()

	destProduct := f.products.add(model.Product{
		ShopID:   f.dest.ID,
		SKU:      f.product.SKU,
		Name:     f.product.Name,
		Unit:     f.product.Unit,
		IsActive: true,
	})
	f.stocks.add(model.Stock{
		ShopID:         f.dest.ID,
		ProductID:      destProduct.ID,
		QuantityOnHand: 20,
		BuyingPrice:    decimal.NewFromInt(8),
		SellingPrice:   decimal.NewFromInt(12),
	})

	_, err := f.svc.Transfer(ctx, actor, TransferStockRequest{
		ProductID:  f.product.ID,
		FromShopID: f.source.ID,
		ToShopID:   f.dest.ID,
		Quantity:   40,
	})
	require.NoError(t, err)

	// (20*8 + 40*5) / 60 = 6.00, (20*12 + 40*9) / 60 = 10.00
	dest := f.stockAt(t, f.dest.ID, destProduct.ID)
	assert.Equal(t, 60, dest.QuantityOnHand)
	assert.True(t, dest.BuyingPrice.Equal(decimal.NewFromInt(6)), "buying price %s", dest.BuyingPrice)
	assert.True(t, dest.SellingPrice.Equal(decimal.NewFromInt(10)), "selling price %s", dest.SellingPrice)
}

func TestTransferInsufficientSourceStock(t *testing.T) {
	f := newTransferFixture()
	actor := shopActor(f.source.ID)

	_, err := f.svc.Transfer(context.Background(), actor, TransferStockRequest{
		ProductID:  f.product.ID,
		FromShopID: f.source.ID,
		ToShopID:   f.dest.ID,
		Quantity:   81,
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Equal(t, 80, f.stockAt(t, f.source.ID, f.product.ID).QuantityOnHand)
}

func TestTransferSameShopRejected(t *testing.T) {
	f := newTransferFixture()
	actor := shopActor(f.source.ID)

	_, err := f.svc.Transfer(context.Background(), actor, TransferStockRequest{
		ProductID:  f.product.ID,
		FromShopID: f.source.ID,
		ToShopID:   f.source.ID,
		Quantity:   10,
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestTransferMustOriginateFromOwnShop(t *testing.T) {
	f := newTransferFixture()
	// Actor bound to the destination tries to pull stock from the source.
	actor := shopActor(f.dest.ID)

	_, err := f.svc.Transfer(context.Background(), actor, TransferStockRequest{
		ProductID:  f.product.ID,
		FromShopID: f.source.ID,
		ToShopID:   f.dest.ID,
		Quantity:   10,
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindScope))
}

func TestTransferInactiveShopRejected(t *testing.T) {
	f := newTransferFixture()
	actor := shopActor(f.source.ID)

	f.dest.IsActive = false
	require.NoError(t, f.shops.Update(context.Background(), f.dest))

	_, err := f.svc.Transfer(context.Background(), actor, TransferStockRequest{
		ProductID:  f.product.ID,
		FromShopID: f.source.ID,
		ToShopID:   f.dest.ID,
		Quantity:   10,
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestDeleteTransferReversesBothSides(t *testing.T) {
	f := newTransferFixture()
	actor := shopActor(f.source.ID)
	ctx := context.Background()

	transfer, err := f.svc.Transfer(ctx, actor, TransferStockRequest{
		ProductID:  f.product.ID,
		FromShopID: f.source.ID,
		ToShopID:   f.dest.ID,
		Quantity:   30,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, actor, transfer.ID))

	source := f.stockAt(t, f.source.ID, f.product.ID)
	assert.Equal(t, 80, source.QuantityOnHand)
	assert.True(t, source.BuyingPrice.Equal(decimal.NewFromInt(5)))

	mirrored, err := f.products.FindByShopAndSKU(ctx, f.dest.ID, f.product.SKU)
	require.NoError(t, err)
	dest := f.stockAt(t, f.dest.ID, mirrored.ID)
	assert.Equal(t, 0, dest.QuantityOnHand)
}

func TestDeleteTransferConflictsWhenDestinationConsumed(t *testing.T) {
	f := newTransferFixture()
	actor := shopActor(f.source.ID)
	ctx := context.Background()

	transfer, err := f.svc.Transfer(ctx, actor, TransferStockRequest{
		ProductID:  f.product.ID,
		FromShopID: f.source.ID,
		ToShopID:   f.dest.ID,
		Quantity:   30,
	})
	require.NoError(t, err)

	mirrored, err := f.products.FindByShopAndSKU(ctx, f.dest.ID, f.product.SKU)
	require.NoError(t, err)
	dest := f.stockAt(t, f.dest.ID, mirrored.ID)
	dest.QuantityOnHand = 10
	require.NoError(t, f.stocks.Update(ctx, dest))

	err = f.svc.Delete(ctx, actor, transfer.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	// Neither side may have been touched by the failed reversal.
	assert.Equal(t, 50, f.stockAt(t, f.source.ID, f.product.ID).QuantityOnHand)
	assert.Equal(t, 10, f.stockAt(t, f.dest.ID, mirrored.ID).QuantityOnHand)
}

func TestEditTransferNoChangeShortCircuits(t *testing.T) {
	f := newTransferFixture()
	actor := shopActor(f.source.ID)
	ctx := context.Background()

	transfer, err := f.svc.Transfer(ctx, actor, TransferStockRequest{
		ProductID:  f.product.ID,
		FromShopID: f.source.ID,
		ToShopID:   f.dest.ID,
		Quantity:   30,
	})
	require.NoError(t, err)
	eventsBefore := len(f.notifier.eventNames())

	same, err := f.svc.Edit(ctx, actor, transfer.ID, EditTransferRequest{Quantity: ptr(30)})
	require.NoError(t, err)

	assert.Equal(t, transfer.Quantity, same.Quantity)
	assert.Equal(t, 50, f.stockAt(t, f.source.ID, f.product.ID).QuantityOnHand)
	assert.Len(t, f.notifier.eventNames(), eventsBefore)
}

func TestEditTransferQuantityRestatesBothStocks(t *testing.T) {
	f := newTransferFixture()
	actor := shopActor(f.source.ID)
	ctx := context.Background()

	transfer, err := f.svc.Transfer(ctx, actor, TransferStockRequest{
		ProductID:  f.product.ID,
		FromShopID: f.source.ID,
		ToShopID:   f.dest.ID,
		Quantity:   30,
	})
	require.NoError(t, err)

	edited, err := f.svc.Edit(ctx, actor, transfer.ID, EditTransferRequest{Quantity: ptr(10)})
	require.NoError(t, err)
	assert.Equal(t, 10, edited.Quantity)

	source := f.stockAt(t, f.source.ID, f.product.ID)
	assert.Equal(t, 70, source.QuantityOnHand)

	mirrored, err := f.products.FindByShopAndSKU(ctx, f.dest.ID, f.product.SKU)
	require.NoError(t, err)
	dest := f.stockAt(t, f.dest.ID, mirrored.ID)
	assert.Equal(t, 10, dest.QuantityOnHand)
}
