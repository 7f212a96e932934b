package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductService() (ProductService, *stubProductRepo, *stubStockRepo, *model.Shop) {
	shops := newStubShopRepo()
	shop := shops.add(model.Shop{Code: "main", Name: "Main Shop", IsActive: true})
	products := newStubProductRepo()
	stocks := newStubStockRepo()
	return NewProductService(products, stocks, &stubTxManager{}), products, stocks, shop
}

func TestCreateProductDefaultsUnit(t *testing.T) {
	svc, _, _, shop := newProductService()

	product, err := svc.Create(context.Background(), shopActor(shop.ID), CreateProductRequest{
		SKU:  "TEA-250G",
		Name: "Tea 250g",
	})
	require.NoError(t, err)

	assert.Equal(t, model.UnitPiece, product.Unit)
	assert.True(t, product.IsActive)
	assert.Equal(t, shop.ID, product.ShopID)
}

func TestCreateProductRejectsUnknownUnit(t *testing.T) {
	svc, _, _, shop := newProductService()

	_, err := svc.Create(context.Background(), shopActor(shop.ID), CreateProductRequest{
		SKU:  "TEA-250G",
		Name: "Tea 250g",
		Unit: "dozen",
	})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestDeleteProductWithStockOnHandConflicts(t *testing.T) {
	svc, products, stocks, shop := newProductService()
	ctx := context.Background()

	product := products.add(model.Product{ShopID: shop.ID, SKU: "TEA-250G", Name: "Tea", Unit: model.UnitPiece, IsActive: true})
	stocks.add(model.Stock{
		ShopID:         shop.ID,
		ProductID:      product.ID,
		QuantityOnHand: 5,
		BuyingPrice:    decimal.NewFromInt(2),
		SellingPrice:   decimal.NewFromInt(4),
	})

	err := svc.Delete(ctx, shopActor(shop.ID), product.ID)

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	_, err = products.FindByID(ctx, product.ID)
	assert.NoError(t, err)
}

func TestDeleteProductRemovesEmptyStockRow(t *testing.T) {
	svc, products, stocks, shop := newProductService()
	ctx := context.Background()

	product := products.add(model.Product{ShopID: shop.ID, SKU: "TEA-250G", Name: "Tea", Unit: model.UnitPiece, IsActive: true})
	stock := stocks.add(model.Stock{
		ShopID:       shop.ID,
		ProductID:    product.ID,
		BuyingPrice:  decimal.NewFromInt(2),
		SellingPrice: decimal.NewFromInt(4),
	})

	require.NoError(t, svc.Delete(ctx, shopActor(shop.ID), product.ID))

	_, err := products.FindByID(ctx, product.ID)
	assert.Error(t, err)
	_, err = stocks.FindByID(ctx, stock.ID)
	assert.Error(t, err)
}

func TestUpdateProductArchives(t *testing.T) {
	svc, products, _, shop := newProductService()
	ctx := context.Background()

	product := products.add(model.Product{ShopID: shop.ID, SKU: "TEA-250G", Name: "Tea", Unit: model.UnitPiece, IsActive: true})

	updated, err := svc.Update(ctx, shopActor(shop.ID), product.ID, UpdateProductRequest{
		Name:     "Tea 250g",
		IsActive: ptr(false),
	})
	require.NoError(t, err)

	assert.False(t, updated.IsActive)
	assert.Equal(t, "Tea 250g", updated.Name)
}
