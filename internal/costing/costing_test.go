package costing

import (
	"testing"

	"backend/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestApplyPurchaseReplacesPricesOnEmptyStock(t *testing.T) {
	s := Snapshot{Quantity: 0, BuyingPrice: dec("99.99"), SellingPrice: dec("149.99")}

	got := ApplyPurchase(s, 10, dec("5.50"), dec("8.00"))

	assert.Equal(t, 10, got.Quantity)
	assert.True(t, got.BuyingPrice.Equal(dec("5.50")), "buying price %s", got.BuyingPrice)
	assert.True(t, got.SellingPrice.Equal(dec("8.00")), "selling price %s", got.SellingPrice)
}

func TestApplyPurchaseWeightedAverage(t *testing.T) {
	s := Snapshot{Quantity: 100, BuyingPrice: dec("10.00"), SellingPrice: dec("15.00")}

	got := ApplyPurchase(s, 50, dec("13.00"), dec("18.00"))

	// (100*10 + 50*13) / 150 = 11.00, (100*15 + 50*18) / 150 = 16.00
	assert.Equal(t, 150, got.Quantity)
	assert.True(t, got.BuyingPrice.Equal(dec("11.00")), "buying price %s", got.BuyingPrice)
	assert.True(t, got.SellingPrice.Equal(dec("16.00")), "selling price %s", got.SellingPrice)
}

func TestApplyPurchaseRoundsHalfEven(t *testing.T) {
	s := Snapshot{Quantity: 1, BuyingPrice: dec("10.00"), SellingPrice: dec("10.00")}

	// (1*10 + 2*10.0075) / 3 = 10.005 exactly, banker's rounding gives 10.00
	got := ApplyPurchase(s, 2, dec("10.0075"), dec("10.0075"))

	assert.True(t, got.BuyingPrice.Equal(dec("10.00")), "buying price %s", got.BuyingPrice)
}

func TestRemovePurchaseInvertsApply(t *testing.T) {
	s := Snapshot{Quantity: 40, BuyingPrice: dec("7.25"), SellingPrice: dec("11.40")}

	applied := ApplyPurchase(s, 25, dec("9.10"), dec("13.75"))
	got, err := RemovePurchase(applied, 25, dec("9.10"), dec("13.75"))
	require.NoError(t, err)

	assert.Equal(t, 40, got.Quantity)
	// Rounding at 2dp keeps the round trip within a cent.
	assert.True(t, got.BuyingPrice.Sub(s.BuyingPrice).Abs().LessThanOrEqual(dec("0.01")),
		"buying price drifted: %s vs %s", got.BuyingPrice, s.BuyingPrice)
	assert.True(t, got.SellingPrice.Sub(s.SellingPrice).Abs().LessThanOrEqual(dec("0.01")),
		"selling price drifted: %s vs %s", got.SellingPrice, s.SellingPrice)
}

func TestRemovePurchaseConflictWhenConsumed(t *testing.T) {
	s := Snapshot{Quantity: 5, BuyingPrice: dec("10.00"), SellingPrice: dec("15.00")}

	_, err := RemovePurchase(s, 8, dec("10.00"), dec("15.00"))

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestRemovePurchaseDrainToZeroKeepsPrices(t *testing.T) {
	s := Snapshot{Quantity: 30, BuyingPrice: dec("12.00"), SellingPrice: dec("20.00")}

	got, err := RemovePurchase(s, 30, dec("12.00"), dec("20.00"))
	require.NoError(t, err)

	assert.Equal(t, 0, got.Quantity)
	assert.True(t, got.BuyingPrice.Equal(dec("12.00")))
	assert.True(t, got.SellingPrice.Equal(dec("20.00")))
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	s := Snapshot{Quantity: 3, BuyingPrice: dec("1.00"), SellingPrice: dec("2.00")}

	_, err := Adjust(s, -4, nil, nil)

	require.Error(t, err)
}

func TestAdjustOverridesPricesAbsolutely(t *testing.T) {
	s := Snapshot{Quantity: 10, BuyingPrice: dec("10.00"), SellingPrice: dec("15.00")}
	buy := dec("8.00")

	got, err := Adjust(s, -2, &buy, nil)
	require.NoError(t, err)

	assert.Equal(t, 8, got.Quantity)
	assert.True(t, got.BuyingPrice.Equal(dec("8.00")))
	assert.True(t, got.SellingPrice.Equal(dec("15.00")))
}

func TestDeductInsufficientStock(t *testing.T) {
	s := Snapshot{Quantity: 2, BuyingPrice: dec("5.00"), SellingPrice: dec("9.00")}

	_, err := Deduct(s, 3)
	require.Error(t, err)

	got, err := Deduct(s, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
	assert.True(t, got.BuyingPrice.Equal(dec("5.00")))
}

func TestRestockNeverTouchesPrices(t *testing.T) {
	s := Snapshot{Quantity: 4, BuyingPrice: dec("3.30"), SellingPrice: dec("6.60")}

	got := Restock(s, 6)

	assert.Equal(t, 10, got.Quantity)
	assert.True(t, got.BuyingPrice.Equal(dec("3.30")))
	assert.True(t, got.SellingPrice.Equal(dec("6.60")))
}
