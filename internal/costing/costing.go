// Package costing implements the weighted-average stock arithmetic as pure
// functions over an immutable snapshot. The protocol layer (internal/service)
// is responsible for locking, sequencing and persistence; nothing here touches
// the database, which keeps the math unit-testable in isolation.
package costing

import (
	"backend/pkg/apperror"

	"github.com/shopspring/decimal"
)

// Snapshot is the mutable part of a stock row, detached from persistence.
type Snapshot struct {
	Quantity     int
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
}

// quantize rounds to 2 decimal places using banker's rounding. Apply and
// reverse paths must share a single rounding policy or the round-trip
// property breaks at boundary cases.
func quantize(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// ApplyPurchase blends qty units at buy/sell into the snapshot.
// When the snapshot is empty the incoming prices replace the stored ones
// outright — averaging against a drained stock's stale prices would be
// meaningless.
func ApplyPurchase(s Snapshot, qty int, buy, sell decimal.Decimal) Snapshot {
	if s.Quantity == 0 {
		return Snapshot{
			Quantity:     qty,
			BuyingPrice:  quantize(buy),
			SellingPrice: quantize(sell),
		}
	}

	oldQty := decimal.NewFromInt(int64(s.Quantity))
	addQty := decimal.NewFromInt(int64(qty))
	newQty := oldQty.Add(addQty)

	weightedBuy := s.BuyingPrice.Mul(oldQty).Add(buy.Mul(addQty)).Div(newQty)
	weightedSell := s.SellingPrice.Mul(oldQty).Add(sell.Mul(addQty)).Div(newQty)

	return Snapshot{
		Quantity:     s.Quantity + qty,
		BuyingPrice:  quantize(weightedBuy),
		SellingPrice: quantize(weightedSell),
	}
}

// RemovePurchase is the algebraic inverse of ApplyPurchase, used before
// editing or deleting a purchase. It fails with Conflict when the purchased
// units have already been consumed downstream. Draining the stock to exactly
// zero leaves prices untouched (any value is equally valid until the next
// purchase resets them).
func RemovePurchase(s Snapshot, qty int, buy, sell decimal.Decimal) (Snapshot, error) {
	if s.Quantity < qty {
		return s, apperror.Conflict("cannot modify purchase because purchased stock has already been consumed")
	}
	newQty := s.Quantity - qty
	if newQty == 0 {
		s.Quantity = 0
		return s, nil
	}

	oldQty := decimal.NewFromInt(int64(s.Quantity))
	remQty := decimal.NewFromInt(int64(qty))
	leftQty := decimal.NewFromInt(int64(newQty))

	newBuy := s.BuyingPrice.Mul(oldQty).Sub(buy.Mul(remQty)).Div(leftQty)
	newSell := s.SellingPrice.Mul(oldQty).Sub(sell.Mul(remQty)).Div(leftQty)

	return Snapshot{
		Quantity:     newQty,
		BuyingPrice:  quantize(newBuy),
		SellingPrice: quantize(newSell),
	}, nil
}

// Adjust applies a signed quantity delta and optional absolute price
// overrides. Overrides replace the stored averages directly — adjustments are
// authoritative corrections (stock counts, spoilage write-offs), never blends.
func Adjust(s Snapshot, delta int, buyOverride, sellOverride *decimal.Decimal) (Snapshot, error) {
	after := s.Quantity + delta
	if after < 0 {
		return s, apperror.Validation("adjustment would make stock negative")
	}
	s.Quantity = after
	if buyOverride != nil {
		s.BuyingPrice = quantize(*buyOverride)
	}
	if sellOverride != nil {
		s.SellingPrice = quantize(*sellOverride)
	}
	return s, nil
}

// Deduct removes qty units for a sale or an outgoing transfer. Prices are
// never touched: consuming stock does not change its cost basis.
func Deduct(s Snapshot, qty int) (Snapshot, error) {
	if s.Quantity < qty {
		return s, apperror.Validation("insufficient stock quantity")
	}
	s.Quantity -= qty
	return s, nil
}

// Restock adds qty units back without touching prices, used by restocking
// sale returns and by reversing an outgoing transfer.
func Restock(s Snapshot, qty int) Snapshot {
	s.Quantity += qty
	return s
}
