package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stock is the mutable aggregate: one row per (shop, product), holding the
// quantity on hand and the running weighted-average buying/selling price.
// It must only be mutated through the costing operations inside a locked
// transaction — direct field writes elsewhere are a correctness hazard.
type Stock struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShopID         uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:uq_stocks_shop_product" json:"shop_id"`
	Shop           Shop            `gorm:"foreignKey:ShopID;constraint:OnDelete:CASCADE" json:"-"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:uq_stocks_shop_product" json:"product_id"`
	Product        Product         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	QuantityOnHand int             `gorm:"type:int;default:0;not null" json:"quantity_on_hand"`
	BuyingPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"buying_price"`
	SellingPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"selling_price"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
