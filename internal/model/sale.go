package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is the immutable record of a stock depletion. Unit prices are copied
// from the Stock aggregate at sale time; sales are never edited afterwards,
// only reversed through SaleReturn rows.
type Sale struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShopID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"shop_id"`
	Shop             Shop            `gorm:"foreignKey:ShopID;constraint:OnDelete:CASCADE" json:"-"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product          Product         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	SoldByUserID     *uuid.UUID      `gorm:"type:uuid;index" json:"sold_by_user_id"`
	Quantity         int             `gorm:"type:int;not null" json:"quantity"`
	UnitBuyingPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_buying_price"`
	UnitSellingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_selling_price"`
	Revenue          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"revenue"`
	Cost             decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"cost"`
	Profit           decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"profit"`
	SoldAt           time.Time       `gorm:"index;not null" json:"sold_at"`
	CreatedAt        time.Time       `json:"created_at"`
}

// SaleReturn partially or fully reverses a Sale. Refund figures are computed
// from the original sale's price snapshots, never from current stock prices.
// The cumulative returned quantity per sale is derived from the full return
// history, not cached anywhere.
type SaleReturn struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	Sale              Sale            `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"-"`
	ShopID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"shop_id"`
	Shop              Shop            `gorm:"foreignKey:ShopID;constraint:OnDelete:CASCADE" json:"-"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProcessedByUserID *uuid.UUID      `gorm:"type:uuid;index" json:"processed_by_user_id"`
	Quantity          int             `gorm:"type:int;not null" json:"quantity"`
	UnitBuyingPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_buying_price"`
	UnitSellingPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_selling_price"`
	RefundAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"refund_amount"`
	CostReversed      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"cost_reversed"`
	ProfitReversed    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"profit_reversed"`
	Restocked         bool            `gorm:"default:true;not null" json:"restocked"`
	Note              string          `gorm:"type:varchar(255)" json:"note"`
	ReturnedAt        time.Time       `gorm:"index;not null" json:"returned_at"`
	CreatedAt         time.Time       `json:"created_at"`
}
