package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockTransfer moves quantity between two shops' stock rows for the same
// SKU. Unit prices snapshot the source stock at transfer time; they are the
// "incoming price" blended into the destination's weighted average.
type StockTransfer struct {
	ID                  uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product             Product         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	FromShopID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"from_shop_id"`
	FromShop            Shop            `gorm:"foreignKey:FromShopID;constraint:OnDelete:CASCADE" json:"-"`
	ToShopID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"to_shop_id"`
	ToShop              Shop            `gorm:"foreignKey:ToShopID;constraint:OnDelete:CASCADE" json:"-"`
	TransferredByUserID *uuid.UUID      `gorm:"type:uuid;index" json:"transferred_by_user_id"`
	Quantity            int             `gorm:"type:int;not null" json:"quantity"`
	UnitBuyingPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_buying_price"`
	UnitSellingPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_selling_price"`
	Note                string          `gorm:"type:varchar(255)" json:"note"`
	TransferredAt       time.Time       `gorm:"index;not null" json:"transferred_at"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
