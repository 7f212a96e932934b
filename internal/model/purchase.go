package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is the immutable ledger record of stock acquired. Its quantity and
// prices are a snapshot taken at purchase time; editing or deleting the row
// first reverses its effect on the Stock aggregate.
type Purchase struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShopID            uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:uq_purchases_shop_invoice" json:"shop_id"`
	Shop              Shop            `gorm:"foreignKey:ShopID;constraint:OnDelete:CASCADE" json:"-"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product           Product         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	SupplierID        *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id"`
	Supplier          *Supplier       `gorm:"foreignKey:SupplierID;constraint:OnDelete:SET NULL" json:"supplier,omitempty"`
	InvoiceNumber     *string         `gorm:"type:varchar(64);uniqueIndex:uq_purchases_shop_invoice" json:"invoice_number"`
	PurchasedByUserID *uuid.UUID      `gorm:"type:uuid;index" json:"purchased_by_user_id"`
	Unit              string          `gorm:"type:varchar(24);default:'piece';not null" json:"unit"`
	Quantity          int             `gorm:"type:int;not null" json:"quantity"`
	UnitBuyingPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_buying_price"`
	UnitSellingPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_selling_price"`
	TotalCost         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_cost"`
	Note              string          `gorm:"type:varchar(255)" json:"note"`
	PurchasedAt       time.Time       `gorm:"index;not null" json:"purchased_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
