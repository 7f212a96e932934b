package model

import (
	"time"

	"github.com/google/uuid"
)

// Unit enum constants — the units of measure a product can be tracked in.
const (
	UnitPiece  = "piece"
	UnitKg     = "kg"
	UnitLitre  = "litre"
	UnitCarton = "carton"
)

// Product is shop-scoped: the same SKU in two shops is two distinct rows.
// A transfer into a shop lacking the product creates a mirrored row there.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShopID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_products_shop_sku" json:"shop_id"`
	Shop        Shop      `gorm:"foreignKey:ShopID;constraint:OnDelete:CASCADE" json:"-"`
	SKU         string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_products_shop_sku" json:"sku"`
	Name        string    `gorm:"type:varchar(160);index;not null" json:"name"`
	Unit        string    `gorm:"type:varchar(24);default:'piece';not null" json:"unit"` // piece, kg, litre, carton
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"default:true;not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidUnit reports whether unit is one of the supported units of measure.
func ValidUnit(unit string) bool {
	switch unit {
	case UnitPiece, UnitKg, UnitLitre, UnitCarton:
		return true
	}
	return false
}
