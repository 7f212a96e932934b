package model

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is a purchase counterparty, unique by name within a shop.
type Supplier struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShopID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_suppliers_shop_name" json:"shop_id"`
	Shop      Shop      `gorm:"foreignKey:ShopID;constraint:OnDelete:CASCADE" json:"-"`
	Name      string    `gorm:"type:varchar(160);not null;uniqueIndex:uq_suppliers_shop_name" json:"name"`
	Contact   string    `gorm:"type:varchar(255)" json:"contact"`
	IsActive  bool      `gorm:"default:true;not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
