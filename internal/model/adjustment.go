package model

import (
	"time"

	"github.com/google/uuid"
)

// StockAdjustment records a manual quantity override on a stock row.
// Before/after are the authoritative values; delta is stored for reporting.
type StockAdjustment struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StockID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"stock_id"`
	Stock            Stock      `gorm:"foreignKey:StockID;constraint:OnDelete:CASCADE" json:"-"`
	ShopID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"shop_id"`
	ProductID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	AdjustedByUserID *uuid.UUID `gorm:"type:uuid;index" json:"adjusted_by_user_id"`
	QuantityBefore   int        `gorm:"type:int;not null" json:"quantity_before"`
	QuantityAfter    int        `gorm:"type:int;not null" json:"quantity_after"`
	Delta            int        `gorm:"type:int;not null" json:"delta"`
	Reason           string     `gorm:"type:varchar(255);not null" json:"reason"`
	AdjustedAt       time.Time  `gorm:"index;not null" json:"adjusted_at"`
	CreatedAt        time.Time  `json:"created_at"`
}
