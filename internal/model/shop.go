package model

import (
	"time"

	"github.com/google/uuid"
)

// Shop is the tenant unit. Products, stock and ledger entries belong to
// exactly one shop. Shops are archived via IsActive, never physically deleted.
type Shop struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"type:varchar(120);index;not null" json:"name"`
	Location  string    `gorm:"type:varchar(255)" json:"location"`
	IsActive  bool      `gorm:"default:true;not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
