package database

import (
	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models. Order matters for foreign keys.
	err = db.AutoMigrate(
		&model.Shop{},
		&model.Product{},
		&model.Supplier{},
		&model.Stock{},
		&model.Purchase{},
		&model.Sale{},
		&model.SaleReturn{},
		&model.StockTransfer{},
		&model.StockAdjustment{},
		&model.Expense{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
