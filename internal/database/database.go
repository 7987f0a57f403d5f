package database

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/docuforms/wallet-service/internal/config"
	"github.com/docuforms/wallet-service/internal/model"
	"github.com/docuforms/wallet-service/pkg/mysql"
)

func NewConnection(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	return mysql.NewConnection(context.Background(), cfg.Database, logger)
}

// Migrate creates the wallet tables. form_prices is intentionally
// absent: the pricing catalog belongs to the forms service and is
// only read here.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.AccountBalance{},
		&model.WalletTransaction{},
	)
}
