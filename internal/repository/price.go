package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/docuforms/wallet-service/internal/model"
)

var ErrPriceNotFound = errors.New("PRICE_NOT_FOUND")

// PriceRepository reads the form-pricing catalog. The catalog is
// owned by another service; nothing here writes to it.
type PriceRepository interface {
	FindByActionType(ctx context.Context, actionType string) (model.PriceEntry, error)
}

type price struct {
	db *gorm.DB
}

func NewPriceRepository(db *gorm.DB) PriceRepository {
	return &price{db: db}
}

func (r *price) FindByActionType(ctx context.Context, actionType string) (model.PriceEntry, error) {
	var entry model.PriceEntry
	err := r.db.WithContext(ctx).Where("action_type = ?", actionType).First(&entry).Error
	if err == nil {
		return entry, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PriceEntry{}, ErrPriceNotFound
	}

	return model.PriceEntry{}, err
}
