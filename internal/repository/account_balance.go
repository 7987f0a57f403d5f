package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/docuforms/wallet-service/internal/model"
)

var (
	ErrAccountNotFound = errors.New("ACCOUNT_NOT_FOUND")
	ErrAccountExists   = errors.New("ACCOUNT_EXISTS")

	// ErrBalanceModified means the conditional update matched no row:
	// another writer changed the balance after it was read.
	ErrBalanceModified = errors.New("BALANCE_MODIFIED")
)

type AccountBalanceRepository interface {
	Create(ctx context.Context, ab *model.AccountBalance) error
	FindByUserID(ctx context.Context, userID string) (model.AccountBalance, error)
	UpdateBalanceIf(ctx context.Context, userID string, expected, next int64) error
}

type accountBalance struct {
	db *gorm.DB
}

func NewAccountBalanceRepository(db *gorm.DB) AccountBalanceRepository {
	return &accountBalance{db: db}
}

func (r *accountBalance) Create(ctx context.Context, ab *model.AccountBalance) error {
	err := r.db.WithContext(ctx).Create(ab).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrAccountExists
	}

	return err
}

func (r *accountBalance) FindByUserID(ctx context.Context, userID string) (model.AccountBalance, error) {
	var ab model.AccountBalance
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&ab).Error
	if err == nil {
		return ab, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.AccountBalance{}, ErrAccountNotFound
	}

	return model.AccountBalance{}, err
}

// UpdateBalanceIf writes next only while the stored balance still
// equals expected. A zero-row update is reported as
// ErrBalanceModified and the caller re-reads and retries.
func (r *accountBalance) UpdateBalanceIf(ctx context.Context, userID string, expected, next int64) error {
	res := r.db.WithContext(ctx).Model(&model.AccountBalance{}).
		Where("user_id = ? AND balance = ?", userID, expected).
		Updates(map[string]interface{}{
			"balance":    next,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrBalanceModified
	}

	return nil
}
