package repository

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/docuforms/wallet-service/internal/model"
)

var (
	ErrTransactionNotFound = errors.New("TRANSACTION_NOT_FOUND")

	// ErrDuplicateReference surfaces the unique index on
	// external_reference, the idempotency guard for credits.
	ErrDuplicateReference = errors.New("DUPLICATE_REFERENCE")
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *model.WalletTransaction) error
	FindByExternalReference(ctx context.Context, reference string) (model.WalletTransaction, error)
	ListByUserID(ctx context.Context, userID string) ([]model.WalletTransaction, error)
}

type transaction struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transaction{db: db}
}

func (t *transaction) Create(ctx context.Context, tx *model.WalletTransaction) error {
	err := t.db.WithContext(ctx).Create(tx).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrDuplicateReference
	}

	return err
}

func (t *transaction) FindByExternalReference(ctx context.Context, reference string) (model.WalletTransaction, error) {
	var tx model.WalletTransaction
	err := t.db.WithContext(ctx).Where("external_reference = ?", reference).First(&tx).Error
	if err == nil {
		return tx, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.WalletTransaction{}, ErrTransactionNotFound
	}

	return model.WalletTransaction{}, err
}

func (t *transaction) ListByUserID(ctx context.Context, userID string) ([]model.WalletTransaction, error) {
	var txs []model.WalletTransaction
	err := t.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}
