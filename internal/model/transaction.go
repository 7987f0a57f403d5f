package model

import "time"

type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// WalletTransaction is an append-only ledger record. Rows are never
// updated or deleted. external_reference carries the gateway payment
// id for credits and is unique, so a replayed callback cannot insert
// a second credit.
type WalletTransaction struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID            string    `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	Amount            int64     `gorm:"column:amount;not null" json:"amount"`
	Direction         Direction `gorm:"column:direction;type:varchar(10);not null" json:"direction"`
	Description       string    `gorm:"column:description;type:varchar(255)" json:"description"`
	ExternalReference *string   `gorm:"column:external_reference;type:varchar(128);uniqueIndex" json:"external_reference,omitempty"`
	BalanceAfter      int64     `gorm:"column:balance_after;not null" json:"balance_after"`
	CreatedAt         time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
