package model

import "time"

// AccountBalance holds the prepaid balance for a single portal user.
// Amounts are stored in minor currency units; the row is only ever
// mutated through a compare-and-swap update on the balance column.
type AccountBalance struct {
	UserID    string    `gorm:"column:user_id;primaryKey;type:varchar(64)" json:"user_id"`
	Balance   int64     `gorm:"column:balance;not null;default:0" json:"balance"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AccountBalance) TableName() string {
	return "account_balances"
}
