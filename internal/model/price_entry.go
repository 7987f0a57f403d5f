package model

// PriceEntry maps a paid portal action to its price. The table is
// owned by the forms catalog; this service reads it and never writes.
type PriceEntry struct {
	ActionType string `gorm:"column:action_type;primaryKey;type:varchar(64)" json:"action_type"`
	Price      int64  `gorm:"column:price;not null" json:"price"`
	Active     bool   `gorm:"column:active;not null;default:1" json:"active"`
}

func (PriceEntry) TableName() string {
	return "form_prices"
}
