package category

import "time"

type ExpenseCategory struct {
	ID          string    `gorm:"primaryKey"`
	ClientID    string    `gorm:"column:client_id;not null;uniqueIndex:idx_categories_client_name"`
	Name        string    `gorm:"column:name;not null;uniqueIndex:idx_categories_client_name"`
	Description string    `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ExpenseCategory) TableName() string {
	return "expense_categories"
}
