package client

import "time"

// Client is a tenant company of the back office. The RUC identifies it
// before SUNAT.
type Client struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	RUC       string    `gorm:"column:ruc;uniqueIndex;not null"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Client) TableName() string {
	return "clients"
}
