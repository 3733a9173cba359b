package user

import "time"

type User struct {
	ID           string    `gorm:"primaryKey"`
	ClientID     string    `gorm:"column:client_id;not null;uniqueIndex:idx_users_client_email"`
	Email        string    `gorm:"column:email;not null;uniqueIndex:idx_users_client_email"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
