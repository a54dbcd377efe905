package model

import "time"

// User 用户主体
type User struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Username  string `gorm:"type:varchar(32);uniqueIndex;not null"`
	Email     string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Password  string `gorm:"type:varchar(255);not null"` // bcrypt hash
	Age       int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }
