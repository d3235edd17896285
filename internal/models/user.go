package models

import (
	"time"
)

// User represents a registered account
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Username  string    `gorm:"type:varchar(25);not null;uniqueIndex:outpost_users_ux1;column:username" json:"username"`
	Email     string    `gorm:"type:varchar(254);not null;default:'';column:email" json:"-"`
	APIToken  string    `gorm:"type:varchar(64);not null;default:'';index;column:api_token" json:"-"`
	IsBanned  bool      `gorm:"not null;default:false;column:is_banned" json:"is_banned"`
	Over18    bool      `gorm:"not null;default:false;column:over_18" json:"over_18"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "outpost_users"
}
