package model

import "time"

// User 商店账户。密码只以 argon2id 哈希形式落库，永不序列化输出。
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email          string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName       string `gorm:"size:100;not null" json:"full_name"`
	HashedPassword string `gorm:"size:255;not null" json:"-"`
	// IsAdmin 在注册时按配置的管理员邮箱决定一次，之后只通过显式改角色修改。
	IsAdmin  bool `gorm:"not null" json:"is_admin"`
	IsActive bool `gorm:"not null" json:"is_active"`

	Purchases []Purchase `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

func (User) TableName() string { return "users" }
