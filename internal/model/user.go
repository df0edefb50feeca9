package model

import (
	"time"
)

// 角色常量。profiles 表缺失记录时按普通用户处理
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 用户模型（认证主体）
type User struct {
	ID           int       `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex"`
	Username     string    `json:"username" gorm:"uniqueIndex"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile 用户资料，按用户 ID 关联，存放授权角色
type Profile struct {
	UserID    int       `json:"user_id" gorm:"primaryKey"`
	Role      string    `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionUser 专门用于 Session 存储的用户信息结构
type SessionUser struct {
	ID       int
	Email    string
	Username string
	Role     string
}

// Favorite 收藏（用户与番剧条目的关联，(user_id, anime_id) 唯一）
type Favorite struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	UserID    int       `json:"user_id" gorm:"uniqueIndex:idx_fav_user_anime"`
	AnimeID   uint      `json:"anime_id" gorm:"uniqueIndex:idx_fav_user_anime"`
	CreatedAt time.Time `json:"created_at"`
	Anime     *Anime    `json:"anime,omitempty"` // 关联查询时填充
}
