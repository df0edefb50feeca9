package repository

import (
	"errors"
	"fmt"

	"github.com/user/aniview/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// 仓库层统一错误。探测类查询（FindByX）不会返回 ErrNotFound，而是返回 (nil, nil)
var (
	ErrNotFound  = errors.New("记录不存在")
	ErrDuplicate = errors.New("记录已存在")
)

// InitDB 初始化数据库连接
// TranslateError 让唯一约束冲突映射为 gorm.ErrDuplicatedKey，便于上层识别
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// AutoMigrate 迁移表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Anime{},
		&model.User{},
		&model.Profile{},
		&model.Favorite{},
	)
}

// Repositories 仓库集合
type Repositories struct {
	DB       *gorm.DB
	User     *UserRepository
	Profile  *ProfileRepository
	Anime    *AnimeRepository
	Favorite *FavoriteRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:       db,
		User:     NewUserRepository(db),
		Profile:  NewProfileRepository(db),
		Anime:    NewAnimeRepository(db),
		Favorite: NewFavoriteRepository(db),
	}
}
