package repository

import (
	"time"

	"github.com/user/aniview/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add 添加收藏。(user_id, anime_id) 已存在时静默成功，
// 重复收藏对用户来说等同"已在收藏夹"，不是错误
func (r *FavoriteRepository) Add(userID int, animeID uint) error {
	favorite := &model.Favorite{
		UserID:    userID,
		AnimeID:   animeID,
		CreatedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(favorite).Error
}

// Remove 取消收藏，记录不存在时为空操作
func (r *FavoriteRepository) Remove(userID int, animeID uint) error {
	return r.db.Where("user_id = ? AND anime_id = ?", userID, animeID).Delete(&model.Favorite{}).Error
}

// IsFavorited 检查是否已收藏
func (r *FavoriteRepository) IsFavorited(userID int, animeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Favorite{}).Where("user_id = ? AND anime_id = ?", userID, animeID).Count(&count).Error
	return count > 0, err
}

// ListByUser 获取用户收藏列表（带番剧信息，新收藏在前）
func (r *FavoriteRepository) ListByUser(userID, limit, offset int) ([]*model.Favorite, error) {
	var favorites []*model.Favorite
	err := r.db.Preload("Anime").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&favorites).Error
	return favorites, err
}

// CountByUser 统计用户收藏数量
func (r *FavoriteRepository) CountByUser(userID int) (int, error) {
	var count int64
	err := r.db.Model(&model.Favorite{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}
