package repository

import (
	"errors"
	"time"

	"github.com/user/aniview/internal/model"
	"gorm.io/gorm"
)

type AnimeRepository struct {
	db *gorm.DB
}

func NewAnimeRepository(db *gorm.DB) *AnimeRepository {
	return &AnimeRepository{db: db}
}

// List 获取全部条目，按标题排序
func (r *AnimeRepository) List() ([]*model.Anime, error) {
	var animes []*model.Anime
	err := r.db.Order("title ASC").Find(&animes).Error
	return animes, err
}

// FindByID 根据本地 ID 查找，未找到返回 (nil, nil)
func (r *AnimeRepository) FindByID(id uint) (*model.Anime, error) {
	var anime model.Anime
	err := r.db.First(&anime, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &anime, nil
}

// FindByMalID 根据 MAL ID 查找，未找到返回 (nil, nil)
// 同步流程用它做存在性探测，缺失不是错误
func (r *AnimeRepository) FindByMalID(malID int) (*model.Anime, error) {
	var anime model.Anime
	err := r.db.Where("mal_id = ?", malID).First(&anime).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &anime, nil
}

// Create 新增条目。mal_id 冲突返回 ErrDuplicate，
// 并发同步时输掉插入竞争的一方按"已存在"处理
func (r *AnimeRepository) Create(anime *model.Anime) error {
	if anime.UpdatedAt.IsZero() {
		anime.UpdatedAt = time.Now()
	}
	err := r.db.Create(anime).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// Update 部分更新，目标不存在返回 ErrNotFound
func (r *AnimeRepository) Update(id uint, patch *model.AnimePatch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now()

	tx := r.db.Model(&model.Anime{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateEmbedding 写入向量及其原文
func (r *AnimeRepository) UpdateEmbedding(id uint, content string, embedding interface{}) error {
	tx := r.db.Model(&model.Anime{}).Where("id = ?", id).Updates(map[string]interface{}{
		"embedding_content": content,
		"embedding":         embedding,
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 删除条目，目标不存在视为成功（容忍并发管理操作）
func (r *AnimeRepository) Delete(id uint) error {
	return r.db.Delete(&model.Anime{}, id).Error
}

// ListMalIDs 取全部已知的 MAL ID，"检查新番"用一次查询代替逐条探测
func (r *AnimeRepository) ListMalIDs() ([]int, error) {
	var ids []int
	err := r.db.Model(&model.Anime{}).Pluck("mal_id", &ids).Error
	return ids, err
}

// FindSimilar 按向量距离返回相似条目（依赖 pgvector）
func (r *AnimeRepository) FindSimilar(id uint, limit int) ([]*model.Anime, error) {
	var animes []*model.Anime
	err := r.db.Raw(`
		SELECT id, mal_id, title, synopsis, score, genres, image_url, video_url, updated_at
		FROM animes
		WHERE id <> ? AND embedding IS NOT NULL
		ORDER BY embedding <=> (SELECT embedding FROM animes WHERE id = ?)
		LIMIT ?
	`, id, id, limit).Scan(&animes).Error
	return animes, err
}

// Count 条目总数
func (r *AnimeRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Anime{}).Count(&count).Error
	return count, err
}
