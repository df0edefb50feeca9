package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Anime 番剧条目（本地目录，种子数据来自 MyAnimeList）
type Anime struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	MalID            int              `json:"mal_id" gorm:"uniqueIndex"`
	Title            string           `json:"title" gorm:"index"`
	Synopsis         string           `json:"synopsis"`
	Score            float64          `json:"score"`
	Genres           string           `json:"genres"`
	ImageURL         string           `json:"image_url"`
	VideoURL         string           `json:"video_url"`
	EmbeddingContent string           `json:"-"`
	Embedding        *pgvector.Vector `json:"-" gorm:"type:vector(768)"`
	UpdatedAt        time.Time        `json:"updated_at" gorm:"index"`
}

// AnimePatch 管理端部分更新载荷，只更新非 nil 字段
type AnimePatch struct {
	Title    *string  `json:"title"`
	Synopsis *string  `json:"synopsis"`
	Score    *float64 `json:"score" binding:"omitempty,gte=0,lte=10"`
	ImageURL *string  `json:"image_url" binding:"omitempty,url"`
	VideoURL *string  `json:"video_url" binding:"omitempty,url"`
}

// Fields 转换为 gorm Updates 可用的字段表
func (p *AnimePatch) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Synopsis != nil {
		fields["synopsis"] = *p.Synopsis
	}
	if p.Score != nil {
		fields["score"] = *p.Score
	}
	if p.ImageURL != nil {
		fields["image_url"] = *p.ImageURL
	}
	if p.VideoURL != nil {
		fields["video_url"] = *p.VideoURL
	}
	return fields
}
