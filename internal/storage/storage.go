// Package storage 媒体文件存储（番剧视频与封面），上传后返回可公开访问的 URL
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/user/aniview/internal/config"
)

// Storage 存储驱动接口
type Storage interface {
	// Save 按 key 写入内容，返回公开访问 URL
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	// Delete 删除对象，对象不存在时为空操作
	Delete(ctx context.Context, key string) error
}

// New 根据配置选择存储驱动
func New(cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case "gcs":
		return NewGCSStorage(cfg.GCSBucket, cfg.GCSCredentials)
	case "local", "":
		return NewLocalStorage(cfg.MediaDir, cfg.MediaBaseURL)
	default:
		return nil, fmt.Errorf("未知的存储驱动: %s", cfg.StorageDriver)
	}
}

// BuildKey 生成对象键：<条目ID>/<随机文件名>.<扩展名>
// 随机文件名避免同名覆盖，条目 ID 前缀便于整条目清理
func BuildKey(animeID uint, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%d/%s%s", animeID, uuid.NewString(), ext)
}
