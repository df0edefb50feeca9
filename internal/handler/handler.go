package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/user/aniview/internal/config"
	"github.com/user/aniview/internal/repository"
	"github.com/user/aniview/internal/service"
	"github.com/user/aniview/internal/storage"
)

// Handler HTTP 处理器
type Handler struct {
	Repos  *repository.Repositories
	Config *config.Config
	Jikan  *service.JikanClient
	Sync   *service.SyncService
	Enrich *service.EnrichService
	Media  storage.Storage
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config, media storage.Storage) *Handler {
	// 远程目录客户端
	jikan := service.NewJikanClient(cfg.JikanBaseURL)

	// 目录同步服务
	sync := service.NewSyncService(jikan, repos.Anime, cfg.SyncBatchSize)

	// 条目补全服务
	enrich := service.NewEnrichService(repos.Anime)

	return &Handler{
		Repos:  repos,
		Config: cfg,
		Jikan:  jikan,
		Sync:   sync,
		Enrich: enrich,
		Media:  media,
	}
}

// bindError 把绑定/校验错误翻译成对用户可读的提示
func bindError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("缺少必填字段 %s", fe.Field())
		case "email":
			return "邮箱格式不正确"
		case "min":
			return fmt.Sprintf("字段 %s 长度不足", fe.Field())
		case "gte", "lte":
			return fmt.Sprintf("字段 %s 超出允许范围", fe.Field())
		case "url":
			return fmt.Sprintf("字段 %s 不是合法的 URL", fe.Field())
		}
		return fmt.Sprintf("字段 %s 校验失败", fe.Field())
	}
	return "请求参数有误"
}
