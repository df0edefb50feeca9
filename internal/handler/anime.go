package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/aniview/internal/middleware"
	"github.com/user/aniview/internal/service"
	"github.com/user/aniview/internal/utils"
)

// AnimeList 本地目录列表（按标题排序）
func (h *Handler) AnimeList(c *gin.Context) {
	animes, err := h.Repos.Anime.List()
	if err != nil {
		log.Printf("[Anime] 读取目录失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}
	utils.Success(c, animes)
}

// AnimeDetail 条目详情，登录用户附带收藏状态
func (h *Handler) AnimeDetail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的 ID")
		return
	}

	anime, err := h.Repos.Anime.FindByID(uint(id))
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}
	if anime == nil {
		utils.NotFound(c, "")
		return
	}

	favorited := false
	if userID := middleware.GetUserID(c); userID > 0 {
		favorited, _ = h.Repos.Favorite.IsFavorited(userID, anime.ID)
	}

	utils.Success(c, gin.H{
		"anime":     anime,
		"favorited": favorited,
	})
}

// AnimeSimilar 相似条目（向量距离）
func (h *Handler) AnimeSimilar(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的 ID")
		return
	}

	similar, err := h.Repos.Anime.FindSimilar(uint(id), 6)
	if err != nil {
		log.Printf("[Anime] 相似查询失败 (ID: %d): %v", id, err)
		utils.InternalServerError(c, "")
		return
	}
	utils.Success(c, similar)
}

// RemoteTop 远程榜单（代理 + 短缓存）
func (h *Handler) RemoteTop(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))

	cacheKey := fmt.Sprintf("jikan:top:%d", limit)
	if cached, ok := utils.CacheGet(cacheKey); ok {
		utils.Success(c, cached)
		return
	}

	list, err := h.Jikan.FetchTop(c.Request.Context(), limit)
	if err != nil {
		h.remoteError(c, err)
		return
	}

	utils.CacheSet(cacheKey, list, 5*time.Minute)
	utils.Success(c, list)
}

// RemoteSearch 远程搜索（客户端内部带 LRU 缓存与请求合并）
func (h *Handler) RemoteSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		utils.BadRequest(c, "缺少搜索关键词")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))

	list, err := h.Jikan.Search(c.Request.Context(), query, limit)
	if err != nil {
		h.remoteError(c, err)
		return
	}
	utils.Success(c, list)
}

// remoteError 远程目录错误统一转成对用户可见的非致命提示
func (h *Handler) remoteError(c *gin.Context, err error) {
	var remoteErr *service.RemoteError
	switch {
	case errors.Is(err, service.ErrRateLimited):
		utils.Error(c, 429, "远程目录繁忙，请稍后再试")
	case errors.As(err, &remoteErr):
		log.Printf("[Anime] 远程目录错误: %v", err)
		utils.BadGateway(c, "")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// 请求被客户端取消（比如搜索词已被替换），不再回写响应
		c.Abort()
	default:
		log.Printf("[Anime] 远程请求失败: %v", err)
		utils.BadGateway(c, "")
	}
}
