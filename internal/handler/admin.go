package handler

import (
	"errors"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/aniview/internal/model"
	"github.com/user/aniview/internal/repository"
	"github.com/user/aniview/internal/service"
	"github.com/user/aniview/internal/storage"
	"github.com/user/aniview/internal/utils"
)

// ==================== 管理后台 ====================

// animeCreateRequest 手工建条目，标题与 MAL ID 必填
type animeCreateRequest struct {
	MalID    int     `json:"mal_id" binding:"required"`
	Title    string  `json:"title" binding:"required"`
	Synopsis string  `json:"synopsis"`
	Score    float64 `json:"score" binding:"omitempty,gte=0,lte=10"`
	Genres   string  `json:"genres"`
	ImageURL string  `json:"image_url" binding:"omitempty,url"`
}

// AdminAnimeCreate 创建条目
func (h *Handler) AdminAnimeCreate(c *gin.Context) {
	var req animeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, bindError(err))
		return
	}

	anime := &model.Anime{
		MalID:    req.MalID,
		Title:    req.Title,
		Synopsis: req.Synopsis,
		Score:    req.Score,
		Genres:   req.Genres,
		ImageURL: req.ImageURL,
	}

	if err := h.Repos.Anime.Create(anime); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			utils.Error(c, 409, "该 MAL ID 已存在")
			return
		}
		log.Printf("[Admin] 创建条目失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}

	utils.Success(c, anime)
}

// AdminAnimeUpdate 部分更新条目
func (h *Handler) AdminAnimeUpdate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的 ID")
		return
	}

	var patch model.AnimePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.BadRequest(c, bindError(err))
		return
	}

	if err := h.Repos.Anime.Update(uint(id), &patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.NotFound(c, "条目不存在")
			return
		}
		log.Printf("[Admin] 更新条目失败 (ID: %d): %v", id, err)
		utils.InternalServerError(c, "")
		return
	}

	anime, _ := h.Repos.Anime.FindByID(uint(id))
	utils.Success(c, anime)
}

// AdminAnimeDelete 删除条目。目标已不存在也算成功，
// 两个管理会话并发删除不互相报错
func (h *Handler) AdminAnimeDelete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的 ID")
		return
	}

	if err := h.Repos.Anime.Delete(uint(id)); err != nil {
		log.Printf("[Admin] 删除条目失败 (ID: %d): %v", id, err)
		utils.InternalServerError(c, "")
		return
	}

	utils.Success(c, nil)
}

// AdminVideoUpload 上传视频并绑定到条目
func (h *Handler) AdminVideoUpload(c *gin.Context) {
	h.uploadMedia(c, "video", func(url string) *model.AnimePatch {
		return &model.AnimePatch{VideoURL: &url}
	})
}

// AdminImageUpload 上传封面图并绑定到条目
func (h *Handler) AdminImageUpload(c *gin.Context) {
	h.uploadMedia(c, "image", func(url string) *model.AnimePatch {
		return &model.AnimePatch{ImageURL: &url}
	})
}

// uploadMedia 媒体上传公共流程：落到存储后把公开地址写回条目
func (h *Handler) uploadMedia(c *gin.Context, field string, patchOf func(url string) *model.AnimePatch) {
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
		utils.NotFound(c, "条目不存在")
		return
	}

	file, err := c.FormFile(field)
	if err != nil {
		utils.BadRequest(c, "缺少上传文件")
		return
	}

	src, err := file.Open()
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}
	defer src.Close()

	key := storage.BuildKey(anime.ID, file.Filename)
	url, err := h.Media.Save(c.Request.Context(), key, file.Header.Get("Content-Type"), src)
	if err != nil {
		log.Printf("[Admin] 上传媒体失败 (ID: %d, %s): %v", id, field, err)
		utils.InternalServerError(c, "上传失败，请重试")
		return
	}

	if err := h.Repos.Anime.Update(anime.ID, patchOf(url)); err != nil {
		// 条目在上传期间被删了，回收已写入的文件
		if cleanupErr := h.Media.Delete(c.Request.Context(), key); cleanupErr != nil {
			log.Printf("[Admin] 清理孤儿文件失败 (%s): %v", key, cleanupErr)
		}
		utils.InternalServerError(c, "绑定媒体失败")
		return
	}

	utils.Success(c, gin.H{field + "_url": url})
}

// AdminAnimeEnrich 抓取 MAL 页面回填简介并生成向量
func (h *Handler) AdminAnimeEnrich(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的 ID")
		return
	}

	anime, err := h.Enrich.Enrich(uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.NotFound(c, "条目不存在")
			return
		}
		log.Printf("[Admin] 补全条目失败 (ID: %d): %v", id, err)
		utils.InternalServerError(c, "")
		return
	}

	utils.Success(c, anime)
}

// AdminSyncFetch 同步远程榜单（逐条探测插入）
func (h *Handler) AdminSyncFetch(c *gin.Context) {
	result, err := h.Sync.FetchTop(c.Request.Context())
	if err != nil {
		h.syncError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "同步完成", result)
}

// AdminSyncCheck 检查新番（一次性取已知 ID 集合再比对）
func (h *Handler) AdminSyncCheck(c *gin.Context) {
	result, err := h.Sync.CheckNew(c.Request.Context())
	if err != nil {
		h.syncError(c, err)
		return
	}

	if result.Inserted == 0 {
		utils.SuccessWithMessage(c, "没有发现新番", result)
		return
	}
	utils.SuccessWithMessage(c, "发现新番", result)
}

// syncError 同步整体失败：远程不可用与服务内部错误分开提示
func (h *Handler) syncError(c *gin.Context, err error) {
	var remoteErr *service.RemoteError
	switch {
	case errors.Is(err, service.ErrRateLimited):
		utils.Error(c, 429, "远程目录繁忙，请稍后再试")
	case errors.As(err, &remoteErr):
		utils.BadGateway(c, "")
	default:
		log.Printf("[Admin] 同步失败: %v", err)
		utils.InternalServerError(c, "")
	}
}

// adminUserInfo 用户管理列表项
type adminUserInfo struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// AdminUsers 用户列表（带角色）
func (h *Handler) AdminUsers(c *gin.Context) {
	users, err := h.Repos.User.ListAll()
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}

	out := make([]adminUserInfo, 0, len(users))
	for _, u := range users {
		role, err := h.Repos.Profile.RoleOf(u.ID)
		if err != nil {
			role = model.RoleUser
		}
		out = append(out, adminUserInfo{
			ID:        u.ID,
			Email:     u.Email,
			Username:  u.Username,
			Role:      role,
			CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	utils.Success(c, out)
}

type roleUpdateRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

// AdminUserRole 调整用户角色
func (h *Handler) AdminUserRole(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "无效的 ID")
		return
	}

	var req roleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, bindError(err))
		return
	}

	user, err := h.Repos.User.FindByID(id)
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}
	if user == nil {
		utils.NotFound(c, "用户不存在")
		return
	}

	if err := h.Repos.Profile.SetRole(id, req.Role); err != nil {
		log.Printf("[Admin] 更新角色失败 (user: %d): %v", id, err)
		utils.InternalServerError(c, "")
		return
	}

	utils.Success(c, gin.H{"user_id": id, "role": req.Role})
}

// AdminStats 后台统计
func (h *Handler) AdminStats(c *gin.Context) {
	animeCount, _ := h.Repos.Anime.Count()
	userCount, _ := h.Repos.User.Count()

	utils.Success(c, gin.H{
		"anime_count": animeCount,
		"user_count":  userCount,
	})
}
