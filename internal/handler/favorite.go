package handler

import (
	"errors"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/aniview/internal/middleware"
	"github.com/user/aniview/internal/model"
	"github.com/user/aniview/internal/repository"
	"github.com/user/aniview/internal/utils"
)

// favoriteAddRequest 收藏请求。本地条目给 anime_id；
// 远程条目给 mal_id 及展示字段，收藏前先落到本地目录
type favoriteAddRequest struct {
	AnimeID  *uint   `json:"anime_id"`
	MalID    int     `json:"mal_id"`
	Title    string  `json:"title"`
	Synopsis string  `json:"synopsis"`
	Score    float64 `json:"score" binding:"omitempty,gte=0,lte=10"`
	Genres   string  `json:"genres"`
	ImageURL string  `json:"image_url" binding:"omitempty,url"`
}

// FavoriteAdd 添加收藏（必要时先把远程条目物化进本地目录）
func (h *Handler) FavoriteAdd(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req favoriteAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, bindError(err))
		return
	}

	anime, err := h.resolveAnime(&req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.NotFound(c, "条目不存在")
			return
		}
		var badReq *badRequestError
		if errors.As(err, &badReq) {
			utils.BadRequest(c, badReq.message)
			return
		}
		log.Printf("[Favorite] 物化条目失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}

	// 重复收藏在仓库层静默成功
	if err := h.Repos.Favorite.Add(userID, anime.ID); err != nil {
		log.Printf("[Favorite] 添加收藏失败 (user: %d, anime: %d): %v", userID, anime.ID, err)
		utils.InternalServerError(c, "")
		return
	}

	utils.Success(c, gin.H{
		"anime_id":  anime.ID,
		"favorited": true,
	})
}

// FavoriteRemove 取消收藏（幂等）
func (h *Handler) FavoriteRemove(c *gin.Context) {
	userID := middleware.GetUserID(c)

	animeID, err := strconv.ParseUint(c.Param("animeId"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的 ID")
		return
	}

	if err := h.Repos.Favorite.Remove(userID, uint(animeID)); err != nil {
		log.Printf("[Favorite] 取消收藏失败 (user: %d, anime: %d): %v", userID, animeID, err)
		utils.InternalServerError(c, "")
		return
	}

	utils.Success(c, gin.H{
		"anime_id":  uint(animeID),
		"favorited": false,
	})
}

// FavoriteCheck 查询收藏状态
func (h *Handler) FavoriteCheck(c *gin.Context) {
	userID := middleware.GetUserID(c)

	animeID, err := strconv.ParseUint(c.Param("animeId"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的 ID")
		return
	}

	favorited, err := h.Repos.Favorite.IsFavorited(userID, uint(animeID))
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}

	utils.Success(c, gin.H{"favorited": favorited})
}

// FavoriteList 收藏列表
func (h *Handler) FavoriteList(c *gin.Context) {
	userID := middleware.GetUserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	favorites, err := h.Repos.Favorite.ListByUser(userID, limit, offset)
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}

	total, _ := h.Repos.Favorite.CountByUser(userID)

	utils.Success(c, gin.H{
		"items": favorites,
		"total": total,
	})
}

type badRequestError struct {
	message string
}

func (e *badRequestError) Error() string { return e.message }

// resolveAnime 定位收藏目标。给了 anime_id 直接查本地；
// 只有 mal_id 时先探测，缺失则用请求里的远程字段插入本地目录。
// 插入撞上唯一约束说明别的会话已物化，重新探测即可
func (h *Handler) resolveAnime(req *favoriteAddRequest) (*model.Anime, error) {
	if req.AnimeID != nil {
		anime, err := h.Repos.Anime.FindByID(*req.AnimeID)
		if err != nil {
			return nil, err
		}
		if anime == nil {
			return nil, repository.ErrNotFound
		}
		return anime, nil
	}

	if req.MalID <= 0 {
		return nil, &badRequestError{message: "需要 anime_id 或 mal_id"}
	}

	anime, err := h.Repos.Anime.FindByMalID(req.MalID)
	if err != nil {
		return nil, err
	}
	if anime != nil {
		return anime, nil
	}

	if req.Title == "" {
		return nil, &badRequestError{message: "物化远程条目需要 title"}
	}

	anime = &model.Anime{
		MalID:    req.MalID,
		Title:    req.Title,
		Synopsis: req.Synopsis,
		Score:    req.Score,
		Genres:   req.Genres,
		ImageURL: req.ImageURL,
	}
	if err := h.Repos.Anime.Create(anime); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return h.lookupAfterRace(req.MalID)
		}
		return nil, err
	}
	return anime, nil
}

func (h *Handler) lookupAfterRace(malID int) (*model.Anime, error) {
	anime, err := h.Repos.Anime.FindByMalID(malID)
	if err != nil {
		return nil, err
	}
	if anime == nil {
		return nil, repository.ErrNotFound
	}
	return anime, nil
}
