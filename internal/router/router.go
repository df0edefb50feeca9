package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/aniview/internal/handler"
	"github.com/user/aniview/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== 认证 ====================
	auth := r.Group("/auth")
	auth.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)
	}

	// ==================== 公开目录 API ====================
	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		api.GET("/anime", h.AnimeList)
		api.GET("/anime/:id", h.AnimeDetail)
		api.GET("/anime/:id/similar", h.AnimeSimilar)

		// 远程目录代理
		api.GET("/top", h.RemoteTop)
		api.GET("/search", h.RemoteSearch)
	}

	// ==================== 收藏（需要登录） ====================
	favorites := r.Group("/api/favorites")
	favorites.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		favorites.GET("", h.FavoriteList)
		favorites.GET("/:animeId", h.FavoriteCheck)
		favorites.POST("", h.FavoriteAdd)
		favorites.DELETE("/:animeId", h.FavoriteRemove)
	}

	// ==================== 管理后台 ====================
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuth(h.Config.AppSecret))
	admin.Use(middleware.RequireAdmin(h.Repos.Profile))
	{
		admin.POST("/anime", h.AdminAnimeCreate)
		admin.PATCH("/anime/:id", h.AdminAnimeUpdate)
		admin.DELETE("/anime/:id", h.AdminAnimeDelete)
		admin.POST("/anime/:id/video", h.AdminVideoUpload)
		admin.POST("/anime/:id/image", h.AdminImageUpload)
		admin.POST("/anime/:id/enrich", h.AdminAnimeEnrich)

		// 目录同步
		admin.POST("/sync/fetch", h.AdminSyncFetch)
		admin.POST("/sync/check", h.AdminSyncCheck)

		// 用户管理
		admin.GET("/users", h.AdminUsers)
		admin.PUT("/users/:id/role", h.AdminUserRole)
		admin.GET("/stats", h.AdminStats)
	}
}
