package handler

import (
	"errors"
	"log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/aniview/internal/middleware"
	"github.com/user/aniview/internal/model"
	"github.com/user/aniview/internal/repository"
	"github.com/user/aniview/internal/utils"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// authPayload 登录态响应
type authPayload struct {
	Token string      `json:"token"`
	User  sessionInfo `json:"user"`
}

type sessionInfo struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Register 注册
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, bindError(err))
		return
	}

	existing, err := h.Repos.User.FindByEmail(req.Email)
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}
	if existing != nil {
		utils.Error(c, 409, "该邮箱已被注册")
		return
	}

	user, err := h.Repos.User.Create(req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			utils.Error(c, 409, "邮箱或用户名已被占用")
			return
		}
		log.Printf("[Auth] 创建用户失败: %v", err)
		utils.InternalServerError(c, "注册失败，请重试")
		return
	}

	h.establishSession(c, user, model.RoleUser)
}

// Login 登录
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, bindError(err))
		return
	}

	user, err := h.Repos.User.FindByEmail(req.Email)
	if err != nil || user == nil {
		utils.Unauthorized(c, "邮箱或密码错误")
		return
	}

	if !h.Repos.User.CheckPassword(user, req.Password) {
		utils.Unauthorized(c, "邮箱或密码错误")
		return
	}

	role, err := h.Repos.Profile.RoleOf(user.ID)
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}

	h.establishSession(c, user, role)
}

// Logout 登出：清理 JWT Cookie 与 Session
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)

	session := sessions.Default(c)
	session.Clear()
	session.Save()

	utils.SuccessWithMessage(c, "已退出登录", nil)
}

// Me 当前登录态，SPA 启动和收到认证变更通知时调用
func (h *Handler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		utils.Success(c, gin.H{"authenticated": false})
		return
	}

	user, err := h.Repos.User.FindByID(userID)
	if err != nil || user == nil {
		utils.Success(c, gin.H{"authenticated": false})
		return
	}

	role, err := h.Repos.Profile.RoleOf(user.ID)
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}

	utils.Success(c, gin.H{
		"authenticated": true,
		"user": sessionInfo{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
			Role:     role,
		},
	})
}

// establishSession 下发 JWT Cookie 并写入 Session
func (h *Handler) establishSession(c *gin.Context, user *model.User, role string) {
	token, err := middleware.GenerateToken(user.ID, user.Email, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		log.Printf("[Auth] 生成 Token 失败: %v", err)
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}

	c.SetCookie("token", token, int(h.Config.JWTExpiry.Seconds()), "/", "", false, true)

	session := sessions.Default(c)
	session.Set("userinfo", model.SessionUser{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     role,
	})
	session.Save()

	utils.Success(c, authPayload{
		Token: token,
		User: sessionInfo{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
			Role:     role,
		},
	})
}
