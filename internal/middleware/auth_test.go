package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/user/aniview/internal/model"
	"github.com/user/aniview/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func newProfileRepo(t *testing.T) *repository.ProfileRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("迁移测试表结构失败: %v", err)
	}
	return repository.NewProfileRepository(db)
}

func newAdminRouter(profiles *repository.ProfileRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	admin := r.Group("/admin")
	admin.Use(RequireAuth(testSecret))
	admin.Use(RequireAdmin(profiles))
	admin.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": c.GetString("role")})
	})
	return r
}

func doRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAdmin(t *testing.T) {
	profiles := newProfileRepo(t)
	r := newAdminRouter(profiles)

	token, err := GenerateToken(1, "a@example.com", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	t.Run("未登录返回 401", func(t *testing.T) {
		if w := doRequest(r, ""); w.Code != http.StatusUnauthorized {
			t.Fatalf("期望 401，实际 %d", w.Code)
		}
	})

	t.Run("无效 Token 返回 401", func(t *testing.T) {
		if w := doRequest(r, "not-a-token"); w.Code != http.StatusUnauthorized {
			t.Fatalf("期望 401，实际 %d", w.Code)
		}
	})

	t.Run("没有资料记录按普通用户拒绝", func(t *testing.T) {
		// 资料缺失不报错，按普通用户处理
		if w := doRequest(r, token); w.Code != http.StatusForbidden {
			t.Fatalf("期望 403，实际 %d", w.Code)
		}
	})

	t.Run("普通用户拒绝", func(t *testing.T) {
		if err := profiles.SetRole(1, model.RoleUser); err != nil {
			t.Fatalf("SetRole 失败: %v", err)
		}
		if w := doRequest(r, token); w.Code != http.StatusForbidden {
			t.Fatalf("期望 403，实际 %d", w.Code)
		}
	})

	t.Run("管理员放行", func(t *testing.T) {
		if err := profiles.SetRole(1, model.RoleAdmin); err != nil {
			t.Fatalf("SetRole 失败: %v", err)
		}
		w := doRequest(r, token)
		if w.Code != http.StatusOK {
			t.Fatalf("期望 200，实际 %d %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), `"role":"admin"`) {
			t.Fatalf("上下文缺少角色: %s", w.Body.String())
		}
	})

	t.Run("改回普通用户即时生效", func(t *testing.T) {
		// 角色不进 Token，同一个 Token 立即失去管理权限
		if err := profiles.SetRole(1, model.RoleUser); err != nil {
			t.Fatalf("SetRole 失败: %v", err)
		}
		if w := doRequest(r, token); w.Code != http.StatusForbidden {
			t.Fatalf("期望 403，实际 %d", w.Code)
		}
	})
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(7, "b@example.com", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireAuth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"user_id":7`) {
		t.Fatalf("Token 往返失败: %d %s", w.Code, w.Body.String())
	}
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", OptionalAuth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})

	// 未登录照常放行，用户 ID 为 0
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"user_id":0`) {
		t.Fatalf("匿名访问失败: %d %s", w.Code, w.Body.String())
	}
}

func TestShouldRefresh(t *testing.T) {
	mkClaims := func(issuedAgo, validFor time.Duration) *Claims {
		issued := time.Now().Add(-issuedAgo)
		return &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(issued),
				ExpiresAt: jwt.NewNumericDate(issued.Add(validFor)),
			},
		}
	}

	if shouldRefresh(mkClaims(10*time.Minute, time.Hour)) {
		t.Fatal("有效期消耗不足一半不应刷新")
	}
	if !shouldRefresh(mkClaims(40*time.Minute, time.Hour)) {
		t.Fatal("有效期消耗过半应当刷新")
	}
	if shouldRefresh(&Claims{}) {
		t.Fatal("缺少时间声明不应刷新")
	}
}
