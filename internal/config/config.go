package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	JWTExpiry   time.Duration
	Port        string
	SiteName    string
	SiteUrl     string

	// 远程番剧目录（Jikan）
	JikanBaseURL  string
	SyncBatchSize int

	// 跨域：SPA 前端地址
	CORSOrigins []string

	// 媒体存储
	StorageDriver  string // local | gcs
	MediaDir       string
	MediaBaseURL   string
	GCSBucket      string
	GCSCredentials string
}

// Load 加载配置
func Load() *Config {
	expiryHours, _ := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "72"))
	batchSize, _ := strconv.Atoi(getEnv("SYNC_BATCH_SIZE", "12"))

	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "aniview")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", "your-secret-key-change-in-production"))

	if getEnv("APP_ENV", "development") == "production" && appSecret == "your-secret-key-change-in-production" {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	siteUrl := getEnv("SITE_URL", "http://localhost:5006")

	return &Config{
		Env:         getEnv("APP_ENV", "development"),
		AppSecret:   appSecret,
		DatabaseURL: dbURL,
		JWTExpiry:   time.Duration(expiryHours) * time.Hour,
		Port:        getEnv("PORT", "5006"),
		SiteName:    getEnv("SITE_NAME", "AniView"),
		SiteUrl:     siteUrl,

		JikanBaseURL:  getEnv("JIKAN_BASE_URL", "https://api.jikan.moe/v4"),
		SyncBatchSize: batchSize,

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		StorageDriver:  getEnv("STORAGE_DRIVER", "local"),
		MediaDir:       getEnv("MEDIA_DIR", "./data/media"),
		MediaBaseURL:   getEnv("MEDIA_BASE_URL", siteUrl+"/media"),
		GCSBucket:      getEnv("GCS_BUCKET", ""),
		GCSCredentials: getEnv("GCS_CREDENTIALS_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
