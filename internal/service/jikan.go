package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/user/aniview/internal/utils"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const defaultJikanBase = "https://api.jikan.moe/v4"

// DefaultBatchLimit 单次拉取条数上限，与前端每页展示数一致
const DefaultBatchLimit = 12

// ErrRateLimited 上游持续限流，重试次数已用尽
var ErrRateLimited = errors.New("远程目录限流，重试已用尽")

// RemoteError 远程目录返回的非 2xx、非 429 响应，不重试
type RemoteError struct {
	StatusCode int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("远程目录返回状态码: %d", e.StatusCode)
}

// JikanAnime 远程番剧条目（Jikan v4 结构）
type JikanAnime struct {
	MalID  int    `json:"mal_id"`
	Title  string `json:"title"`
	Images struct {
		JPG struct {
			ImageURL      string `json:"image_url"`
			LargeImageURL string `json:"large_image_url"`
		} `json:"jpg"`
	} `json:"images"`
	Synopsis string  `json:"synopsis"`
	Score    float64 `json:"score"`
	Genres   []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

type jikanListResponse struct {
	Data []JikanAnime `json:"data"`
}

// JikanClient Jikan 只读目录客户端
// 429 按递增间隔重试（最多 3 次），其余非 2xx 立即失败；
// 限流器保证连续请求之间留出间隔，批量同步时不会打爆上游配额
type JikanClient struct {
	baseURL     string
	client      *http.Client
	limiter     *rate.Limiter
	retryBase   time.Duration
	maxAttempts int
	searchCache *utils.SearchCache[[]JikanAnime]
	sf          singleflight.Group
}

// NewJikanClient 创建客户端，baseURL 为空时使用官方地址
func NewJikanClient(baseURL string) *JikanClient {
	if baseURL == "" {
		baseURL = defaultJikanBase
	}
	return &JikanClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		// Jikan 公共实例限制约 3 req/s
		limiter:     rate.NewLimiter(rate.Every(400*time.Millisecond), 1),
		retryBase:   time.Second,
		maxAttempts: 3,
		searchCache: utils.NewSearchCache[[]JikanAnime](500, 10*time.Minute),
	}
}

// FetchTop 获取榜单前 limit 条
func (c *JikanClient) FetchTop(ctx context.Context, limit int) ([]JikanAnime, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	return c.getList(ctx, fmt.Sprintf("%s/top/anime?limit=%d", c.baseURL, limit))
}

// Search 按标题搜索，结果进 LRU 缓存；相同关键词的并发请求合并为一次
func (c *JikanClient) Search(ctx context.Context, query string, limit int) ([]JikanAnime, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	key := fmt.Sprintf("%s|%d", query, limit)
	if cached, ok := c.searchCache.Get(key); ok {
		return cached, nil
	}

	val, err, _ := c.sf.Do(key, func() (interface{}, error) {
		list, err := c.getList(ctx, fmt.Sprintf("%s/anime?q=%s&limit=%d", c.baseURL, url.QueryEscape(query), limit))
		if err != nil {
			return nil, err
		}
		c.searchCache.Set(key, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]JikanAnime), nil
}

// getList 带限流与重试的列表请求
// 第 i 次失败后等待 retryBase*i 再试；ctx 取消随时中止（搜索词被替换时
// 请求上下文取消，过期响应不会回到调用方）
func (c *JikanClient) getList(ctx context.Context, reqURL string) ([]JikanAnime, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		switch {
		case err != nil:
			// 网络层错误按瞬时故障处理，与 429 走同一条重试路径
			lastErr = fmt.Errorf("请求远程目录失败: %w", err)
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			lastErr = ErrRateLimited
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			resp.Body.Close()
			return nil, &RemoteError{StatusCode: resp.StatusCode}
		default:
			var out jikanListResponse
			err := json.NewDecoder(resp.Body).Decode(&out)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("解析远程目录响应失败: %w", err)
			}
			return out.Data, nil
		}

		if attempt < c.maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryBase * time.Duration(attempt)):
			}
		}
	}

	return nil, lastErr
}
