package utils

import (
	"fmt"
	"testing"
	"time"
)

func TestSearchCacheTTL(t *testing.T) {
	cache := NewSearchCache[string](10, 20*time.Millisecond)

	cache.Set("k", "v")
	if got, ok := cache.Get("k"); !ok || got != "v" {
		t.Fatalf("写入后立即读取失败: %v, %v", got, ok)
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := cache.Get("k"); ok {
		t.Fatal("过期条目应按未命中处理")
	}
	if cache.Len() != 0 {
		t.Fatalf("过期条目未被清除: %d", cache.Len())
	}
}

func TestSearchCacheEviction(t *testing.T) {
	cache := NewSearchCache[int](3, time.Minute)

	for i := 0; i < 5; i++ {
		cache.Set(fmt.Sprintf("k%d", i), i)
	}

	if cache.Len() != 3 {
		t.Fatalf("容量限制失效: %d", cache.Len())
	}
	// 最早的键被淘汰
	if _, ok := cache.Get("k0"); ok {
		t.Fatal("最旧条目应被淘汰")
	}
	if got, ok := cache.Get("k4"); !ok || got != 4 {
		t.Fatalf("最新条目丢失: %v, %v", got, ok)
	}
}
