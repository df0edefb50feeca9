package handler

import (
	"errors"
	"testing"

	"github.com/user/aniview/internal/model"
	"github.com/user/aniview/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestHandler(t *testing.T) *Handler {
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
	return &Handler{Repos: repository.NewRepositories(db)}
}

func TestResolveAnime(t *testing.T) {
	h := newTestHandler(t)

	seeded := &model.Anime{MalID: 1, Title: "Cowboy Bebop"}
	if err := h.Repos.Anime.Create(seeded); err != nil {
		t.Fatalf("准备数据失败: %v", err)
	}

	t.Run("anime_id 直接命中本地条目", func(t *testing.T) {
		anime, err := h.resolveAnime(&favoriteAddRequest{AnimeID: &seeded.ID})
		if err != nil {
			t.Fatalf("resolveAnime 失败: %v", err)
		}
		if anime.ID != seeded.ID {
			t.Fatalf("命中了错误的条目: %d", anime.ID)
		}
	})

	t.Run("anime_id 不存在返回 ErrNotFound", func(t *testing.T) {
		missing := uint(99999)
		_, err := h.resolveAnime(&favoriteAddRequest{AnimeID: &missing})
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("期望 ErrNotFound，实际 %v", err)
		}
	})

	t.Run("mal_id 命中已有条目不再物化", func(t *testing.T) {
		anime, err := h.resolveAnime(&favoriteAddRequest{MalID: 1, Title: "ignored"})
		if err != nil {
			t.Fatalf("resolveAnime 失败: %v", err)
		}
		if anime.ID != seeded.ID || anime.Title != "Cowboy Bebop" {
			t.Fatalf("已有条目被覆盖: %+v", anime)
		}
	})

	t.Run("缺失的远程条目先落到本地目录", func(t *testing.T) {
		anime, err := h.resolveAnime(&favoriteAddRequest{
			MalID:    5114,
			Title:    "Fullmetal Alchemist: Brotherhood",
			Score:    9.1,
			Genres:   "Action/Adventure",
			ImageURL: "http://img/fma.jpg",
		})
		if err != nil {
			t.Fatalf("物化失败: %v", err)
		}
		if anime.ID == 0 {
			t.Fatal("物化条目未分配本地 ID")
		}

		// 条目确实进了本地目录
		stored, err := h.Repos.Anime.FindByMalID(5114)
		if err != nil || stored == nil {
			t.Fatalf("物化后探测失败: %v", err)
		}
		if stored.ID != anime.ID {
			t.Fatalf("物化条目与目录记录不一致: %d vs %d", stored.ID, anime.ID)
		}
	})

	t.Run("两个参数都缺返回可读错误", func(t *testing.T) {
		_, err := h.resolveAnime(&favoriteAddRequest{})
		var badReq *badRequestError
		if !errors.As(err, &badReq) {
			t.Fatalf("期望 badRequestError，实际 %v", err)
		}
	})

	t.Run("物化缺标题返回可读错误", func(t *testing.T) {
		_, err := h.resolveAnime(&favoriteAddRequest{MalID: 777})
		var badReq *badRequestError
		if !errors.As(err, &badReq) {
			t.Fatalf("期望 badRequestError，实际 %v", err)
		}
	})
}

func TestFavoriteEnsureThenLink(t *testing.T) {
	h := newTestHandler(t)

	// 物化加收藏做两次，目录与收藏都不产生重复
	req := &favoriteAddRequest{MalID: 1, Title: "Cowboy Bebop"}
	for i := 0; i < 2; i++ {
		anime, err := h.resolveAnime(req)
		if err != nil {
			t.Fatalf("第 %d 次 resolveAnime 失败: %v", i+1, err)
		}
		if err := h.Repos.Favorite.Add(1, anime.ID); err != nil {
			t.Fatalf("第 %d 次收藏失败: %v", i+1, err)
		}
	}

	count, err := h.Repos.Favorite.CountByUser(1)
	if err != nil {
		t.Fatalf("CountByUser 失败: %v", err)
	}
	if count != 1 {
		t.Fatalf("期望 1 条收藏，实际 %d", count)
	}

	animes, err := h.Repos.Anime.List()
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(animes) != 1 {
		t.Fatalf("目录出现重复条目: %d", len(animes))
	}
}
