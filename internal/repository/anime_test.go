package repository

import (
	"errors"
	"testing"

	"github.com/user/aniview/internal/model"
)

func TestAnimeRepositoryProbe(t *testing.T) {
	repo := NewAnimeRepository(newTestDB(t))

	t.Run("不存在的本地 ID 返回 nil, nil", func(t *testing.T) {
		anime, err := repo.FindByID(42)
		if err != nil {
			t.Fatalf("FindByID 返回错误: %v", err)
		}
		if anime != nil {
			t.Fatalf("期望 nil，实际 %+v", anime)
		}
	})

	t.Run("不存在的 MAL ID 返回 nil, nil", func(t *testing.T) {
		anime, err := repo.FindByMalID(99999)
		if err != nil {
			t.Fatalf("FindByMalID 返回错误: %v", err)
		}
		if anime != nil {
			t.Fatalf("期望 nil，实际 %+v", anime)
		}
	})

	t.Run("存在的条目两种方式都能找到", func(t *testing.T) {
		created := &model.Anime{MalID: 5114, Title: "Fullmetal Alchemist: Brotherhood"}
		if err := repo.Create(created); err != nil {
			t.Fatalf("Create 失败: %v", err)
		}

		byID, err := repo.FindByID(created.ID)
		if err != nil || byID == nil {
			t.Fatalf("FindByID 失败: %v, %+v", err, byID)
		}
		byMal, err := repo.FindByMalID(5114)
		if err != nil || byMal == nil {
			t.Fatalf("FindByMalID 失败: %v, %+v", err, byMal)
		}
		if byID.ID != byMal.ID {
			t.Fatalf("两种查询命中了不同记录: %d vs %d", byID.ID, byMal.ID)
		}
	})
}

func TestAnimeRepositoryCreateDuplicate(t *testing.T) {
	repo := NewAnimeRepository(newTestDB(t))

	if err := repo.Create(&model.Anime{MalID: 1, Title: "Cowboy Bebop"}); err != nil {
		t.Fatalf("首次插入失败: %v", err)
	}

	err := repo.Create(&model.Anime{MalID: 1, Title: "Cowboy Bebop (again)"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("期望 ErrDuplicate，实际 %v", err)
	}

	// 原记录不受影响
	anime, err := repo.FindByMalID(1)
	if err != nil || anime == nil {
		t.Fatalf("探测失败: %v", err)
	}
	if anime.Title != "Cowboy Bebop" {
		t.Fatalf("重复插入覆盖了原记录: %s", anime.Title)
	}
}

func TestAnimeRepositoryUpdate(t *testing.T) {
	repo := NewAnimeRepository(newTestDB(t))

	anime := &model.Anime{MalID: 20, Title: "Naruto", Score: 7.9}
	if err := repo.Create(anime); err != nil {
		t.Fatalf("Create 失败: %v", err)
	}

	t.Run("只更新给出的字段", func(t *testing.T) {
		score := 8.1
		if err := repo.Update(anime.ID, &model.AnimePatch{Score: &score}); err != nil {
			t.Fatalf("Update 失败: %v", err)
		}

		got, _ := repo.FindByID(anime.ID)
		if got.Score != 8.1 {
			t.Fatalf("分数未更新: %v", got.Score)
		}
		if got.Title != "Naruto" {
			t.Fatalf("未给出的字段被改动: %s", got.Title)
		}
	})

	t.Run("空补丁是空操作", func(t *testing.T) {
		if err := repo.Update(anime.ID, &model.AnimePatch{}); err != nil {
			t.Fatalf("空补丁应当成功: %v", err)
		}
	})

	t.Run("目标不存在返回 ErrNotFound", func(t *testing.T) {
		title := "missing"
		err := repo.Update(99999, &model.AnimePatch{Title: &title})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("期望 ErrNotFound，实际 %v", err)
		}
	})
}

func TestAnimeRepositoryDeleteIdempotent(t *testing.T) {
	repo := NewAnimeRepository(newTestDB(t))

	anime := &model.Anime{MalID: 30, Title: "Neon Genesis Evangelion"}
	if err := repo.Create(anime); err != nil {
		t.Fatalf("Create 失败: %v", err)
	}

	if err := repo.Delete(anime.ID); err != nil {
		t.Fatalf("首次删除失败: %v", err)
	}
	// 再删一次不报错
	if err := repo.Delete(anime.ID); err != nil {
		t.Fatalf("重复删除应当成功: %v", err)
	}

	got, err := repo.FindByID(anime.ID)
	if err != nil || got != nil {
		t.Fatalf("删除后仍能查到: %v, %+v", err, got)
	}
}

func TestAnimeRepositoryList(t *testing.T) {
	repo := NewAnimeRepository(newTestDB(t))

	for _, a := range []*model.Anime{
		{MalID: 3, Title: "Steins;Gate"},
		{MalID: 1, Title: "Akira"},
		{MalID: 2, Title: "Monster"},
	} {
		if err := repo.Create(a); err != nil {
			t.Fatalf("Create 失败: %v", err)
		}
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("期望 3 条，实际 %d", len(list))
	}
	// 按标题排序
	want := []string{"Akira", "Monster", "Steins;Gate"}
	for i, title := range want {
		if list[i].Title != title {
			t.Fatalf("第 %d 条期望 %s，实际 %s", i, title, list[i].Title)
		}
	}
}

func TestAnimeRepositoryListMalIDs(t *testing.T) {
	repo := NewAnimeRepository(newTestDB(t))

	ids, err := repo.ListMalIDs()
	if err != nil {
		t.Fatalf("空库 ListMalIDs 失败: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("空库应返回空集合: %v", ids)
	}

	for _, malID := range []int{10, 20, 30} {
		if err := repo.Create(&model.Anime{MalID: malID, Title: "t"}); err != nil {
			t.Fatalf("Create 失败: %v", err)
		}
	}

	ids, err = repo.ListMalIDs()
	if err != nil {
		t.Fatalf("ListMalIDs 失败: %v", err)
	}
	seen := make(map[int]bool)
	for _, id := range ids {
		seen[id] = true
	}
	for _, malID := range []int{10, 20, 30} {
		if !seen[malID] {
			t.Fatalf("缺少 MAL ID %d: %v", malID, ids)
		}
	}
}
