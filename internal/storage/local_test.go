package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorageSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "/media/")
	if err != nil {
		t.Fatalf("NewLocalStorage 失败: %v", err)
	}

	key := "7/abc-123.mp4"
	url, err := store.Save(context.Background(), key, "video/mp4", strings.NewReader("fake video"))
	if err != nil {
		t.Fatalf("Save 失败: %v", err)
	}
	if url != "/media/7/abc-123.mp4" {
		t.Fatalf("返回地址错误: %s", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "7", "abc-123.mp4"))
	if err != nil {
		t.Fatalf("读取落盘文件失败: %v", err)
	}
	if string(data) != "fake video" {
		t.Fatalf("文件内容错误: %s", data)
	}
}

func TestLocalStorageDeleteIdempotent(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("NewLocalStorage 失败: %v", err)
	}

	key := "1/x.mp4"
	if _, err := store.Save(context.Background(), key, "video/mp4", strings.NewReader("v")); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}

	if err := store.Delete(context.Background(), key); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	// 目标已不存在也不报错
	if err := store.Delete(context.Background(), key); err != nil {
		t.Fatalf("重复 Delete 应当成功: %v", err)
	}
}

func TestBuildKey(t *testing.T) {
	key := BuildKey(7, "My Video.MP4")

	if !strings.HasPrefix(key, "7/") {
		t.Fatalf("键应以条目 ID 开头: %s", key)
	}
	if !strings.HasSuffix(key, ".mp4") {
		t.Fatalf("扩展名应统一为小写: %s", key)
	}

	// 同名文件不互相覆盖
	if BuildKey(7, "My Video.MP4") == key {
		t.Fatal("两次生成的键不应相同")
	}
}
