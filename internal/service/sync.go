package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/user/aniview/internal/model"
	"github.com/user/aniview/internal/repository"
)

// RemoteCatalog 同步所需的远程目录能力
type RemoteCatalog interface {
	FetchTop(ctx context.Context, limit int) ([]JikanAnime, error)
}

// AnimeStore 同步所需的本地存取能力
type AnimeStore interface {
	FindByMalID(malID int) (*model.Anime, error)
	Create(anime *model.Anime) error
	ListMalIDs() ([]int, error)
}

// SyncResult 一次同步的汇总结果
type SyncResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// SyncService 目录同步服务：从远程目录拉一批条目，合并进本地库且不产生重复
type SyncService struct {
	remote    RemoteCatalog
	animeRepo AnimeStore
	batchSize int
}

// NewSyncService 创建同步服务
func NewSyncService(remote RemoteCatalog, animeRepo AnimeStore, batchSize int) *SyncService {
	if batchSize <= 0 {
		batchSize = DefaultBatchLimit
	}
	return &SyncService{
		remote:    remote,
		animeRepo: animeRepo,
		batchSize: batchSize,
	}
}

// FetchTop 拉取榜单并逐条合并：按 mal_id 探测本地是否存在，缺失才插入
// 单条失败只记日志并计入 Skipped，批量拉取失败则整体失败
func (s *SyncService) FetchTop(ctx context.Context) (*SyncResult, error) {
	remoteList, err := s.remote.FetchTop(ctx, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("拉取远程榜单失败: %w", err)
	}

	result := &SyncResult{}
	for _, remote := range remoteList {
		existing, err := s.animeRepo.FindByMalID(remote.MalID)
		if err != nil {
			log.Printf("[Sync] 探测条目失败 (MalID: %d): %v", remote.MalID, err)
			result.Skipped++
			continue
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		s.insert(remote, result)
	}

	log.Printf("[Sync] 榜单同步完成: 新增 %d 条，跳过 %d 条", result.Inserted, result.Skipped)
	return result, nil
}

// CheckNew "检查新番"变体：先用一次查询取出全部已知 mal_id，
// 再只插入集合之外的条目，避免逐条探测
func (s *SyncService) CheckNew(ctx context.Context) (*SyncResult, error) {
	knownIDs, err := s.animeRepo.ListMalIDs()
	if err != nil {
		return nil, fmt.Errorf("读取已知条目失败: %w", err)
	}
	known := make(map[int]struct{}, len(knownIDs))
	for _, id := range knownIDs {
		known[id] = struct{}{}
	}

	remoteList, err := s.remote.FetchTop(ctx, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("拉取远程榜单失败: %w", err)
	}

	result := &SyncResult{}
	for _, remote := range remoteList {
		if _, ok := known[remote.MalID]; ok {
			result.Skipped++
			continue
		}
		s.insert(remote, result)
	}

	log.Printf("[Sync] 检查新番完成: 新增 %d 条，跳过 %d 条", result.Inserted, result.Skipped)
	return result, nil
}

// insert 插入一条远程条目。视频地址永远不从远程来，只能由管理员上传。
// 唯一约束冲突说明别的会话已经插入，按跳过处理
func (s *SyncService) insert(remote JikanAnime, result *SyncResult) {
	anime := MapRemoteAnime(remote)
	if err := s.animeRepo.Create(anime); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			log.Printf("[Sync] 插入条目失败 (MalID: %d, %s): %v", remote.MalID, remote.Title, err)
		}
		result.Skipped++
		return
	}
	result.Inserted++
}

// MapRemoteAnime 远程条目到本地模型的字段映射
func MapRemoteAnime(remote JikanAnime) *model.Anime {
	genres := make([]string, 0, len(remote.Genres))
	for _, g := range remote.Genres {
		genres = append(genres, g.Name)
	}

	imageURL := remote.Images.JPG.LargeImageURL
	if imageURL == "" {
		imageURL = remote.Images.JPG.ImageURL
	}

	return &model.Anime{
		MalID:     remote.MalID,
		Title:     remote.Title,
		Synopsis:  remote.Synopsis,
		Score:     remote.Score,
		Genres:    strings.Join(genres, "/"),
		ImageURL:  imageURL,
		UpdatedAt: time.Now(),
	}
}
