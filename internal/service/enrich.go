package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pgvector/pgvector-go"
	"github.com/user/aniview/internal/model"
	"github.com/user/aniview/internal/repository"
	"github.com/user/aniview/internal/utils"
	"golang.org/x/sync/singleflight"
)

// EnrichService 条目补全服务：Jikan 简介缺失时抓取 MAL 详情页回填，
// 并生成语义向量用于相似推荐
type EnrichService struct {
	animeRepo *repository.AnimeRepository
	client    *utils.HTTPClient
	sf        singleflight.Group // 防止并发重复抓取同一条目
}

// NewEnrichService 创建补全服务
func NewEnrichService(animeRepo *repository.AnimeRepository) *EnrichService {
	return &EnrichService{
		animeRepo: animeRepo,
		client:    utils.NewHTTPClient(),
	}
}

// Enrich 补全单个条目，返回更新后的记录
func (s *EnrichService) Enrich(id uint) (*model.Anime, error) {
	val, err, _ := s.sf.Do(fmt.Sprintf("%d", id), func() (interface{}, error) {
		return s.enrichInternal(id)
	})
	if err != nil {
		return nil, err
	}
	return val.(*model.Anime), nil
}

func (s *EnrichService) enrichInternal(id uint) (*model.Anime, error) {
	anime, err := s.animeRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if anime == nil {
		return nil, repository.ErrNotFound
	}

	// 1. 简介缺失时抓取 MAL 详情页回填
	if strings.TrimSpace(anime.Synopsis) == "" {
		synopsis, err := s.scrapeSynopsis(anime.MalID)
		if err != nil {
			log.Printf("[Enrich] 抓取 MAL 页面失败 (MalID: %d): %v", anime.MalID, err)
		} else if synopsis != "" {
			patch := &model.AnimePatch{Synopsis: &synopsis}
			if err := s.animeRepo.Update(anime.ID, patch); err != nil {
				return nil, fmt.Errorf("回填简介失败: %w", err)
			}
			anime.Synopsis = synopsis
		}
	}

	// 2. 生成语义向量
	if err := s.buildEmbedding(anime); err != nil {
		// 向量缺失只影响相似推荐，不算补全失败
		log.Printf("[Enrich] 生成向量失败 (MalID: %d): %v", anime.MalID, err)
	}

	return anime, nil
}

// scrapeSynopsis 抓取 MAL 番剧详情页的简介段落
func (s *EnrichService) scrapeSynopsis(malID int) (string, error) {
	pageURL := fmt.Sprintf("https://myanimelist.net/anime/%d", malID)

	body, err := s.client.GetBody(pageURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("解析 HTML 失败: %w", err)
	}

	synopsis := strings.TrimSpace(doc.Find("p[itemprop='description']").First().Text())
	// MAL 在简介尾部追加的来源行不属于正文
	if idx := strings.LastIndex(synopsis, "[Written by"); idx > 0 {
		synopsis = strings.TrimSpace(synopsis[:idx])
	}
	return synopsis, nil
}

// buildEmbedding 拼接标题/类型/简介作为向量原文，调用 Ollama 生成并落库
func (s *EnrichService) buildEmbedding(anime *model.Anime) error {
	var parts []string
	if anime.Title != "" {
		parts = append(parts, anime.Title)
	}
	if anime.Genres != "" {
		parts = append(parts, anime.Genres)
	}
	if anime.Synopsis != "" {
		parts = append(parts, anime.Synopsis)
	}
	content := strings.Join(parts, "\n")
	if content == "" {
		return nil
	}

	vec, err := utils.GenerateEmbedding(content)
	if err != nil {
		return err
	}
	if len(vec) == 0 {
		return fmt.Errorf("ollama 返回空向量")
	}

	v := pgvector.NewVector(vec)
	return s.animeRepo.UpdateEmbedding(anime.ID, content, &v)
}
