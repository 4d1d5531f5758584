// Package service 提供了搜索相关的业务逻辑。
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"askit-go/internal/config"
	"askit-go/internal/model"
	"askit-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

// SearchService 接口定义了站内全文搜索操作。
// 注意：AI 应答管线的 Matcher 刻意不走这里，而是直接对内容库做
// 子串包含匹配，这是产品层面的既定行为，不是实现疏漏。
type SearchService interface {
	SearchQuestions(ctx context.Context, query string, limit int) ([]model.SearchResultDTO, error)
}

type searchService struct {
	esClient  *elasticsearch.Client
	esCfg     config.ElasticsearchConfig
	assembler ContextAssembler
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(esClient *elasticsearch.Client, esCfg config.ElasticsearchConfig) SearchService {
	return &searchService{
		esClient:  esClient,
		esCfg:     esCfg,
		assembler: NewContextAssembler(),
	}
}

// SearchQuestions 对问题索引做 multi_match 全文检索，标题权重加倍。
func (s *searchService) SearchQuestions(ctx context.Context, query string, limit int) ([]model.SearchResultDTO, error) {
	if limit <= 0 {
		limit = 10
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "content", "tags"},
			},
		},
		"size": limit,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(s.esCfg.IndexName),
		s.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.String())
	}

	var esResp struct {
		Hits struct {
			Hits []struct {
				Score  float64                `json:"_score"`
				Source model.QuestionDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	results := make([]model.SearchResultDTO, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		qid, err := strconv.ParseUint(hit.Source.QuestionID, 10, 64)
		if err != nil {
			log.Warnf("索引中存在非法的 question_id: %q", hit.Source.QuestionID)
			continue
		}
		results = append(results, model.SearchResultDTO{
			QuestionID:  uint(qid),
			Title:       hit.Source.Title,
			Snippet:     s.assembler.Preview(hit.Source.Content),
			Tags:        hit.Source.Tags,
			VoteCount:   hit.Source.VoteCount,
			AnswerCount: hit.Source.AnswerCount,
			Score:       hit.Score,
		})
	}
	return results, nil
}
