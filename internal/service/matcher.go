// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"strings"

	"askit-go/internal/model"
	"askit-go/internal/repository"

	"gorm.io/gorm"
)

// ErrEmptyQuery 表示查询为空。空串是任何文本的子串，放任不管会
// 命中库里的第一条问题，这里选择显式拒绝而不是保留这种穿透。
var ErrEmptyQuery = errors.New("query must not be empty")

// MatchResult 是一次匹配的结果。Question 为 nil 表示未命中；
// 命中但 Answer 为 nil 表示该问题暂无答案。
type MatchResult struct {
	Question *model.Question
	Answer   *model.Answer
}

// Found 报告是否匹配到了问题。
func (m MatchResult) Found() bool {
	return m.Question != nil
}

// Matcher 为自由文本查询挑选相关的已有内容。
type Matcher interface {
	Match(query string) (MatchResult, error)
}

type matcher struct {
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
}

// NewMatcher 创建一个新的 Matcher 实例。
func NewMatcher(questionRepo repository.QuestionRepository, answerRepo repository.AnswerRepository) Matcher {
	return &matcher{
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
	}
}

// Match 对全部问题做大小写不敏感的子串包含匹配。
// 候选只过滤不排序：入库顺序中的第一条即为"最佳"匹配。
// 命中问题后挑选其最佳答案：已采纳者优先，否则票数最高。
func (s *matcher) Match(query string) (MatchResult, error) {
	if strings.TrimSpace(query) == "" {
		return MatchResult{}, ErrEmptyQuery
	}

	candidates, err := s.questionRepo.FindContaining(query)
	if err != nil {
		return MatchResult{}, err
	}
	if len(candidates) == 0 {
		return MatchResult{}, nil
	}

	best := candidates[0]
	result := MatchResult{Question: &best}

	answer, err := s.answerRepo.FindBestForQuestion(best.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, nil
		}
		return MatchResult{}, err
	}
	result.Answer = answer
	return result, nil
}
