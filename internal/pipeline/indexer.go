// Package pipeline 定义了内容索引同步的核心流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"askit-go/internal/config"
	"askit-go/internal/model"
	"askit-go/internal/repository"
	"askit-go/pkg/es"
	"askit-go/pkg/log"
	"askit-go/pkg/tasks"

	"gorm.io/gorm"
)

// Indexer 消费 Kafka 上的内容变更任务，把问题文档同步进 Elasticsearch。
// 问题或答案的任何写入都会触发一条任务；索引是最终一致的。
type Indexer struct {
	esCfg        config.ElasticsearchConfig
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
}

// NewIndexer 创建一个新的 Indexer 实例。
func NewIndexer(
	esCfg config.ElasticsearchConfig,
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
) *Indexer {
	return &Indexer{
		esCfg:        esCfg,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
	}
}

// Process 处理一条索引任务，实现 kafka.TaskProcessor 接口。
func (p *Indexer) Process(ctx context.Context, task tasks.ContentIndexTask) error {
	log.Infof("[Indexer] 处理索引任务, action=%s, questionID=%d", task.Action, task.QuestionID)

	if task.Action == tasks.ActionDelete {
		return es.DeleteQuestion(ctx, p.esCfg.IndexName, task.QuestionID)
	}

	question, err := p.questionRepo.FindByID(task.QuestionID)
	if err != nil {
		// 消费到任务时问题可能已被删除，按删除处理保持索引收敛
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Indexer] 问题已不存在，转为删除索引, questionID=%d", task.QuestionID)
			return es.DeleteQuestion(ctx, p.esCfg.IndexName, task.QuestionID)
		}
		return fmt.Errorf("读取问题失败: %w", err)
	}

	answerCount, err := p.answerRepo.CountByQuestionID(question.ID)
	if err != nil {
		return fmt.Errorf("统计答案数量失败: %w", err)
	}

	doc := model.QuestionDocument{
		QuestionID:  strconv.FormatUint(uint64(question.ID), 10),
		Title:       question.Title,
		Content:     question.Content,
		Tags:        question.TagList(),
		AuthorID:    question.AuthorID,
		VoteCount:   question.VoteCount,
		AnswerCount: int(answerCount),
		CreatedAt:   question.CreatedAt,
	}
	return es.IndexQuestion(ctx, p.esCfg.IndexName, doc)
}
