package service

import (
	"errors"
	"unicode/utf8"

	"askit-go/internal/model"
	"askit-go/internal/repository"
	"askit-go/pkg/log"
	"askit-go/pkg/tasks"
)

// 问题创建时的内容约束。已入库的旧数据不做追溯校验。
const (
	titleMinLen = 15
	titleMaxLen = 150
	bodyMinLen  = 30
	tagMinCount = 1
	tagMaxCount = 5
	tagMinLen   = 2
	tagMaxLen   = 20
)

// 内容校验与权限相关的哨兵错误。
var (
	ErrInvalidTitle = errors.New("title must be between 15 and 150 characters")
	ErrInvalidBody  = errors.New("question body must be at least 30 characters")
	ErrInvalidTags  = errors.New("question needs 1 to 5 tags of 2 to 20 characters each")
	ErrNotOwner     = errors.New("not the owner of this resource")
)

// IndexNotify 是向搜索索引管道投递变更通知的函数签名。
// 生产环境由 Kafka 生产者承接，测试中可替换为桩实现。
type IndexNotify func(task tasks.ContentIndexTask) error

// QuestionService 接口定义了问题相关的业务操作。
type QuestionService interface {
	Create(authorID uint, title, content string, tagList []string) (*model.Question, error)
	GetByID(id uint) (*model.Question, error)
	Update(id, userID uint, title, content string, tagList []string) (*model.Question, error)
	Delete(id, userID uint) error
	List(opts repository.QuestionListOptions) ([]model.Question, int64, error)
	ListByAuthor(authorID uint) ([]model.Question, error)
	// Vote 调整投票计数。direction 为 "up" 或 "down"，计数不会低于 0。
	Vote(id uint, direction string) (*model.Question, error)
}

type questionService struct {
	questionRepo repository.QuestionRepository
	notifyIndex  IndexNotify
}

// NewQuestionService 创建一个新的 QuestionService 实例。
func NewQuestionService(questionRepo repository.QuestionRepository, notifyIndex IndexNotify) QuestionService {
	return &questionService{
		questionRepo: questionRepo,
		notifyIndex:  notifyIndex,
	}
}

// validateQuestion 校验标题、正文与标签的长度约束。
func validateQuestion(title, content string, tagList []string) error {
	titleLen := utf8.RuneCountInString(title)
	if titleLen < titleMinLen || titleLen > titleMaxLen {
		return ErrInvalidTitle
	}
	if utf8.RuneCountInString(content) < bodyMinLen {
		return ErrInvalidBody
	}
	if len(tagList) < tagMinCount || len(tagList) > tagMaxCount {
		return ErrInvalidTags
	}
	for _, tag := range tagList {
		tagLen := utf8.RuneCountInString(tag)
		if tagLen < tagMinLen || tagLen > tagMaxLen {
			return ErrInvalidTags
		}
	}
	return nil
}

// Create 校验并创建问题，随后向索引管道投递变更。
func (s *questionService) Create(authorID uint, title, content string, tagList []string) (*model.Question, error) {
	if err := validateQuestion(title, content, tagList); err != nil {
		return nil, err
	}

	question := &model.Question{
		Title:    title,
		Content:  content,
		AuthorID: authorID,
	}
	question.SetTags(tagList)

	if err := s.questionRepo.Create(question); err != nil {
		return nil, err
	}

	s.notify(tasks.ContentIndexTask{Action: tasks.ActionIndex, QuestionID: question.ID})
	return question, nil
}

// GetByID 查找问题并将浏览计数加一。
func (s *questionService) GetByID(id uint) (*model.Question, error) {
	question, err := s.questionRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.questionRepo.IncrementViewCount(id); err != nil {
		// 浏览计数失败不影响读取本身
		log.Warnf("递增浏览计数失败, questionID=%d: %v", id, err)
	} else {
		question.ViewCount++
	}
	return question, nil
}

// Update 校验所有权后更新问题内容。
func (s *questionService) Update(id, userID uint, title, content string, tagList []string) (*model.Question, error) {
	question, err := s.questionRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if question.AuthorID != userID {
		return nil, ErrNotOwner
	}
	if err := validateQuestion(title, content, tagList); err != nil {
		return nil, err
	}

	question.Title = title
	question.Content = content
	question.SetTags(tagList)
	if err := s.questionRepo.Update(question); err != nil {
		return nil, err
	}

	s.notify(tasks.ContentIndexTask{Action: tasks.ActionIndex, QuestionID: question.ID})
	return question, nil
}

// Delete 校验所有权后删除问题及其答案，并从索引中移除。
func (s *questionService) Delete(id, userID uint) error {
	question, err := s.questionRepo.FindByID(id)
	if err != nil {
		return err
	}
	if question.AuthorID != userID {
		return ErrNotOwner
	}
	if err := s.questionRepo.Delete(id); err != nil {
		return err
	}

	s.notify(tasks.ContentIndexTask{Action: tasks.ActionDelete, QuestionID: id})
	return nil
}

// List 按筛选条件分页检索问题。
func (s *questionService) List(opts repository.QuestionListOptions) ([]model.Question, int64, error) {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	return s.questionRepo.List(opts)
}

// ListByAuthor 检索指定用户提出的问题。
func (s *questionService) ListByAuthor(authorID uint) ([]model.Question, error) {
	return s.questionRepo.FindByAuthor(authorID)
}

// Vote 调整投票并返回更新后的问题。
func (s *questionService) Vote(id uint, direction string) (*model.Question, error) {
	delta := 1
	if direction == "down" {
		delta = -1
	}
	if err := s.questionRepo.AddVote(id, delta); err != nil {
		return nil, err
	}

	question, err := s.questionRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	s.notify(tasks.ContentIndexTask{Action: tasks.ActionIndex, QuestionID: id})
	return question, nil
}

// notify 投递索引变更，失败只记录日志，不阻断主流程。
func (s *questionService) notify(task tasks.ContentIndexTask) {
	if s.notifyIndex == nil {
		return
	}
	if err := s.notifyIndex(task); err != nil {
		log.Errorf("投递索引任务失败, action=%s, questionID=%d: %v", task.Action, task.QuestionID, err)
	}
}
