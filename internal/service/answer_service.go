package service

import (
	"errors"
	"strings"

	"askit-go/internal/model"
	"askit-go/internal/repository"
	"askit-go/pkg/log"
	"askit-go/pkg/tasks"
)

// 答案相关的哨兵错误。
var (
	ErrEmptyAnswer        = errors.New("answer content must not be empty")
	ErrNotQuestionAuthor  = errors.New("only the question author can accept an answer")
	ErrAnswerQuestionGone = errors.New("the question this answer belongs to no longer exists")
)

// AnswerService 接口定义了答案相关的业务操作。
type AnswerService interface {
	Create(questionID, authorID uint, content string) (*model.Answer, error)
	ListForQuestion(questionID uint) ([]model.Answer, error)
	ListByAuthor(authorID uint) ([]model.Answer, error)
	Update(id, userID uint, content string) (*model.Answer, error)
	Delete(id, userID uint) error
	Vote(id uint, direction string) (*model.Answer, error)
	// Accept 将指定答案标记为已采纳。只有所属问题的作者可以操作；
	// 切换在仓储层的单个事务内完成，保证同一问题至多一条已采纳答案。
	Accept(id, userID uint) (*model.Answer, error)
}

type answerService struct {
	answerRepo   repository.AnswerRepository
	questionRepo repository.QuestionRepository
	notifyIndex  IndexNotify
}

// NewAnswerService 创建一个新的 AnswerService 实例。
func NewAnswerService(answerRepo repository.AnswerRepository, questionRepo repository.QuestionRepository, notifyIndex IndexNotify) AnswerService {
	return &answerService{
		answerRepo:   answerRepo,
		questionRepo: questionRepo,
		notifyIndex:  notifyIndex,
	}
}

// Create 在校验所属问题存在后创建答案。
func (s *answerService) Create(questionID, authorID uint, content string) (*model.Answer, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyAnswer
	}
	if _, err := s.questionRepo.FindByID(questionID); err != nil {
		return nil, err
	}

	answer := &model.Answer{
		QuestionID: questionID,
		AuthorID:   authorID,
		Content:    content,
	}
	if err := s.answerRepo.Create(answer); err != nil {
		return nil, err
	}

	s.notify(questionID)
	return answer, nil
}

// ListForQuestion 返回问题的全部答案，已采纳的在前。
func (s *answerService) ListForQuestion(questionID uint) ([]model.Answer, error) {
	return s.answerRepo.FindByQuestionID(questionID)
}

// ListByAuthor 检索指定用户发布的答案。
func (s *answerService) ListByAuthor(authorID uint) ([]model.Answer, error) {
	return s.answerRepo.FindByAuthor(authorID)
}

// Update 校验所有权后更新答案内容。
func (s *answerService) Update(id, userID uint, content string) (*model.Answer, error) {
	answer, err := s.answerRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if answer.AuthorID != userID {
		return nil, ErrNotOwner
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyAnswer
	}

	answer.Content = content
	if err := s.answerRepo.Update(answer); err != nil {
		return nil, err
	}
	return answer, nil
}

// Delete 校验所有权后删除答案。
func (s *answerService) Delete(id, userID uint) error {
	answer, err := s.answerRepo.FindByID(id)
	if err != nil {
		return err
	}
	if answer.AuthorID != userID {
		return ErrNotOwner
	}
	if err := s.answerRepo.Delete(id); err != nil {
		return err
	}

	s.notify(answer.QuestionID)
	return nil
}

// Vote 调整投票并返回更新后的答案。
func (s *answerService) Vote(id uint, direction string) (*model.Answer, error) {
	delta := 1
	if direction == "down" {
		delta = -1
	}
	if err := s.answerRepo.AddVote(id, delta); err != nil {
		return nil, err
	}
	return s.answerRepo.FindByID(id)
}

// Accept 校验提问者身份后做独占式采纳切换。
func (s *answerService) Accept(id, userID uint) (*model.Answer, error) {
	answer, err := s.answerRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	question, err := s.questionRepo.FindByID(answer.QuestionID)
	if err != nil {
		return nil, ErrAnswerQuestionGone
	}
	if question.AuthorID != userID {
		return nil, ErrNotQuestionAuthor
	}

	if err := s.answerRepo.AcceptExclusive(answer.QuestionID, answer.ID); err != nil {
		return nil, err
	}
	return s.answerRepo.FindByID(id)
}

// notify 答案增删会改变索引文档中的答案计数。
func (s *answerService) notify(questionID uint) {
	if s.notifyIndex == nil {
		return
	}
	task := tasks.ContentIndexTask{Action: tasks.ActionIndex, QuestionID: questionID}
	if err := s.notifyIndex(task); err != nil {
		log.Errorf("投递索引任务失败, questionID=%d: %v", questionID, err)
	}
}
