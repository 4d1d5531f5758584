package repository

import (
	"askit-go/internal/model"

	"gorm.io/gorm"
)

// AnswerRepository 接口定义了答案数据的持久化操作。
type AnswerRepository interface {
	Create(answer *model.Answer) error
	FindByID(id uint) (*model.Answer, error)
	Update(answer *model.Answer) error
	Delete(id uint) error
	// FindByQuestionID 返回指定问题的全部答案，已采纳的在前，其次按票数与时间倒序。
	FindByQuestionID(questionID uint) ([]model.Answer, error)
	// FindBestForQuestion 返回"最佳"答案：已采纳者优先，否则票数最高，
	// 票数相同时按入库顺序取最早一条。无答案时返回 gorm.ErrRecordNotFound。
	FindBestForQuestion(questionID uint) (*model.Answer, error)
	FindByAuthor(authorID uint) ([]model.Answer, error)
	CountByQuestionID(questionID uint) (int64, error)
	// AddVote 原子地调整投票计数，结果不会低于 0。
	AddVote(id uint, delta int) error
	// AcceptExclusive 在单个事务内先清除同一问题下所有答案的采纳标记，
	// 再为目标答案置位，保证"每个问题至多一条已采纳答案"在并发下依然成立。
	AcceptExclusive(questionID, answerID uint) error
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository 创建一个新的 AnswerRepository 实例。
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

// Create 在数据库中创建一条新的答案记录。
func (r *answerRepository) Create(answer *model.Answer) error {
	return r.db.Create(answer).Error
}

// FindByID 根据 ID 查找答案。
func (r *answerRepository) FindByID(id uint) (*model.Answer, error) {
	var answer model.Answer
	err := r.db.First(&answer, id).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// Update 更新一条已存在的答案记录。
func (r *answerRepository) Update(answer *model.Answer) error {
	return r.db.Save(answer).Error
}

// Delete 删除指定答案。
func (r *answerRepository) Delete(id uint) error {
	return r.db.Delete(&model.Answer{}, id).Error
}

// FindByQuestionID 按采纳状态、票数、创建时间倒序返回问题的全部答案。
func (r *answerRepository) FindByQuestionID(questionID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.Where("question_id = ?", questionID).
		Order("is_accepted DESC, vote_count DESC, created_at DESC").
		Find(&answers).Error
	return answers, err
}

// FindBestForQuestion 选取最佳答案，平票时以主键升序保持入库顺序。
func (r *answerRepository) FindBestForQuestion(questionID uint) (*model.Answer, error) {
	var answer model.Answer
	err := r.db.Where("question_id = ?", questionID).
		Order("is_accepted DESC, vote_count DESC, id ASC").
		First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// FindByAuthor 检索指定用户发布的所有答案，最新的在前。
func (r *answerRepository) FindByAuthor(authorID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.Where("author_id = ?", authorID).Order("created_at DESC").Find(&answers).Error
	return answers, err
}

// CountByQuestionID 统计问题的答案数量。
func (r *answerRepository) CountByQuestionID(questionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Answer{}).Where("question_id = ?", questionID).Count(&count).Error
	return count, err
}

// AddVote 原子地调整投票计数，用 GREATEST 保证不出现负数。
func (r *answerRepository) AddVote(id uint, delta int) error {
	return r.db.Model(&model.Answer{}).Where("id = ?", id).
		UpdateColumn("vote_count", gorm.Expr("GREATEST(CAST(vote_count AS SIGNED) + ?, 0)", delta)).Error
}

// AcceptExclusive 以清除-置位两步组成的事务完成采纳切换。
func (r *answerRepository) AcceptExclusive(questionID, answerID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Answer{}).
			Where("question_id = ?", questionID).
			UpdateColumn("is_accepted", false).Error; err != nil {
			return err
		}
		return tx.Model(&model.Answer{}).
			Where("id = ? AND question_id = ?", answerID, questionID).
			UpdateColumn("is_accepted", true).Error
	})
}
