package repository

import (
	"strings"

	"askit-go/internal/model"

	"gorm.io/gorm"
)

// QuestionListOptions 是问题列表查询的筛选与排序参数。
type QuestionListOptions struct {
	Limit  int
	Offset int
	Tag    string
	Search string
	Sort   string // latest 或 popular
}

// QuestionRepository 接口定义了问题数据的持久化操作。
type QuestionRepository interface {
	Create(question *model.Question) error
	FindByID(id uint) (*model.Question, error)
	Update(question *model.Question) error
	Delete(id uint) error
	List(opts QuestionListOptions) ([]model.Question, int64, error)
	FindByAuthor(authorID uint) ([]model.Question, error)
	// FindContaining 返回标题或正文（大小写不敏感）包含给定子串的所有问题，
	// 按主键升序（即入库顺序）返回。
	FindContaining(substr string) ([]model.Question, error)
	// FindRandom 随机抽取 n 条问题。
	FindRandom(n int) ([]model.Question, error)
	IncrementViewCount(id uint) error
	// AddVote 原子地调整投票计数，结果不会低于 0。
	AddVote(id uint, delta int) error
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository 创建一个新的 QuestionRepository 实例。
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

// Create 在数据库中创建一条新的问题记录。
func (r *questionRepository) Create(question *model.Question) error {
	return r.db.Create(question).Error
}

// FindByID 根据 ID 查找问题。
func (r *questionRepository) FindByID(id uint) (*model.Question, error) {
	var question model.Question
	err := r.db.First(&question, id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// Update 更新一条已存在的问题记录。
func (r *questionRepository) Update(question *model.Question) error {
	return r.db.Save(question).Error
}

// Delete 删除指定问题及其所有答案。
func (r *questionRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, id).Error
	})
}

// List 按筛选条件分页检索问题，返回当前页数据与总数。
func (r *questionRepository) List(opts QuestionListOptions) ([]model.Question, int64, error) {
	db := r.db.Model(&model.Question{})

	if opts.Tag != "" {
		// 标签以逗号分隔存储，用 FIND_IN_SET 做精确匹配
		db = db.Where("FIND_IN_SET(?, tags) > 0", opts.Tag)
	}
	if opts.Search != "" {
		pattern := "%" + strings.ToLower(opts.Search) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if opts.Sort == "popular" {
		db = db.Order("vote_count DESC")
	} else {
		db = db.Order("created_at DESC")
	}

	var questions []model.Question
	err := db.Offset(opts.Offset).Limit(opts.Limit).Find(&questions).Error
	if err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

// FindByAuthor 检索指定用户提出的所有问题，最新的在前。
func (r *questionRepository) FindByAuthor(authorID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.Where("author_id = ?", authorID).Order("created_at DESC").Find(&questions).Error
	return questions, err
}

// FindContaining 做大小写不敏感的子串包含匹配。
// 排序固定为主键升序：匹配是过滤而非排名，调用方取首条即为"最佳"。
func (r *questionRepository) FindContaining(substr string) ([]model.Question, error) {
	pattern := "%" + strings.ToLower(substr) + "%"
	var questions []model.Question
	err := r.db.
		Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern).
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}

// FindRandom 随机抽取 n 条问题。
func (r *questionRepository) FindRandom(n int) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.Order("RAND()").Limit(n).Find(&questions).Error
	return questions, err
}

// IncrementViewCount 原子地将浏览计数加一。
func (r *questionRepository) IncrementViewCount(id uint) error {
	return r.db.Model(&model.Question{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// AddVote 原子地调整投票计数，用 GREATEST 保证不出现负数。
func (r *questionRepository) AddVote(id uint, delta int) error {
	return r.db.Model(&model.Question{}).Where("id = ?", id).
		UpdateColumn("vote_count", gorm.Expr("GREATEST(CAST(vote_count AS SIGNED) + ?, 0)", delta)).Error
}
