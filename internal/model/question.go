package model

import (
	"strings"
	"time"
)

// Question 对应于数据库中的 'questions' 表。
// Tags 以逗号分隔的字符串形式存储，读取时通过 TagList 还原为切片。
type Question struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Tags      string    `gorm:"type:varchar(255)" json:"-"`
	AuthorID  uint      `gorm:"index;not null" json:"authorId"`
	VoteCount int       `gorm:"not null;default:0" json:"voteCount"`
	ViewCount int       `gorm:"not null;default:0" json:"viewCount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Question) TableName() string {
	return "questions"
}

// TagList 将存储的标签字符串还原为切片。
func (q *Question) TagList() []string {
	if q.Tags == "" {
		return []string{}
	}
	return strings.Split(q.Tags, ",")
}

// SetTags 将标签切片序列化到存储字段。
func (q *Question) SetTags(tags []string) {
	q.Tags = strings.Join(tags, ",")
}

// QuestionDTO 是返回给前端的问题结构，标签展开为数组。
type QuestionDTO struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	AuthorID  uint      `json:"authorId"`
	VoteCount int       `json:"voteCount"`
	ViewCount int       `json:"viewCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToDTO 将问题模型转换为响应 DTO。
func (q *Question) ToDTO() QuestionDTO {
	return QuestionDTO{
		ID:        q.ID,
		Title:     q.Title,
		Content:   q.Content,
		Tags:      q.TagList(),
		AuthorID:  q.AuthorID,
		VoteCount: q.VoteCount,
		ViewCount: q.ViewCount,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}
