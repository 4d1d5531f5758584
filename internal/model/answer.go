package model

import "time"

// Answer 对应于数据库中的 'answers' 表。
// 每条答案通过 QuestionID 弱引用其所属问题；同一问题下最多只有一条 IsAccepted=true。
type Answer struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionID uint      `gorm:"index;not null" json:"questionId"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	AuthorID   uint      `gorm:"index;not null" json:"authorId"`
	VoteCount  int       `gorm:"not null;default:0" json:"voteCount"`
	IsAccepted bool      `gorm:"not null;default:false" json:"isAccepted"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Answer) TableName() string {
	return "answers"
}
