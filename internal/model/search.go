package model

import "time"

// QuestionDocument 代表存储在 Elasticsearch 中的问题文档结构。
type QuestionDocument struct {
	QuestionID  string    `json:"question_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	AuthorID    uint      `json:"author_id"`
	VoteCount   int       `json:"vote_count"`
	AnswerCount int       `json:"answer_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchResultDTO 定义了返回给前端的搜索结果结构。
type SearchResultDTO struct {
	QuestionID  uint     `json:"questionId"`
	Title       string   `json:"title"`
	Snippet     string   `json:"snippet"`
	Tags        []string `json:"tags"`
	VoteCount   int      `json:"voteCount"`
	AnswerCount int      `json:"answerCount"`
	Score       float64  `json:"score"`
}
