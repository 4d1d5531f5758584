package model

import "time"

// 聊天消息的发送方。
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// 聊天消息的状态机：pending -> complete | failed。
const (
	StatusPending  = "pending"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// ChatMessage 代表会话中的一条消息。消息仅存在于会话的生命周期内，
// 通过 ID 寻址更新，绝不按位置索引。
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Suggestion 是问题的轻量投影，用于给用户播种后续提问。
type Suggestion struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}
