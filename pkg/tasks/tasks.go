// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// 内容索引任务的动作类型。
const (
	ActionIndex  = "index"
	ActionDelete = "delete"
)

// ContentIndexTask 表示一条待同步到搜索索引的内容变更。
// 问题的创建/更新/删除以及答案的增删都会触发一条任务。
type ContentIndexTask struct {
	Action     string `json:"action"`      // index 或 delete
	QuestionID uint   `json:"question_id"` // 变更所属的问题 ID
}
