package service

import (
	"strings"
	"unicode/utf8"
)

// previewLimit 是面向最终用户展示的问题正文预览长度上限。
// 喂给外部模型的上下文不做截断。
const previewLimit = 200

// ContextAssembler 将匹配结果格式化为可注入提示词的文本块。
type ContextAssembler struct{}

// NewContextAssembler 创建一个新的 ContextAssembler。
func NewContextAssembler() ContextAssembler {
	return ContextAssembler{}
}

// Assemble 将匹配结果组装成带标签的上下文块。
// 未命中时返回空串；命中但无答案时省略答案行。
func (ContextAssembler) Assemble(m MatchResult) string {
	if !m.Found() {
		return ""
	}

	var b strings.Builder
	b.WriteString("Related Question: ")
	b.WriteString(m.Question.Title)
	b.WriteString("\nQuestion Content: ")
	b.WriteString(m.Question.Content)
	if m.Answer != nil {
		b.WriteString("\nCommunity Answer: ")
		b.WriteString(m.Answer.Content)
	}
	return b.String()
}

// Preview 返回截断到 previewLimit 的正文预览，超长时追加省略号。
func (ContextAssembler) Preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLimit]) + "..."
}
