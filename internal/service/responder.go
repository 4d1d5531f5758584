package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"askit-go/pkg/llm"
)

// Responder 为自由文本查询生成最终的回答文本。
// 两种可互换的策略：纯本地模板应答，或委托外部生成模型。
// 选择发生在装配阶段（配置了 API key 则走委托策略），调用方无感知。
type Responder interface {
	Respond(ctx context.Context, query string) (string, error)
}

// noMatchGuidance 是未命中任何已有问题时的固定引导文案。
const noMatchGuidance = `I don't have a specific answer for that question in my knowledge base yet.

Here are some options that might help:

1. You could post this as a new question to get answers from our community
2. Try rephrasing your question with more specific details
3. Browse similar topics in our question database

Would you like me to help you create a new question for the community?`

// FormatCitation 生成指向源问题的 markdown 引用链接。
// "](/q/" 分隔符被前端渲染层依赖，格式不可更改。
func FormatCitation(title string, questionID uint) string {
	return fmt.Sprintf("[%s](/q/%d)", title, questionID)
}

var citationPattern = regexp.MustCompile(`\[([^\]]+)\]\(/q/(\d+)\)`)

// ParseCitation 从文本中解析第一处引用链接，返回标题与问题 ID。
func ParseCitation(text string) (title string, questionID uint, ok bool) {
	m := citationPattern.FindStringSubmatch(text)
	if m == nil {
		return "", 0, false
	}
	id, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return m[1], uint(id), true
}

// localResponder 是不依赖外部模型的确定性模板应答策略。
type localResponder struct {
	matcher   Matcher
	assembler ContextAssembler
}

// NewLocalResponder 创建本地应答策略。
func NewLocalResponder(matcher Matcher, assembler ContextAssembler) Responder {
	return &localResponder{matcher: matcher, assembler: assembler}
}

// Respond 按匹配结果填充模板：
// 命中且有答案时引用答案原文并附引用链接；命中但无答案时给出正文预览；
// 未命中时返回固定引导文案。
func (r *localResponder) Respond(_ context.Context, query string) (string, error) {
	match, err := r.matcher.Match(query)
	if err != nil {
		return "", err
	}

	if !match.Found() {
		return noMatchGuidance, nil
	}

	q := match.Question
	citation := FormatCitation(q.Title, q.ID)

	if match.Answer != nil {
		return fmt.Sprintf("Based on a similar question in our community, here's what I found:\n\n%s\n\nThis answer is from our community. You can view the full question and more answers here: %s",
			match.Answer.Content, citation), nil
	}

	return fmt.Sprintf("I found a relevant question in our community: %q\n\n%s\n\nYou can view this question and its answers here: %s",
		q.Title, r.assembler.Preview(q.Content), citation), nil
}

// delegatedResponder 将应答委托给外部生成模型，检索到的内容作为上下文注入。
type delegatedResponder struct {
	matcher   Matcher
	assembler ContextAssembler
	llmClient llm.Client
}

// NewDelegatedResponder 创建委托外部模型的应答策略。
func NewDelegatedResponder(matcher Matcher, assembler ContextAssembler, llmClient llm.Client) Responder {
	return &delegatedResponder{matcher: matcher, assembler: assembler, llmClient: llmClient}
}

// Respond 构建指令提示词并调用外部模型，原样返回其输出（去除首尾空白）。
// 上游失败以 pkg/llm 的哨兵错误上抛，由调用方转化为用户可见的失败通知。
func (r *delegatedResponder) Respond(ctx context.Context, query string) (string, error) {
	match, err := r.matcher.Match(query)
	if err != nil {
		return "", err
	}

	prompt := buildPrompt(query, r.assembler.Assemble(match))

	text, err := r.llmClient.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// buildPrompt 组装发给外部模型的完整指令提示词。
// 指令要求直接、自信、不暴露 AI 身份的回答风格。
func buildPrompt(query, contextBlock string) string {
	var b strings.Builder
	b.WriteString("Act as a knowledgeable human expert answering on a professional Q&A platform like Quora.\n\n")
	b.WriteString("Your task is to provide the best possible answer to the following user question:\n\n")
	b.WriteString(fmt.Sprintf("%q\n\n", query))
	if contextBlock != "" {
		b.WriteString("Use the following related questions and answers as supporting context:\n")
		b.WriteString(contextBlock)
		b.WriteString("\n\n")
	}
	b.WriteString(`Strict instructions:
- NEVER say you're an AI or language model.
- NEVER mention your training or capabilities.
- NEVER include introductions, greetings, apologies, or disclaimers.
- NEVER list topics you're knowledgeable in — answer the question directly.
- DO answer as a human would: confident, concise, and naturally written.
- DO assume the user wants an answer, not a conversation.
- DO use related context only if it's helpful — avoid repetition.

Style:
- Response must be minimal, accurate, and high-quality.
- Use a professional tone with natural language — no over-explaining.
- Avoid bulleted lists unless the question explicitly asks for them.
- Output only the answer. Nothing more.

Now, write the answer.`)
	return b.String()
}
