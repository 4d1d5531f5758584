package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"askit-go/internal/model"
	"askit-go/internal/repository"
	"askit-go/pkg/llm"
	"askit-go/pkg/log"
)

// ErrExchangeInFlight 表示该会话已有一轮未完成的交换。
// 在上一轮落定前拒绝新的提交，避免完成回调交错乱序。
var ErrExchangeInFlight = errors.New("an exchange is already in flight for this session")

// 每轮建议的条数。
const suggestionCount = 3

// 单轮交换的兜底超时：应答超时 30s，锁 TTL 略放宽防止悬挂。
const (
	responderTimeout = 30 * time.Second
	exchangeLockTTL  = 45 * time.Second
)

// failedNotice 是应答失败时写入占位消息的用户可见通知，不含技术细节。
const failedNotice = "Sorry, I couldn't come up with an answer just now. Please try again in a moment."

// greetingTemplate 是新会话的开场白。
const greetingTemplate = "Hello%s! I'm the AskIt AI assistant. I can help answer your technical questions based on the community's knowledge. What would you like to know about today?"

// ExchangeResult 是一轮问答交换落定后的产物。
type ExchangeResult struct {
	UserMessage      model.ChatMessage  `json:"userMessage"`
	AssistantMessage model.ChatMessage  `json:"assistantMessage"`
	Suggestions      []model.Suggestion `json:"suggestions"`
}

// GenerateResult 是单次 /ai/generate 调用的响应结构。
type GenerateResult struct {
	Content          string              `json:"content"`
	RelatedQuestions []model.QuestionDTO `json:"relatedQuestions"`
	RelatedAnswers   []model.Answer      `json:"relatedAnswers"`
}

// ChatService 编排会话状态机与检索-应答流程。
type ChatService interface {
	// Generate 执行一次无会话上下文的问答：匹配、应答、回带相关内容。
	Generate(ctx context.Context, query string) (*GenerateResult, error)
	// StartSession 创建新会话并播种开场白与首批建议。
	StartSession(ctx context.Context, userID uint, displayName string) (string, []model.ChatMessage, []model.Suggestion, error)
	GetMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	// Submit 提交一轮用户查询，阻塞直至占位消息落定（complete 或 failed）。
	Submit(ctx context.Context, sessionID, query string) (*ExchangeResult, error)
	ResetSession(ctx context.Context, sessionID string) error
	// Suggestions 随机抽取若干问题作为提问建议。
	Suggestions() ([]model.Suggestion, error)
}

type chatService struct {
	responder    Responder
	matcher      Matcher
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	sessionRepo  repository.ChatSessionRepository
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	responder Responder,
	matcher Matcher,
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	sessionRepo repository.ChatSessionRepository,
) ChatService {
	return &chatService{
		responder:    responder,
		matcher:      matcher,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		sessionRepo:  sessionRepo,
	}
}

// Generate 执行匹配与应答，并按原接口形状回带相关问题与答案。
func (s *chatService) Generate(ctx context.Context, query string) (*GenerateResult, error) {
	query = strings.TrimSpace(query)

	match, err := s.matcher.Match(query)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, responderTimeout)
	defer cancel()

	content, err := s.responder.Respond(genCtx, query)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{
		Content:          content,
		RelatedQuestions: []model.QuestionDTO{},
		RelatedAnswers:   []model.Answer{},
	}
	if match.Found() {
		result.RelatedQuestions = append(result.RelatedQuestions, match.Question.ToDTO())
		answers, err := s.answerRepo.FindByQuestionID(match.Question.ID)
		if err != nil {
			log.Errorf("获取相关答案失败, questionID=%d: %v", match.Question.ID, err)
		} else {
			result.RelatedAnswers = answers
		}
	}
	return result, nil
}

// StartSession 创建会话：生成会话 ID，写入开场白，并附上首批建议。
func (s *chatService) StartSession(ctx context.Context, userID uint, displayName string) (string, []model.ChatMessage, []model.Suggestion, error) {
	sessionID := fmt.Sprintf("%d-%d", time.Now().UnixNano(), userID)

	var who string
	if displayName != "" {
		who = " " + displayName
	}
	greeting := model.ChatMessage{
		ID:        newMessageID(model.SenderAssistant),
		Sender:    model.SenderAssistant,
		Content:   fmt.Sprintf(greetingTemplate, who),
		Status:    model.StatusComplete,
		Timestamp: time.Now(),
	}
	if err := s.sessionRepo.AppendMessages(ctx, sessionID, greeting); err != nil {
		return "", nil, nil, err
	}

	suggestions, err := s.Suggestions()
	if err != nil {
		log.Errorf("生成初始建议失败: %v", err)
		suggestions = []model.Suggestion{}
	}
	return sessionID, []model.ChatMessage{greeting}, suggestions, nil
}

// GetMessages 返回会话的全部消息。
func (s *chatService) GetMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return s.sessionRepo.GetMessages(ctx, sessionID)
}

// Submit 驱动一轮交换的状态机：
// Idle -> Pending（用户消息与 pending 占位消息在同一次更新中入列）
// -> Resolved（按 ID 将占位消息改写为结果）或 Failed（用户可见通知）。
// 无论成败，随后重新随机生成建议列表。
func (s *chatService) Submit(ctx context.Context, sessionID, query string) (*ExchangeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	// 会话级互斥：已有进行中的交换则直接拒绝
	acquired, err := s.sessionRepo.TryBeginExchange(ctx, sessionID, exchangeLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrExchangeInFlight
	}
	// 即使请求上下文被取消也要释放锁
	defer func() {
		if err := s.sessionRepo.EndExchange(context.Background(), sessionID); err != nil {
			log.Errorf("释放会话交换锁失败, sessionID=%s: %v", sessionID, err)
		}
	}()

	now := time.Now()
	userMsg := model.ChatMessage{
		ID:        newMessageID(model.SenderUser),
		Sender:    model.SenderUser,
		Content:   query,
		Status:    model.StatusComplete,
		Timestamp: now,
	}
	placeholder := model.ChatMessage{
		ID:        newMessageID(model.SenderAssistant),
		Sender:    model.SenderAssistant,
		Status:    model.StatusPending,
		Timestamp: now,
	}
	if err := s.sessionRepo.AppendMessages(ctx, sessionID, userMsg, placeholder); err != nil {
		return nil, err
	}

	respCtx, cancel := context.WithTimeout(ctx, responderTimeout)
	defer cancel()

	content, respondErr := s.responder.Respond(respCtx, query)
	if respondErr != nil {
		// 上游失败转化为 Failed 消息状态，绝不让占位消息停留在 Pending
		log.Errorf("应答失败, sessionID=%s, cause=%v", sessionID, classifyCause(respondErr))
		placeholder.Content = failedNotice
		placeholder.Status = model.StatusFailed
	} else {
		placeholder.Content = content
		placeholder.Status = model.StatusComplete
	}
	// 按 ID 落定占位消息；写入失败时保留错误上抛
	if err := s.sessionRepo.UpdateMessage(context.Background(), sessionID, placeholder); err != nil {
		return nil, err
	}

	// 建议列表在每次落定后重新生成，与结果无关
	suggestions, err := s.Suggestions()
	if err != nil {
		log.Errorf("重新生成建议失败: %v", err)
		suggestions = []model.Suggestion{}
	}

	return &ExchangeResult{
		UserMessage:      userMsg,
		AssistantMessage: placeholder,
		Suggestions:      suggestions,
	}, nil
}

// ResetSession 清空会话。
func (s *chatService) ResetSession(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Reset(ctx, sessionID)
}

// Suggestions 随机抽取问题作为提问建议。
func (s *chatService) Suggestions() ([]model.Suggestion, error) {
	questions, err := s.questionRepo.FindRandom(suggestionCount)
	if err != nil {
		return nil, err
	}
	suggestions := make([]model.Suggestion, 0, len(questions))
	for _, q := range questions {
		suggestions = append(suggestions, model.Suggestion{ID: q.ID, Title: q.Title})
	}
	return suggestions, nil
}

// newMessageID 生成带发送方前缀的消息 ID。
func newMessageID(sender string) string {
	return fmt.Sprintf("%s-%d", sender, time.Now().UnixNano())
}

// classifyCause 将上游错误映射为日志用的原因标签。
func classifyCause(err error) string {
	switch {
	case errors.Is(err, llm.ErrTimeout):
		return "timeout: " + err.Error()
	case errors.Is(err, llm.ErrAuth):
		return "auth: " + err.Error()
	case errors.Is(err, llm.ErrQuota):
		return "quota: " + err.Error()
	case errors.Is(err, llm.ErrMalformed):
		return "malformed: " + err.Error()
	default:
		return err.Error()
	}
}
