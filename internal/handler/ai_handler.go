package handler

import (
	"errors"
	"net/http"

	"askit-go/internal/service"
	"askit-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AIHandler 负责处理 AI 问答与会话相关的 API 请求。
type AIHandler struct {
	chatService service.ChatService
}

// NewAIHandler 创建一个新的 AIHandler 实例。
func NewAIHandler(chatService service.ChatService) *AIHandler {
	return &AIHandler{chatService: chatService}
}

// GenerateRequest 定义了单次问答 API 的请求体结构。
type GenerateRequest struct {
	Query string `json:"query"`
}

// Generate 执行一次无会话上下文的问答。
func (h *AIHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载"})
		return
	}

	result, err := h.chatService.Generate(c.Request.Context(), req.Query)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "query 不能为空"})
			return
		}
		log.Errorf("Generate: 生成回答失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "生成回答失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": result, "message": "success"})
}

// Suggestions 返回随机抽取的提问建议。
func (h *AIHandler) Suggestions(c *gin.Context) {
	suggestions, err := h.chatService.Suggestions()
	if err != nil {
		log.Errorf("Suggestions: 获取建议失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取建议失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": suggestions, "message": "success"})
}

// StartSession 创建一个新的聊天会话。
func (h *AIHandler) StartSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}

	displayName := user.Name
	if displayName == "" {
		displayName = user.Username
	}

	sessionID, messages, suggestions, err := h.chatService.StartSession(c.Request.Context(), user.ID, displayName)
	if err != nil {
		log.Errorf("StartSession: 创建会话失败, userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "创建会话失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"sessionId":   sessionID,
			"messages":    messages,
			"suggestions": suggestions,
		},
	})
}

// GetSessionMessages 返回会话的全部消息。
func (h *AIHandler) GetSessionMessages(c *gin.Context) {
	sessionID := c.Param("sessionId")
	messages, err := h.chatService.GetMessages(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取会话消息失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": gin.H{"messages": messages}, "message": "success"})
}

// SubmitRequest 定义了会话内提交查询的请求体结构。
type SubmitRequest struct {
	Query string `json:"query"`
}

// SubmitMessage 向会话提交一轮用户查询，阻塞直至该轮落定。
func (h *AIHandler) SubmitMessage(c *gin.Context) {
	sessionID := c.Param("sessionId")

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载"})
		return
	}

	result, err := h.chatService.Submit(c.Request.Context(), sessionID, req.Query)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyQuery):
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "query 不能为空"})
		case errors.Is(err, service.ErrExchangeInFlight):
			// 上一轮尚未落定时拒绝并发提交
			c.JSON(http.StatusConflict, gin.H{"code": http.StatusConflict, "message": "上一条消息还在处理中，请稍候"})
		default:
			log.Errorf("SubmitMessage: 处理消息失败, sessionID=%s: %v", sessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "处理消息失败"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": result, "message": "success"})
}

// ResetSession 清空会话的全部消息。
func (h *AIHandler) ResetSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := h.chatService.ResetSession(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "重置会话失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "Session reset successfully"})
}
