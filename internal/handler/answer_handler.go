package handler

import (
	"errors"
	"net/http"
	"strconv"

	"askit-go/internal/service"
	"askit-go/pkg/log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AnswerHandler 负责处理答案相关的 API 请求。
type AnswerHandler struct {
	answerService service.AnswerService
}

// NewAnswerHandler 创建一个新的 AnswerHandler 实例。
func NewAnswerHandler(answerService service.AnswerService) *AnswerHandler {
	return &AnswerHandler{answerService: answerService}
}

// AnswerRequest 定义了创建与更新答案的请求体结构。
type AnswerRequest struct {
	Content string `json:"content" binding:"required"`
}

// List 按问题 ID 列出全部答案，已采纳的在前。
func (h *AnswerHandler) List(c *gin.Context) {
	questionID, err := strconv.ParseUint(c.Query("questionId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "查询参数 questionId 无效"})
		return
	}

	answers, err := h.answerService.ListForQuestion(uint(questionID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询答案失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": answers, "message": "success"})
}

// Create 处理对问题发布答案的请求。
func (h *AnswerHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}
	questionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载：答案内容不能为空"})
		return
	}

	answer, err := h.answerService.Create(questionID, user.ID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "问题不存在"})
		case errors.Is(err, service.ErrEmptyAnswer):
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
		default:
			log.Errorf("Create: 创建答案失败, questionID=%d: %v", questionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "创建答案失败"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": answer, "message": "success"})
}

// Update 处理修改答案的请求。
func (h *AnswerHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载"})
		return
	}

	answer, err := h.answerService.Update(id, user.ID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "答案不存在"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "只有答案作者可以修改答案"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": answer, "message": "success"})
}

// Delete 处理删除答案的请求。
func (h *AnswerHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.answerService.Delete(id, user.ID); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "答案不存在"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "只有答案作者可以删除答案"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "删除答案失败"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "Answer deleted successfully"})
}

// Vote 处理对答案的投票。
func (h *AnswerHandler) Vote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "direction 必须为 up 或 down"})
		return
	}

	answer, err := h.answerService.Vote(id, req.Direction)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "答案不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "投票失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": answer, "message": "success"})
}

// Accept 处理采纳答案的请求，只有提问者可以操作。
func (h *AnswerHandler) Accept(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	answer, err := h.answerService.Accept(id, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "答案不存在"})
		case errors.Is(err, service.ErrAnswerQuestionGone):
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": err.Error()})
		case errors.Is(err, service.ErrNotQuestionAuthor):
			c.JSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "只有提问者可以采纳答案"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "采纳答案失败"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": answer, "message": "success"})
}
