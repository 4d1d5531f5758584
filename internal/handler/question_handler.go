package handler

import (
	"errors"
	"net/http"
	"strconv"

	"askit-go/internal/model"
	"askit-go/internal/repository"
	"askit-go/internal/service"
	"askit-go/pkg/log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// QuestionHandler 负责处理问题相关的 API 请求。
type QuestionHandler struct {
	questionService service.QuestionService
	answerService   service.AnswerService
}

// NewQuestionHandler 创建一个新的 QuestionHandler 实例。
func NewQuestionHandler(questionService service.QuestionService, answerService service.AnswerService) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		answerService:   answerService,
	}
}

// parseIDParam 解析路径中的数字 ID。
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的 ID"})
		return 0, false
	}
	return uint(id), true
}

// QuestionRequest 定义了创建与更新问题的请求体结构。
type QuestionRequest struct {
	Title   string   `json:"title" binding:"required"`
	Content string   `json:"content" binding:"required"`
	Tags    []string `json:"tags" binding:"required"`
}

// List 分页检索问题，支持标签筛选、关键词和排序。
func (h *QuestionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	opts := repository.QuestionListOptions{
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
		Sort:   c.DefaultQuery("sort", "newest"),
		Offset: (page - 1) * limit,
		Limit:  limit,
	}

	questions, total, err := h.questionService.List(opts)
	if err != nil {
		log.Errorf("List: 查询问题列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询问题列表失败"})
		return
	}

	dtos := make([]model.QuestionDTO, 0, len(questions))
	for i := range questions {
		dtos = append(dtos, questions[i].ToDTO())
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"questions": dtos,
			"total":     total,
			"page":      page,
			"limit":     opts.Limit,
		},
	})
}

// Create 处理发布问题的请求。
func (h *QuestionHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载：标题、内容和标签不能为空"})
		return
	}

	question, err := h.questionService.Create(user.ID, req.Title, req.Content, req.Tags)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
		return
	}

	log.Infof("用户 '%s' 发布了问题, questionID=%d", user.Username, question.ID)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": question.ToDTO(), "message": "success"})
}

// Get 获取问题详情及其全部答案。
func (h *QuestionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	question, err := h.questionService.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "问题不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询问题失败"})
		return
	}

	answers, err := h.answerService.ListForQuestion(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询答案失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"question": question.ToDTO(),
			"answers":  answers,
		},
	})
}

// Update 处理修改问题的请求。
func (h *QuestionHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载"})
		return
	}

	question, err := h.questionService.Update(id, user.ID, req.Title, req.Content, req.Tags)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "问题不存在"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "只有提问者可以修改问题"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": question.ToDTO(), "message": "success"})
}

// Delete 处理删除问题的请求，问题下的答案会一并删除。
func (h *QuestionHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.questionService.Delete(id, user.ID); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "问题不存在"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "只有提问者可以删除问题"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "删除问题失败"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "Question deleted successfully"})
}

// VoteRequest 定义了投票请求的结构，direction 取 up 或 down。
type VoteRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// Vote 处理对问题的投票。
func (h *QuestionHandler) Vote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "direction 必须为 up 或 down"})
		return
	}

	question, err := h.questionService.Vote(id, req.Direction)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "问题不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "投票失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": question.ToDTO(), "message": "success"})
}
