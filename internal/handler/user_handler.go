package handler

import (
	"net/http"

	"askit-go/internal/model"
	"askit-go/internal/service"
	"askit-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责处理用户资料相关的 API 请求。
type UserHandler struct {
	userService     service.UserService
	questionService service.QuestionService
	answerService   service.AnswerService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService, questionService service.QuestionService, answerService service.AnswerService) *UserHandler {
	return &UserHandler{
		userService:     userService,
		questionService: questionService,
		answerService:   answerService,
	}
}

// currentUser 从上下文中取出由 AuthMiddleware 注入的 User 对象。
func currentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// GetMe 获取当前登录用户的个人信息。
func (h *UserHandler) GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": user, "message": "success"})
}

// GetProfile 获取任意用户的公开资料。
func (h *UserHandler) GetProfile(c *gin.Context) {
	username := c.Param("username")
	user, err := h.userService.GetProfile(username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "用户不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": user, "message": "success"})
}

// UpdateProfileRequest 定义了更新个人资料的请求体结构。
type UpdateProfileRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// UpdateMe 更新当前用户的展示名与简介。
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载"})
		return
	}

	updated, err := h.userService.UpdateProfile(user.ID, req.Name, req.Bio)
	if err != nil {
		log.Errorf("UpdateMe: 更新用户资料失败, userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "更新资料失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": updated, "message": "success"})
}

// UploadAvatar 接收 multipart 头像文件并写入对象存储。
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少 avatar 文件字段"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "读取上传文件失败"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := h.userService.UploadAvatar(c.Request.Context(), user.ID, file, fileHeader.Size, contentType)
	if err != nil {
		log.Errorf("UploadAvatar: 上传失败, userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "上传头像失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"avatarUrl": url},
	})
}

// ListUserQuestions 获取指定用户提出的问题。
func (h *UserHandler) ListUserQuestions(c *gin.Context) {
	username := c.Param("username")
	user, err := h.userService.GetProfile(username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "用户不存在"})
		return
	}

	questions, err := h.questionService.ListByAuthor(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取问题列表失败"})
		return
	}

	dtos := make([]model.QuestionDTO, 0, len(questions))
	for i := range questions {
		dtos = append(dtos, questions[i].ToDTO())
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": dtos, "message": "success"})
}

// ListUserAnswers 获取指定用户发布的答案。
func (h *UserHandler) ListUserAnswers(c *gin.Context) {
	username := c.Param("username")
	user, err := h.userService.GetProfile(username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "用户不存在"})
		return
	}

	answers, err := h.answerService.ListByAuthor(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取答案列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": answers, "message": "success"})
}
