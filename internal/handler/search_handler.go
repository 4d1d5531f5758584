package handler

import (
	"net/http"
	"strconv"
	"strings"

	"askit-go/internal/service"
	"askit-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SearchHandler 负责处理站内搜索相关的 API 请求。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 对问题索引执行全文检索。
func (h *SearchHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "查询参数 q 不能为空"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	results, err := h.searchService.SearchQuestions(c.Request.Context(), query, limit)
	if err != nil {
		log.Errorf("Search: 搜索失败, query=%q: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "搜索失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": results, "message": "success"})
}
