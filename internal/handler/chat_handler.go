package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"askit-go/internal/service"
	"askit-go/pkg/log"
	"askit-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理 WebSocket 聊天连接。
// 每个连接对应一个会话，消息以 JSON 帧收发。
type ChatHandler struct {
	chatService service.ChatService
	userService service.UserService
	jwtManager  *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, userService service.UserService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// wsFrame 是下行 WebSocket 帧的统一结构。
type wsFrame struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func writeFrame(conn *websocket.Conn, frameType string, data interface{}, message string) error {
	frame := wsFrame{
		Type:      frameType,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	}
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

// Handle 处理一个传入的 WebSocket 连接。
// 路径中的 token 用于认证；连接建立后立即创建会话并下发开场白与建议。
func (h *ChatHandler) Handle(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	user, err := h.userService.GetProfile(claims.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", claims.Username)

	displayName := user.Name
	if displayName == "" {
		displayName = user.Username
	}
	sessionID, messages, suggestions, err := h.chatService.StartSession(c.Request.Context(), user.ID, displayName)
	if err != nil {
		log.Errorf("创建会话失败, userID=%d: %v", user.ID, err)
		_ = writeFrame(conn, "error", nil, "创建会话失败")
		return
	}

	if err := writeFrame(conn, "session", gin.H{
		"sessionId":   sessionID,
		"messages":    messages,
		"suggestions": suggestions,
	}, "success"); err != nil {
		log.Warnf("下发会话帧失败: %v", err)
		return
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		// 上行帧: {"type":"query","query":"..."} 或 {"type":"reset"}
		var inbound struct {
			Type  string `json:"type"`
			Query string `json:"query"`
		}
		if err := json.Unmarshal(message, &inbound); err != nil {
			// 非 JSON 输入按纯文本查询处理
			inbound.Type = "query"
			inbound.Query = string(message)
		}

		switch inbound.Type {
		case "reset":
			if err := h.chatService.ResetSession(c.Request.Context(), sessionID); err != nil {
				_ = writeFrame(conn, "error", nil, "重置会话失败")
				continue
			}
			_ = writeFrame(conn, "reset", nil, "会话已重置")

		default:
			result, err := h.chatService.Submit(c.Request.Context(), sessionID, inbound.Query)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrEmptyQuery):
					_ = writeFrame(conn, "error", nil, "query 不能为空")
				case errors.Is(err, service.ErrExchangeInFlight):
					_ = writeFrame(conn, "error", nil, "上一条消息还在处理中，请稍候")
				default:
					log.Errorf("处理消息失败, sessionID=%s: %v", sessionID, err)
					_ = writeFrame(conn, "error", nil, "处理消息失败")
				}
				continue
			}
			if err := writeFrame(conn, "exchange", result, "success"); err != nil {
				log.Warnf("下发交换结果失败: %v", err)
				return
			}
		}
	}
}
