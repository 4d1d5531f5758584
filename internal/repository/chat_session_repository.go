// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"askit-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// 会话数据在 Redis 中的保留时间。
const sessionTTL = 7 * 24 * time.Hour

// ChatSessionRepository 定义了聊天会话消息的操作接口。
// 消息以"竞技场"方式存储：每条消息是 hash 中以消息 ID 为键的字段，
// 另有一个 list 维护消息顺序。更新永远按 ID 寻址，与位置无关，
// 因此并发或乱序的完成回调不会互相破坏。
type ChatSessionRepository interface {
	AppendMessages(ctx context.Context, sessionID string, messages ...model.ChatMessage) error
	UpdateMessage(ctx context.Context, sessionID string, message model.ChatMessage) error
	GetMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	// TryBeginExchange 尝试为会话获取"进行中"锁。已有未完成交换时返回 false。
	TryBeginExchange(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)
	EndExchange(ctx context.Context, sessionID string) error
	// Reset 清空会话的全部消息与状态。
	Reset(ctx context.Context, sessionID string) error
}

type redisChatSessionRepository struct {
	redisClient *redis.Client
}

// NewChatSessionRepository 创建一个新的 ChatSessionRepository 实例。
func NewChatSessionRepository(redisClient *redis.Client) ChatSessionRepository {
	return &redisChatSessionRepository{redisClient: redisClient}
}

func messagesKey(sessionID string) string {
	return fmt.Sprintf("chat:session:%s:messages", sessionID)
}

func orderKey(sessionID string) string {
	return fmt.Sprintf("chat:session:%s:order", sessionID)
}

func pendingKey(sessionID string) string {
	return fmt.Sprintf("chat:session:%s:pending", sessionID)
}

// AppendMessages 以单个 pipeline 追加若干消息，保证用户消息与
// 助手占位消息出现在同一次历史更新中，保持顺序。
func (r *redisChatSessionRepository) AppendMessages(ctx context.Context, sessionID string, messages ...model.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	pipe := r.redisClient.TxPipeline()
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal chat message: %w", err)
		}
		pipe.HSet(ctx, messagesKey(sessionID), msg.ID, data)
		pipe.RPush(ctx, orderKey(sessionID), msg.ID)
	}
	pipe.Expire(ctx, messagesKey(sessionID), sessionTTL)
	pipe.Expire(ctx, orderKey(sessionID), sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append chat messages: %w", err)
	}
	return nil
}

// UpdateMessage 按消息 ID 原地覆盖一条消息。
func (r *redisChatSessionRepository) UpdateMessage(ctx context.Context, sessionID string, message model.ChatMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}
	if err := r.redisClient.HSet(ctx, messagesKey(sessionID), message.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to update chat message: %w", err)
	}
	return nil
}

// GetMessages 按顺序列表还原会话的全部消息。
func (r *redisChatSessionRepository) GetMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	ids, err := r.redisClient.LRange(ctx, orderKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get message order: %w", err)
	}
	if len(ids) == 0 {
		return []model.ChatMessage{}, nil
	}

	raw, err := r.redisClient.HGetAll(ctx, messagesKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	messages := make([]model.ChatMessage, 0, len(ids))
	for _, id := range ids {
		data, ok := raw[id]
		if !ok {
			continue
		}
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// TryBeginExchange 用 SETNX 实现会话级互斥，TTL 防止异常退出后锁悬挂。
func (r *redisChatSessionRepository) TryBeginExchange(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	ok, err := r.redisClient.SetNX(ctx, pendingKey(sessionID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire exchange lock: %w", err)
	}
	return ok, nil
}

// EndExchange 释放会话的"进行中"锁。
func (r *redisChatSessionRepository) EndExchange(ctx context.Context, sessionID string) error {
	return r.redisClient.Del(ctx, pendingKey(sessionID)).Err()
}

// Reset 清空会话数据。
func (r *redisChatSessionRepository) Reset(ctx context.Context, sessionID string) error {
	return r.redisClient.Del(ctx,
		messagesKey(sessionID),
		orderKey(sessionID),
		pendingKey(sessionID),
	).Err()
}
