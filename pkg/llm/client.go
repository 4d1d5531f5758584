// Package llm 提供了调用外部生成式语言模型 API 的客户端。
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"askit-go/internal/config"
	"askit-go/pkg/log"
)

// 上游失败按原因分类为哨兵错误，调用方用 errors.Is 区分处理。
var (
	// ErrTimeout 上游调用超时
	ErrTimeout = errors.New("llm: upstream timeout")
	// ErrAuth 鉴权失败（API key 无效或权限不足）
	ErrAuth = errors.New("llm: upstream authentication failed")
	// ErrQuota 配额耗尽或限流
	ErrQuota = errors.New("llm: upstream quota exceeded")
	// ErrMalformed 上游返回了无法解析或为空的响应
	ErrMalformed = errors.New("llm: malformed upstream response")
	// ErrUnavailable 其它网络或服务端错误
	ErrUnavailable = errors.New("llm: upstream unavailable")
)

// Client 定义了生成式模型客户端的接口：prompt 进，文本出。
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type geminiClient struct {
	cfg        config.AIConfig
	httpClient *http.Client
}

// NewClient 根据配置创建一个新的生成式模型客户端。
func NewClient(cfg config.AIConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &geminiClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// generateContent 接口的请求与响应结构（Google Generative Language API 格式）。
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate 以单次请求/响应方式调用模型。
// 瞬时失败（网络错误、超时、5xx）最多重试 cfg.MaxRetries 次；
// 鉴权、配额与响应格式错误视为终态，不做重试。
func (c *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	retries := c.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			log.Warnf("LLM 调用失败，准备第 %d 次重试: %v", attempt, lastErr)
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
			}
		}

		text, err := c.generateOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isTransient(err) {
			return "", err
		}
	}
	return "", lastErr
}

func (c *geminiClient) generateOnce(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), c.cfg.Model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: status %d", ErrQuota, resp.StatusCode)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %d, body: %s", ErrUnavailable, resp.StatusCode, string(bodyBytes))
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: status %d, body: %s", ErrMalformed, resp.StatusCode, string(bodyBytes))
	}

	var genResp generateResponse
	if err := json.Unmarshal(bodyBytes, &genResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if genResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidates", ErrMalformed)
	}

	var sb strings.Builder
	for _, p := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	// 返回裁剪掉首尾空白后的原始文本
	return strings.TrimSpace(sb.String()), nil
}

// isTransient 判断错误是否值得重试。
func isTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable)
}

// isClientTimeout 识别 http.Client 超时产生的错误。
func isClientTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	var te timeouter
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}
