package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ielts_edu_backend/internal/config"
	"ielts_edu_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NormalizeCache 归一化结果缓存。键由输入文本哈希派生（见 cacheKey），
// 不再用文本前缀截断那种会撞车的做法。
type NormalizeCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key, value string)
}

type redisNormalizeCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisNormalizeCache(rdb *redis.Client, ttl time.Duration) NormalizeCache {
	return &redisNormalizeCache{rdb: rdb, ttl: ttl}
}

func (c *redisNormalizeCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *redisNormalizeCache) Put(ctx context.Context, key, value string) {
	if err := c.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
		logger.Log.Warn("normalize cache write failed", zap.Error(err))
	}
}

type AIService struct {
	config config.AIConfig
	client *http.Client
	cache  NormalizeCache
}

func NewAIService(cfg config.AIConfig, cache NormalizeCache) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: 120 * time.Second},
		cache:  cache,
	}
}

type aiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []aiChatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message aiChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Normalize 把生肉试卷文本交给补全服务，按 prompt 整理成结构化 JSON
// 候选。返回值不保证是合法 JSON：解析失败时原样返回给运营人员手改，
// 不直接拒绝。没有重试，失败就是一次用户可见的错误。
func (s *AIService) Normalize(ctx context.Context, rawText, prompt string) (string, error) {
	key := cacheKey(rawText, prompt)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	content, err := s.complete(ctx, prompt, rawText)
	if err != nil {
		return "", err
	}

	out := prettyJSONOrRaw(stripCodeFence(content))
	if s.cache != nil {
		s.cache.Put(ctx, key, out)
	}
	return out, nil
}

func (s *AIService) complete(ctx context.Context, prompt, text string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: s.config.Model,
		Messages: []aiChatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: text},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// cacheKey 对归一化输入（prompt + 文本，折叠空白）取 sha256
func cacheKey(rawText, prompt string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(strings.Fields(prompt), " ")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(strings.Fields(rawText), " ")))
	return "import:normalize:" + hex.EncodeToString(h.Sum(nil))
}

// stripCodeFence 剥掉 ```json ... ``` 包裹
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// prettyJSONOrRaw 能解析就重新缩进，不能解析原样返回
func prettyJSONOrRaw(content string) string {
	var v interface{}
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return content
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return content
	}
	return string(pretty)
}
