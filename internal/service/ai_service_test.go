package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ielts_edu_backend/internal/config"
)

type mapCache struct {
	store map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{store: map[string]string{}}
}

func (c *mapCache) Get(ctx context.Context, key string) (string, bool) {
	v, ok := c.store[key]
	return v, ok
}

func (c *mapCache) Put(ctx context.Context, key, value string) {
	c.store[key] = value
}

func chatServer(t *testing.T, calls *int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestNormalizeStripsCodeFenceAndPrettyPrints(t *testing.T) {
	calls := 0
	srv := chatServer(t, &calls, "```json\n{\"title\":\"Ocean Life\"}\n```")
	defer srv.Close()

	svc := NewAIService(config.AIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "test"}, newMapCache())

	got, err := svc.Normalize(context.Background(), "raw paper text", "normalize this")
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"title\": \"Ocean Life\"\n}"
	if got != want {
		t.Errorf("normalize = %q, want %q", got, want)
	}
}

func TestNormalizeReturnsRawWhenNotJSON(t *testing.T) {
	calls := 0
	srv := chatServer(t, &calls, "sorry, I cannot do that")
	defer srv.Close()

	svc := NewAIService(config.AIConfig{BaseURL: srv.URL, APIKey: "test-key"}, newMapCache())

	got, err := svc.Normalize(context.Background(), "raw", "prompt")
	if err != nil {
		t.Fatal(err)
	}
	// 不是合法 JSON 时原样返回，交给人工修正
	if got != "sorry, I cannot do that" {
		t.Errorf("normalize = %q", got)
	}
}

func TestNormalizeCacheHitSkipsUpstream(t *testing.T) {
	calls := 0
	srv := chatServer(t, &calls, `{"ok":true}`)
	defer srv.Close()

	svc := NewAIService(config.AIConfig{BaseURL: srv.URL, APIKey: "test-key"}, newMapCache())

	first, err := svc.Normalize(context.Background(), "same input", "same prompt")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Normalize(context.Background(), "same input", "same prompt")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("cache returned different content: %q vs %q", first, second)
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1", calls)
	}

	// 空白差异不影响命中
	if _, err := svc.Normalize(context.Background(), "same   input", "same\nprompt"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("whitespace variant missed cache, calls = %d", calls)
	}
}

func TestNormalizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := NewAIService(config.AIConfig{BaseURL: srv.URL, APIKey: "k"}, newMapCache())

	_, err := svc.Normalize(context.Background(), "raw", "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("err = %v", err)
	}
}

func TestNormalizeNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	svc := NewAIService(config.AIConfig{BaseURL: srv.URL, APIKey: "k"}, nil)

	if _, err := svc.Normalize(context.Background(), "raw", "prompt"); err == nil {
		t.Fatal("expected error")
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct{ in, want string }{
		{"```json\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"{}", "{}"},
		{"  {}  ", "{}"},
	}
	for _, tc := range cases {
		if got := stripCodeFence(tc.in); got != tc.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCacheKeyStable(t *testing.T) {
	a := cacheKey("some  text", "a prompt")
	b := cacheKey("some text", "a  prompt")
	if a != b {
		t.Error("whitespace folding broken")
	}
	if a == cacheKey("other text", "a prompt") {
		t.Error("different inputs collide")
	}
	if !strings.HasPrefix(a, "import:normalize:") {
		t.Errorf("key = %q", a)
	}
}
