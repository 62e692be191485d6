package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/pkg/config"
	"interntrack/pkg/trace"
)

func newTestLLM(t *testing.T, handler http.HandlerFunc) *LLMClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewLLMClient(config.LLMConfig{
		Enabled: true,
		BaseURL: srv.URL + "/v1/",
		APIKey:  "k-123",
		Model:   "test-model",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
}

func TestLLMClient_Advise(t *testing.T) {
	var got chatRequest
	client := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k-123", r.Header.Get("Authorization"))
		assert.Equal(t, "trace-abc", r.Header.Get(trace.HeaderName()))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatReply("```json\n{\"summary\":\"Start with the report\",\"suggestions\":[{\"task_id\":7,\"reason\":\"due today\"}]}\n```"))
	})

	ctx := trace.WithContext(context.Background(), "trace-abc")
	ans, err := client.Advise(ctx, FocusRequest{
		Today:          time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		Tasks:          []model.Task{{ID: 7, Title: "Report", Status: model.TaskStatusPending, Priority: model.PriorityHigh, DueDate: date(2024, 6, 10)}},
		MaxSuggestions: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Start with the report", ans.Summary)
	require.Len(t, ans.Suggestions, 1)
	assert.EqualValues(t, 7, ans.Suggestions[0].TaskID)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[1].Content, "Today is 2024-06-10")
	assert.Contains(t, got.Messages[1].Content, `"due_date":"2024-06-10"`)
}

func TestLLMClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "provider error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			},
			want: "429",
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
			want: "no choices",
		},
		{
			name: "content is not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(chatReply("I think you should rest."))
			},
			want: "invalid json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestLLM(t, tt.handler)
			_, err := client.Advise(context.Background(), FocusRequest{Today: time.Now()})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLLMClient_AcceptsAny2xx(t *testing.T) {
	client := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(chatReply(`{"summary":"ok","suggestions":[{"task_id":1,"reason":"first"}]}`))
	})

	ans, err := client.Advise(context.Background(), FocusRequest{Today: time.Now(), MaxSuggestions: 3})
	require.NoError(t, err)
	assert.Equal(t, "ok", ans.Summary)
}

func TestParseFocusAnswer(t *testing.T) {
	for _, in := range []string{
		`{"summary":"s","suggestions":[]}`,
		"```\n{\"summary\":\"s\",\"suggestions\":[]}\n```",
		"  ```json {\"summary\":\"s\"}```  ",
	} {
		ans, err := parseFocusAnswer(in)
		require.NoError(t, err, in)
		assert.Equal(t, "s", ans.Summary)
	}
}
