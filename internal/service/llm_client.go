package service

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

	"go.uber.org/zap"

	"interntrack/internal/model"
	"interntrack/pkg/circuitbreaker"
	"interntrack/pkg/config"
	"interntrack/pkg/metrics"
	"interntrack/pkg/trace"
)

// FocusRequest is what the advisor is asked to prioritise.
type FocusRequest struct {
	Today          time.Time
	Tasks          []model.Task
	MaxSuggestions int
}

// FocusAnswer is the JSON shape the model is instructed to return.
type FocusAnswer struct {
	Summary     string `json:"summary"`
	Suggestions []struct {
		TaskID int64  `json:"task_id"`
		Reason string `json:"reason"`
	} `json:"suggestions"`
}

// FocusAdvisor ranks open tasks; LLMClient is the production implementation.
type FocusAdvisor interface {
	Advise(ctx context.Context, req FocusRequest) (*FocusAnswer, error)
}

const focusSystemPrompt = `You help an intern decide what to work on next.
You receive today's date and a JSON list of their open tasks.
Reply with a JSON object only: {"summary": string, "suggestions": [{"task_id": number, "reason": string}]}.
Only use task ids from the list. Order suggestions by what should be done first. Keep reasons under 20 words.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// LLMClient calls an OpenAI-compatible chat completions endpoint.
type LLMClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
	breaker     *circuitbreaker.CircuitBreaker
	logger      *zap.Logger
}

func NewLLMClient(cfg config.LLMConfig, logger *zap.Logger) *LLMClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	cbCfg := circuitbreaker.DefaultConfig()
	cbCfg.OnStateChange = func(from, to circuitbreaker.State) {
		logger.Warn("LLM circuit breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	return &LLMClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
		breaker:     circuitbreaker.NewCircuitBreaker(cbCfg),
		logger:      logger,
	}
}

func (c *LLMClient) Advise(ctx context.Context, req FocusRequest) (*FocusAnswer, error) {
	var answer *FocusAnswer
	err := c.breaker.Execute(func() error {
		content, err := c.complete(ctx, []chatMessage{
			{Role: "system", Content: focusSystemPrompt},
			{Role: "user", Content: buildFocusPrompt(req)},
		})
		if err != nil {
			return err
		}
		answer, err = parseFocusAnswer(content)
		return err
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

func (c *LLMClient) complete(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    c.temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName(), traceID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordLLMCallLatency("chat_completions", "error", time.Since(start))
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordLLMCallLatency("chat_completions", fmt.Sprint(resp.StatusCode), time.Since(start))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("llm provider error %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("llm response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func buildFocusPrompt(req FocusRequest) string {
	type promptTask struct {
		ID       int64  `json:"id"`
		Title    string `json:"title"`
		Status   string `json:"status"`
		Priority string `json:"priority"`
		DueDate  string `json:"due_date,omitempty"`
	}
	tasks := make([]promptTask, len(req.Tasks))
	for i, t := range req.Tasks {
		tasks[i] = promptTask{ID: t.ID, Title: t.Title, Status: t.Status, Priority: t.Priority}
		if t.DueDate != nil {
			tasks[i].DueDate = t.DueDate.Format("2006-01-02")
		}
	}
	b, _ := json.Marshal(tasks)
	return fmt.Sprintf("Today is %s. Suggest at most %d tasks.\nTasks: %s",
		req.Today.Format("2006-01-02"), req.MaxSuggestions, b)
}

// parseFocusAnswer tolerates models that wrap the JSON in a code fence.
func parseFocusAnswer(content string) (*FocusAnswer, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	var answer FocusAnswer
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &answer); err != nil {
		return nil, fmt.Errorf("llm returned invalid json: %w", err)
	}
	return &answer, nil
}
