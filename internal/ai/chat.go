package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	OpenAIBaseURL = "https://api.openai.com/v1"
	GroqBaseURL   = "https://api.groq.com/openai/v1"

	defaultChatModel = "gpt-4o-mini"
)

// ErrUnusableResponse is a completed call whose answer could not be read.
var ErrUnusableResponse = errors.New("unusable model response")

// APIError is a completed call the provider rejected.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Message)
}

// ChatClient talks to any OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewChatClient(apiKey, model, baseURL string) *ChatClient {
	if model == "" {
		model = defaultChatModel
	}
	if baseURL == "" {
		baseURL = OpenAIBaseURL
	}
	return &ChatClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *ChatClient) Complete(ctx context.Context, system, user string) (Completion, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return Completion{}, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Completion{}, &APIError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return Completion{}, fmt.Errorf("%w: failed to decode response: %v", ErrUnusableResponse, err)
	}
	if chatResp.Error != nil {
		return Completion{}, &APIError{StatusCode: resp.StatusCode, Message: chatResp.Error.Message}
	}
	if len(chatResp.Choices) == 0 {
		return Completion{Tokens: chatResp.Usage.TotalTokens}, fmt.Errorf("%w: no choices returned", ErrUnusableResponse)
	}

	return Completion{
		Text:   chatResp.Choices[0].Message.Content,
		Tokens: chatResp.Usage.TotalTokens,
	}, nil
}
