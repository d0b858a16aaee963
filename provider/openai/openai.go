package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const openaiBaseURL = "https://api.openai.com/v1"

// client implements the provider interface using OpenAI's API
type client struct {
	apiKey          string
	baseURL         string
	completionModel string
	embeddingModel  string
	temperature     float64
	maxTokens       int
	retries         int
	backoff         time.Duration
	httpClient      *http.Client
}

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request represents a chat completion request to the OpenAI API
type request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// response represents a chat completion response from the OpenAI API
type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(apiKey, completionModel, embeddingModel string, temperature float64, maxTokens int, timeout time.Duration, retries int) *client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &client{
		apiKey:          apiKey,
		baseURL:         openaiBaseURL,
		completionModel: completionModel,
		embeddingModel:  embeddingModel,
		temperature:     temperature,
		maxTokens:       maxTokens,
		retries:         retries,
		backoff:         300 * time.Millisecond,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

// CreateCompletion sends a chat completion request and returns the first
// choice's content. Transient failures (transport errors, 429, 5xx) are
// retried with exponential backoff up to the configured retry budget; other
// statuses fail immediately.
func (c *client) CreateCompletion(ctx context.Context, messages []Message, jsonMode bool) (string, error) {
	reqBody := request{
		Model:       c.completionModel,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var openaiResp response
	if err := c.doJSON(ctx, c.baseURL+"/chat/completions", jsonData, &openaiResp); err != nil {
		return "", err
	}
	if len(openaiResp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return openaiResp.Choices[0].Message.Content, nil
}

// CreateEmbedding generates an embedding for the given texts using OpenAI's API
func (c *client) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	requestBody := map[string]interface{}{
		"model": c.embeddingModel,
		"input": texts,
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var openaiResp struct {
		Data []struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := c.doJSON(ctx, c.baseURL+"/embeddings", jsonData, &openaiResp); err != nil {
		return nil, err
	}

	vecs := make([][]float32, len(openaiResp.Data))
	for i, d := range openaiResp.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

func (c *client) doJSON(ctx context.Context, url string, body []byte, out any) error {
	var lastErr error
	tries := c.retries + 1
	for attempt := 0; attempt < tries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to send request: %w", err)
		} else {
			func() {
				defer resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					lastErr = json.NewDecoder(resp.Body).Decode(out)
					if lastErr != nil {
						lastErr = fmt.Errorf("failed to parse response: %w", lastErr)
					}
					return
				}
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				lastErr = fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(b))
			}()
			if resp.StatusCode == http.StatusOK {
				return lastErr
			}
			if !retryable(resp.StatusCode) {
				return lastErr
			}
		}

		if attempt < tries-1 {
			select {
			case <-time.After(c.backoff * time.Duration(1<<attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
