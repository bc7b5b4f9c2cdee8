package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shonaai/mufaro/internal/config"
	"github.com/shonaai/mufaro/internal/models"
	"github.com/sirupsen/logrus"
)

// Classification happens here at the transport boundary so callers match on
// error values instead of sniffing message text.
var (
	// ErrUnauthorized means the provider rejected the API credentials.
	// Retrying will not help.
	ErrUnauthorized = errors.New("model API rejected credentials")

	// ErrBadResponse means the provider answered with something the
	// client could not decode.
	ErrBadResponse = errors.New("malformed model API response")
)

// Stream is an in-flight model response. Recv returns chunks in arrival
// order and io.EOF at end of stream.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Service represents the model API transport
type Service interface {
	StreamChat(ctx context.Context, messages []models.Message) (Stream, error)
	ModelID() string
}

// GeminiClient talks to an OpenAI-compatible chat completions endpoint
type GeminiClient struct {
	cfg        *config.ModelConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewGeminiClient creates a new model API client
func NewGeminiClient(cfg *config.ModelConfig, logger *logrus.Logger) *GeminiClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &GeminiClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ModelID returns the configured model identifier
func (c *GeminiClient) ModelID() string {
	return c.cfg.ID
}

// StreamChat opens a streaming completion for the given turns. The
// returned Stream is live once the response headers have arrived.
func (c *GeminiClient) StreamChat(ctx context.Context, messages []models.Message) (Stream, error) {
	reqBody := map[string]interface{}{
		"model":       c.cfg.ID,
		"messages":    messages,
		"max_tokens":  c.cfg.MaxTokens,
		"temperature": c.cfg.Temperature,
		"stream":      true,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimSuffix(c.cfg.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))

	c.logger.WithFields(logrus.Fields{
		"model": c.cfg.ID,
		"url":   url,
		"turns": len(messages),
	}).Debug("Opening model stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		c.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Error("Model request failed")

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
		}
		return nil, fmt.Errorf("model request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return &sseStream{
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
	}, nil
}

// sseStream decodes server-sent-event frames into text chunks
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

type chunkPayload struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Recv advances the stream to the next data frame. Frames without text
// content yield an empty string; [DONE] and body end yield io.EOF.
func (s *sseStream) Recv() (string, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return "", io.EOF
		}

		var payload chunkPayload
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		if len(payload.Choices) == 0 {
			return "", nil
		}
		return payload.Choices[0].Delta.Content, nil
	}

	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("stream read failed: %w", err)
	}
	return "", io.EOF
}

func (s *sseStream) Close() error {
	return s.body.Close()
}
