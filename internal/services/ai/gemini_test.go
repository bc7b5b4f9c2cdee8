package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shonaai/mufaro/internal/config"
	"github.com/shonaai/mufaro/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClient(baseURL string) *GeminiClient {
	return NewGeminiClient(&config.ModelConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		ID:          "test-model",
		MaxTokens:   256,
		Temperature: 0.7,
	}, testLogger())
}

func sseFrame(content string) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"delta": map[string]string{"content": content}},
		},
	})
	return fmt.Sprintf("data: %s\n\n", payload)
}

func collect(t *testing.T, stream Stream) []string {
	t.Helper()
	var chunks []string
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			return chunks
		}
		require.NoError(t, err)
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
}

func TestStreamChatDecodesChunksInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])
		assert.Equal(t, "test-model", body["model"])

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, sseFrame("Mho"))
		io.WriteString(w, sseFrame("ro! "))
		io.WriteString(w, sseFrame("(Hello!)"))
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	stream, err := client.StreamChat(context.Background(), []models.Message{
		{Role: "user", Content: "say hello"},
	})
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []string{"Mho", "ro! ", "(Hello!)"}, collect(t, stream))
}

func TestStreamChatIgnoresCommentsAndBlankLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, ": keep-alive\n\n")
		io.WriteString(w, sseFrame("Mhoro"))
		io.WriteString(w, "\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	stream, err := client.StreamChat(context.Background(), nil)
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []string{"Mhoro"}, collect(t, stream))
}

func TestStreamChatEndsAtBodyClose(t *testing.T) {
	// some providers close the body without a [DONE] frame
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, sseFrame("Mhoro"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	stream, err := client.StreamChat(context.Background(), nil)
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []string{"Mhoro"}, collect(t, stream))
}

func TestStreamChatClassifiesUnauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			io.WriteString(w, `{"error":{"message":"bad key"}}`)
		}))

		client := newTestClient(server.URL)
		_, err := client.StreamChat(context.Background(), nil)
		require.ErrorIs(t, err, ErrUnauthorized, "status %d", status)

		server.Close()
	}
}

func TestStreamChatOtherStatusIsGenericError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.StreamChat(context.Background(), nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestStreamChatMalformedFrame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: not json\n\n")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	stream, err := client.StreamChat(context.Background(), nil)
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Recv()
	require.ErrorIs(t, err, ErrBadResponse)
}
