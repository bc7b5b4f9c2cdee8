package chat

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shonaai/mufaro/internal/config"
	"github.com/shonaai/mufaro/internal/middleware"
	"github.com/shonaai/mufaro/internal/models"
	"github.com/shonaai/mufaro/internal/services/ai"
	"github.com/shonaai/mufaro/internal/services/knowledge"
	"github.com/sirupsen/logrus"
)

const systemInstruction = `You are Mufaro, the official AI tutor for ShonaAI.
Your goal is to help the user learn the Shona language (ChiShona) and Zimbabwean culture.

STRICT RULES:
1. **Translation Mandatory**: Every single Shona sentence you write MUST be immediately followed by its English translation in parentheses.
   - Example: "Mhoro! (Hello!) Wakadii hako? (How are you?)"
2. **Conciseness**: Your total response must be **under 100 words**. Be brief and to the point.
3. **Format**: Use **Markdown**. Use bolding for key Shona terms. Use bullet points for lists.
4. **Knowledge Source**: You have access to a specialized slang database. If the context contains a term, use that specific definition. If not, provide common knowledge but keep it simple.
5. **Tone**: Warm, friendly, and authentic.`

// Reply is the result of a completed exchange
type Reply struct {
	// Context holds the knowledge base snippets that augmented the
	// prompt, for provenance display after the stream finishes.
	Context []string

	// Text is the full assembled model response.
	Text string
}

// Session owns one conversation with the model: admission control,
// retrieval augmentation, the stream timeout race and ordered chunk
// delivery. It does not guard against concurrent SendMessage calls; the
// caller must finish one exchange before starting the next.
type Session struct {
	aiService   ai.Service
	knowledge   knowledge.Service
	limiter     middleware.RateLimiter
	metrics     *middleware.Metrics
	logger      *logrus.Logger
	timeout     time.Duration
	maxMessages int

	history []models.Message
	active  bool
}

// NewSession creates an uninitialized session. InitChat must be called
// before SendMessage.
func NewSession(
	aiService ai.Service,
	knowledgeService knowledge.Service,
	limiter middleware.RateLimiter,
	metrics *middleware.Metrics,
	cfg *config.TutorConfig,
	logger *logrus.Logger,
) *Session {
	return &Session{
		aiService:   aiService,
		knowledge:   knowledgeService,
		limiter:     limiter,
		metrics:     metrics,
		logger:      logger,
		timeout:     cfg.StreamTimeout,
		maxMessages: cfg.MaxMessages,
	}
}

// InitChat starts a fresh conversation tuned to the learner's level and
// goal. Calling it again discards the previous conversation.
func (s *Session) InitChat(level, goal string) {
	contextPrompt := fmt.Sprintf("The user is at a %s level and their main goal is %s.", level, goal)

	s.history = []models.Message{
		{Role: "system", Content: systemInstruction + "\n" + contextPrompt},
	}
	s.active = true

	s.logger.WithFields(logrus.Fields{
		"level": level,
		"goal":  goal,
	}).Info("Chat session initialized")
}

// SendMessage runs one exchange: limiter gate, knowledge retrieval, prompt
// augmentation, then the streaming model call raced against the timeout.
// onChunk is invoked synchronously for every non-empty chunk in arrival
// order. The returned Reply carries the snippets used for augmentation.
func (s *Session) SendMessage(ctx context.Context, message string, onChunk func(string)) (*Reply, error) {
	if !s.active {
		return nil, ErrSessionExpired
	}

	// Admission first: a denied check must not reach the network.
	check := s.limiter.CheckModelAPI()
	if !check.Allowed {
		s.metrics.RecordRateLimitDenied(middleware.ModelAPIAction)
		s.metrics.RecordMessageSent("rate_limited")
		return nil, &RateLimitedError{RetryAfter: check.RetryAfter}
	}

	hits := s.knowledge.Retrieve(message)
	s.metrics.RecordRetrievalHits(len(hits))

	snippets := make([]string, 0, len(hits))
	for _, h := range hits {
		snippets = append(snippets, h.Snippet())
	}

	finalPrompt := message
	if len(snippets) > 0 {
		finalPrompt = fmt.Sprintf("[KNOWLEDGE BASE CONTEXT]\n%s\n\n[USER MESSAGE]\n%s",
			strings.Join(snippets, "\n"), message)
	}

	turns := append(append([]models.Message{}, s.history...), models.Message{
		Role:    "user",
		Content: finalPrompt,
	})

	started := time.Now()
	stream, err := s.openStream(ctx, turns)
	if err != nil {
		s.metrics.RecordModelRequest(s.aiService.ModelID(), "error", time.Since(started))
		s.metrics.RecordMessageSent("error")
		return nil, err
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.metrics.RecordModelRequest(s.aiService.ModelID(), "error", time.Since(started))
			s.metrics.RecordMessageSent("error")
			return nil, err
		}
		if chunk == "" {
			continue
		}

		onChunk(chunk)
		reply.WriteString(chunk)
		s.metrics.RecordStreamChunk()
	}

	s.metrics.RecordModelRequest(s.aiService.ModelID(), "success", time.Since(started))
	s.metrics.RecordMessageSent("success")

	s.history = append(s.history,
		models.Message{Role: "user", Content: finalPrompt},
		models.Message{Role: "assistant", Content: reply.String()},
	)
	s.trimHistory()

	return &Reply{Context: snippets, Text: reply.String()}, nil
}

// openStream races the stream open against the timeout. Losing the race
// returns ErrTimeout immediately; the underlying call is abandoned and
// cleaned up in the background, best effort.
func (s *Session) openStream(ctx context.Context, turns []models.Message) (ai.Stream, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	type openResult struct {
		stream ai.Stream
		err    error
	}
	opened := make(chan openResult, 1)

	go func() {
		stream, err := s.aiService.StreamChat(streamCtx, turns)
		opened <- openResult{stream: stream, err: err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case res := <-opened:
		if res.err != nil {
			cancel()
			return nil, res.err
		}
		return &cancelStream{Stream: res.stream, cancel: cancel}, nil
	case <-timer.C:
		s.logger.WithField("timeout", s.timeout).Warn("Model stream open timed out")
		go func() {
			if res := <-opened; res.stream != nil {
				res.stream.Close()
			}
			cancel()
		}()
		return nil, ErrTimeout
	}
}

// trimHistory bounds the conversation, always keeping the system turn
func (s *Session) trimHistory() {
	if s.maxMessages <= 0 || len(s.history) <= s.maxMessages {
		return
	}
	trimmed := []models.Message{s.history[0]}
	trimmed = append(trimmed, s.history[len(s.history)-(s.maxMessages-1):]...)
	s.history = trimmed
}

// cancelStream releases the request context when the stream is closed
type cancelStream struct {
	ai.Stream
	cancel context.CancelFunc
}

func (c *cancelStream) Close() error {
	err := c.Stream.Close()
	c.cancel()
	return err
}
