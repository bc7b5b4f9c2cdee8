package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shonaai/mufaro/internal/config"
	"github.com/shonaai/mufaro/internal/i18n"
	"github.com/shonaai/mufaro/internal/middleware"
	"github.com/shonaai/mufaro/internal/models"
	"github.com/shonaai/mufaro/internal/services/ai"
	"github.com/shonaai/mufaro/internal/services/chat"
	"github.com/shonaai/mufaro/internal/services/knowledge"
	"github.com/shonaai/mufaro/internal/services/storage"
	"github.com/shonaai/mufaro/pkg/logger"
	"github.com/shonaai/mufaro/pkg/markdown"
	"github.com/sirupsen/logrus"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	uid := flag.String("uid", "local", "User id for profile and session storage")
	email := flag.String("email", "student@example.com", "Email for a freshly created profile")
	lang := flag.String("lang", "", "UI language (overrides config)")
	flag.Parse()

	// Load .env file if exists
	if err := godotenv.Load(*envFile); err != nil {
		// It's okay if .env doesn't exist
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting Mufaro tutor...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := middleware.NewMetrics()

	// Initialize storage
	storageManager, err := storage.NewManager(cfg, metrics, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}

	// Initialize i18n
	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	uiLang := cfg.I18n.DefaultLanguage
	if *lang != "" {
		uiLang = *lang
	}

	// Initialize services
	aiClient := ai.NewGeminiClient(&cfg.Model, log)
	knowledgeService := knowledge.NewSlangService(log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Start metrics server if enabled
	if cfg.Monitoring.Metrics.Enabled {
		go func() {
			log.WithFields(logrus.Fields{
				"port": cfg.Monitoring.Metrics.Port,
				"path": cfg.Monitoring.Metrics.Path,
			}).Info("Starting metrics server")

			if err := middleware.StartMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// Load or create the learner profile
	profile, err := storageManager.GetProfile(ctx, *uid)
	if err != nil {
		log.WithError(err).Fatal("Failed to load profile")
	}
	if profile == nil {
		if err := storageManager.CreateProfile(ctx, *uid, *email, nil); err != nil {
			log.WithError(err).Fatal("Failed to create profile")
		}
		profile, err = storageManager.GetProfile(ctx, *uid)
		if err != nil || profile == nil {
			log.WithError(err).Fatal("Failed to reload profile")
		}
	}

	// Initialize the chat session
	session := chat.NewSession(aiClient, knowledgeService, rateLimiter, metrics, &cfg.Tutor, log)
	session.InitChat(profile.Level, profile.Goal)

	transcript := &transcript{}

	// Save whatever was said on the way out
	saveAndExit := func(code int) {
		messages := transcript.snapshot()
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer saveCancel()

		if id, err := storageManager.AppendSession(saveCtx, *uid, messages); err == nil && id != "" {
			fmt.Println(localizer.Get(uiLang, i18n.MsgSessionSaved, map[string]interface{}{"Count": len(messages)}))
		}
		fmt.Println(localizer.Get(uiLang, i18n.MsgGoodbye, nil))
		os.Exit(code)
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutdown signal received")
		cancel()
		saveAndExit(0)
	}()

	fmt.Println(localizer.Get(uiLang, i18n.MsgWelcome, map[string]interface{}{"Name": profile.Name}))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" || text == "/exit" {
			break
		}

		transcript.append(models.ChatMessage{
			ID:        uuid.NewString(),
			Role:      models.RoleUser,
			Text:      text,
			Timestamp: time.Now(),
		})

		reply, err := session.SendMessage(ctx, text, func(chunk string) {
			fmt.Print(chunk)
		})
		fmt.Println()

		if err != nil {
			fmt.Println(errorMessage(localizer, uiLang, err))
			continue
		}

		transcript.append(models.ChatMessage{
			ID:               uuid.NewString(),
			Role:             models.RoleModel,
			Text:             markdown.ToTerminalText(reply.Text),
			Timestamp:        time.Now(),
			RetrievedContext: reply.Context,
		})

		if len(reply.Context) > 0 {
			fmt.Println()
			fmt.Println(localizer.Get(uiLang, i18n.MsgContextHeader, nil))
			for _, snippet := range reply.Context {
				fmt.Printf("  - %s\n", snippet)
			}
		}
	}

	saveAndExit(0)
}

// errorMessage maps the failure category to localized user-facing text.
// Categories come from typed errors, never from message content.
func errorMessage(localizer *i18n.Localizer, lang string, err error) string {
	var rateLimited *chat.RateLimitedError

	switch {
	case errors.As(err, &rateLimited):
		return localizer.Get(lang, i18n.MsgRateLimited, map[string]interface{}{
			"Wait": middleware.FormatRetryTime(rateLimited.RetryAfter),
		})
	case errors.Is(err, chat.ErrSessionExpired):
		return localizer.Get(lang, i18n.MsgSessionExpired, nil)
	case errors.Is(err, chat.ErrTimeout):
		return localizer.Get(lang, i18n.MsgTimeout, nil)
	case errors.Is(err, ai.ErrUnauthorized):
		return localizer.Get(lang, i18n.MsgAuthError, nil)
	default:
		return localizer.Get(lang, i18n.MsgNetworkError, nil)
	}
}

// transcript collects the visible conversation for persistence
type transcript struct {
	mu       sync.Mutex
	messages []models.ChatMessage
}

func (t *transcript) append(msg models.ChatMessage) {
	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
}

func (t *transcript) snapshot() []models.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.ChatMessage{}, t.messages...)
}
