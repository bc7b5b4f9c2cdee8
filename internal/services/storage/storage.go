package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shonaai/mufaro/internal/config"
	"github.com/shonaai/mufaro/internal/middleware"
	"github.com/shonaai/mufaro/internal/models"
	"github.com/sirupsen/logrus"
)

// ProfileUpdate is a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	Name      *string
	Level     *string
	Goal      *string
	IsPremium *bool
}

// Storage interface defines profile and session persistence operations
type Storage interface {
	CreateProfile(ctx context.Context, uid, email string, profile *models.UserProfile) error
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, uid string, update ProfileUpdate) error

	AppendSession(ctx context.Context, uid string, messages []models.ChatMessage) (string, error)
	ListRecentSessions(ctx context.Context, uid string, count int) ([]models.SessionSummary, error)
}

// storedSession is the persisted shape of a finished conversation
type storedSession struct {
	ID           string               `json:"id"`
	Messages     []models.ChatMessage `json:"messages"`
	MessageCount int                  `json:"message_count"`
	SavedAt      time.Time            `json:"saved_at"`
}

// Manager wraps a storage backend with logging and metrics
type Manager struct {
	storage Storage
	metrics *middleware.Metrics
	logger  *logrus.Logger

	redisClient *redis.Client
}

// NewManager creates a new storage manager
func NewManager(cfg *config.Config, metrics *middleware.Metrics, logger *logrus.Logger) (*Manager, error) {
	manager := &Manager{metrics: metrics, logger: logger}

	switch cfg.Storage.Type {
	case "redis":
		redisStorage, err := NewRedisStorage(&cfg.Storage.Redis, logger)
		if err != nil {
			return nil, err
		}
		manager.storage = redisStorage
		manager.redisClient = redisStorage.client
	case "memory":
		manager.storage = NewMemoryStorage(&cfg.Storage.Memory)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	return manager, nil
}

func (m *Manager) record(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.metrics.RecordStorageOperation(operation, status)
}

func (m *Manager) CreateProfile(ctx context.Context, uid, email string, profile *models.UserProfile) error {
	err := m.storage.CreateProfile(ctx, uid, email, profile)
	m.record("create_profile", err)
	return err
}

func (m *Manager) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	profile, err := m.storage.GetProfile(ctx, uid)
	m.record("get_profile", err)
	return profile, err
}

func (m *Manager) UpdateProfile(ctx context.Context, uid string, update ProfileUpdate) error {
	err := m.storage.UpdateProfile(ctx, uid, update)
	m.record("update_profile", err)
	return err
}

func (m *Manager) AppendSession(ctx context.Context, uid string, messages []models.ChatMessage) (string, error) {
	id, err := m.storage.AppendSession(ctx, uid, messages)
	m.record("append_session", err)
	if err != nil {
		m.logger.WithError(err).WithField("uid", uid).Error("Failed to save chat session")
		return "", err
	}
	if id != "" {
		m.logger.WithFields(logrus.Fields{
			"uid":        uid,
			"session_id": id,
			"messages":   len(messages),
		}).Info("Chat session saved")
	}
	return id, nil
}

func (m *Manager) ListRecentSessions(ctx context.Context, uid string, count int) ([]models.SessionSummary, error) {
	summaries, err := m.storage.ListRecentSessions(ctx, uid, count)
	m.record("list_sessions", err)
	return summaries, err
}

// GetRedisClient returns the Redis client if available
func (m *Manager) GetRedisClient() *redis.Client {
	return m.redisClient
}

// applyUpdate merges a partial update and bumps last-active
func applyUpdate(profile *models.UserProfile, update ProfileUpdate) {
	if update.Name != nil {
		profile.Name = *update.Name
	}
	if update.Level != nil {
		profile.Level = *update.Level
	}
	if update.Goal != nil {
		profile.Goal = *update.Goal
	}
	if update.IsPremium != nil {
		profile.IsPremium = *update.IsPremium
	}
	profile.LastActive = time.Now()
}

// normalizeProfile fills profile defaults the way onboarding expects
func normalizeProfile(email string, profile *models.UserProfile) models.UserProfile {
	p := models.UserProfile{Email: email, Name: "Student", Level: "beginner", Goal: "travel"}
	if profile != nil {
		if profile.Name != "" {
			p.Name = profile.Name
		}
		if profile.Level != "" {
			p.Level = profile.Level
		}
		if profile.Goal != "" {
			p.Goal = profile.Goal
		}
	}
	now := time.Now()
	p.CreatedAt = now
	p.LastActive = now
	return p
}

// RedisStorage implements storage using Redis
type RedisStorage struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisStorage(cfg *config.RedisConfig, logger *logrus.Logger) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStorage{client: client, logger: logger}, nil
}

func profileKey(uid string) string      { return fmt.Sprintf("profile:%s", uid) }
func sessionKey(uid, id string) string  { return fmt.Sprintf("session:%s:%s", uid, id) }
func sessionIndexKey(uid string) string { return fmt.Sprintf("sessions:%s", uid) }

func (r *RedisStorage) CreateProfile(ctx context.Context, uid, email string, profile *models.UserProfile) error {
	p := normalizeProfile(email, profile)
	data, err := json.Marshal(&p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, profileKey(uid), data, 0).Err()
}

func (r *RedisStorage) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	data, err := r.client.Get(ctx, profileKey(uid)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *RedisStorage) UpdateProfile(ctx context.Context, uid string, update ProfileUpdate) error {
	profile, err := r.GetProfile(ctx, uid)
	if err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("profile not found: %s", uid)
	}

	applyUpdate(profile, update)
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, profileKey(uid), data, 0).Err()
}

func (r *RedisStorage) AppendSession(ctx context.Context, uid string, messages []models.ChatMessage) (string, error) {
	// A session with fewer than two turns never had a real exchange
	if len(messages) < 2 {
		return "", nil
	}

	session := storedSession{
		ID:           uuid.NewString(),
		Messages:     messages,
		MessageCount: len(messages),
		SavedAt:      time.Now(),
	}

	data, err := json.Marshal(&session)
	if err != nil {
		return "", err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(uid, session.ID), data, 0)
	pipe.ZAdd(ctx, sessionIndexKey(uid), &redis.Z{
		Score:  float64(session.SavedAt.UnixMilli()),
		Member: session.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}

	return session.ID, nil
}

func (r *RedisStorage) ListRecentSessions(ctx context.Context, uid string, count int) ([]models.SessionSummary, error) {
	ids, err := r.client.ZRevRange(ctx, sessionIndexKey(uid), 0, int64(count-1)).Result()
	if err != nil {
		return nil, err
	}

	summaries := make([]models.SessionSummary, 0, len(ids))
	for _, id := range ids {
		data, err := r.client.Get(ctx, sessionKey(uid, id)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}

		var session storedSession
		if err := json.Unmarshal([]byte(data), &session); err != nil {
			return nil, err
		}
		summaries = append(summaries, models.SessionSummary{
			ID:           session.ID,
			MessageCount: session.MessageCount,
			SavedAt:      session.SavedAt,
		})
	}

	return summaries, nil
}

// MemoryStorage implements storage using in-memory caches
type MemoryStorage struct {
	profiles *cache.Cache
	sessions *cache.Cache
}

func NewMemoryStorage(cfg *config.MemoryConfig) *MemoryStorage {
	cleanup := cfg.CleanupInterval
	if cleanup == 0 {
		cleanup = 10 * time.Minute
	}
	return &MemoryStorage{
		profiles: cache.New(cache.NoExpiration, cleanup),
		sessions: cache.New(cache.NoExpiration, cleanup),
	}
}

func (m *MemoryStorage) CreateProfile(ctx context.Context, uid, email string, profile *models.UserProfile) error {
	p := normalizeProfile(email, profile)
	m.profiles.Set(profileKey(uid), &p, cache.NoExpiration)
	return nil
}

func (m *MemoryStorage) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	if val, found := m.profiles.Get(profileKey(uid)); found {
		copied := *val.(*models.UserProfile)
		return &copied, nil
	}
	return nil, nil
}

func (m *MemoryStorage) UpdateProfile(ctx context.Context, uid string, update ProfileUpdate) error {
	val, found := m.profiles.Get(profileKey(uid))
	if !found {
		return fmt.Errorf("profile not found: %s", uid)
	}

	profile := val.(*models.UserProfile)
	applyUpdate(profile, update)
	return nil
}

func (m *MemoryStorage) AppendSession(ctx context.Context, uid string, messages []models.ChatMessage) (string, error) {
	if len(messages) < 2 {
		return "", nil
	}

	session := storedSession{
		ID:           uuid.NewString(),
		Messages:     append([]models.ChatMessage{}, messages...),
		MessageCount: len(messages),
		SavedAt:      time.Now(),
	}

	var sessions []storedSession
	if val, found := m.sessions.Get(sessionIndexKey(uid)); found {
		sessions = val.([]storedSession)
	}
	// newest first
	sessions = append([]storedSession{session}, sessions...)
	m.sessions.Set(sessionIndexKey(uid), sessions, cache.NoExpiration)

	return session.ID, nil
}

func (m *MemoryStorage) ListRecentSessions(ctx context.Context, uid string, count int) ([]models.SessionSummary, error) {
	val, found := m.sessions.Get(sessionIndexKey(uid))
	if !found {
		return nil, nil
	}

	sessions := val.([]storedSession)
	if count > len(sessions) {
		count = len(sessions)
	}

	summaries := make([]models.SessionSummary, 0, count)
	for _, s := range sessions[:count] {
		summaries = append(summaries, models.SessionSummary{
			ID:           s.ID,
			MessageCount: s.MessageCount,
			SavedAt:      s.SavedAt,
		})
	}
	return summaries, nil
}
