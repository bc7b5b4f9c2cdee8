package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shonaai/mufaro/internal/config"
	"github.com/shonaai/mufaro/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemory() *MemoryStorage {
	return NewMemoryStorage(&config.MemoryConfig{})
}

func TestGetProfileAbsent(t *testing.T) {
	s := newMemory()

	profile, err := s.GetProfile(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestCreateProfileAppliesDefaults(t *testing.T) {
	s := newMemory()
	ctx := context.Background()

	require.NoError(t, s.CreateProfile(ctx, "u1", "a@b.com", nil))

	profile, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Student", profile.Name)
	assert.Equal(t, "beginner", profile.Level)
	assert.Equal(t, "travel", profile.Goal)
	assert.Equal(t, "a@b.com", profile.Email)
	assert.False(t, profile.IsPremium)
	assert.False(t, profile.CreatedAt.IsZero())
}

func TestCreateProfileKeepsProvidedFields(t *testing.T) {
	s := newMemory()
	ctx := context.Background()

	require.NoError(t, s.CreateProfile(ctx, "u1", "a@b.com", &models.UserProfile{
		Name:  "Kuda",
		Level: "advanced",
		Goal:  "slang",
	}))

	profile, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Kuda", profile.Name)
	assert.Equal(t, "advanced", profile.Level)
	assert.Equal(t, "slang", profile.Goal)
}

func TestUpdateProfilePartial(t *testing.T) {
	s := newMemory()
	ctx := context.Background()

	require.NoError(t, s.CreateProfile(ctx, "u1", "a@b.com", nil))

	level := "intermediate"
	premium := true
	require.NoError(t, s.UpdateProfile(ctx, "u1", ProfileUpdate{Level: &level, IsPremium: &premium}))

	profile, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "intermediate", profile.Level)
	assert.True(t, profile.IsPremium)
	// untouched fields survive
	assert.Equal(t, "Student", profile.Name)
	assert.Equal(t, "travel", profile.Goal)
}

func TestUpdateProfileMissing(t *testing.T) {
	s := newMemory()

	name := "x"
	err := s.UpdateProfile(context.Background(), "nobody", ProfileUpdate{Name: &name})
	assert.Error(t, err)
}

func conversation(n int) []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, n)
	for i := 0; i < n; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleModel
		}
		msgs = append(msgs, models.ChatMessage{
			ID:        string(rune('a' + i)),
			Role:      role,
			Text:      "mhoro",
			Timestamp: time.Now(),
		})
	}
	return msgs
}

func TestAppendSessionSkipsTrivialConversations(t *testing.T) {
	s := newMemory()

	id, err := s.AppendSession(context.Background(), "u1", conversation(1))
	require.NoError(t, err)
	assert.Empty(t, id)

	sessions, err := s.ListRecentSessions(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestAppendSessionAndListRecent(t *testing.T) {
	s := newMemory()
	ctx := context.Background()

	first, err := s.AppendSession(ctx, "u1", conversation(2))
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := s.AppendSession(ctx, "u1", conversation(4))
	require.NoError(t, err)
	require.NotEmpty(t, second)
	require.NotEqual(t, first, second)

	sessions, err := s.ListRecentSessions(ctx, "u1", 5)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	// newest first
	assert.Equal(t, second, sessions[0].ID)
	assert.Equal(t, 4, sessions[0].MessageCount)
	assert.Equal(t, first, sessions[1].ID)
	assert.Equal(t, 2, sessions[1].MessageCount)
}

func TestListRecentSessionsHonorsCount(t *testing.T) {
	s := newMemory()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := s.AppendSession(ctx, "u1", conversation(2))
		require.NoError(t, err)
	}

	sessions, err := s.ListRecentSessions(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestSessionsAreScopedByUser(t *testing.T) {
	s := newMemory()
	ctx := context.Background()

	_, err := s.AppendSession(ctx, "u1", conversation(2))
	require.NoError(t, err)

	sessions, err := s.ListRecentSessions(ctx, "u2", 5)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
