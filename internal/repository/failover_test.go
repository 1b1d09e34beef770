package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"shorebook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetSession(ctx context.Context, sessionID string) (*models.ResolutionState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResolutionState), args.Error(1)
}

func (m *mockRepo) SaveSession(ctx context.Context, state *models.ResolutionState) error {
	return m.Called(ctx, state).Error(0)
}

func (m *mockRepo) DeleteSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func TestFailoverSessionRepository(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	t.Run("PrimaryHealthy", func(t *testing.T) {
		primary := new(mockRepo)
		fallback := new(mockRepo)
		repo := NewFailoverSessionRepository(primary, fallback, &logger)

		state := &models.ResolutionState{SessionID: "sess-1"}
		primary.On("GetSession", ctx, "sess-1").Return(state, nil)

		got, err := repo.GetSession(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, state, got)
		fallback.AssertNotCalled(t, "GetSession", mock.Anything, mock.Anything)
	})

	t.Run("FallsBackOnPrimaryFailure", func(t *testing.T) {
		primary := new(mockRepo)
		fallback := new(mockRepo)
		repo := NewFailoverSessionRepository(primary, fallback, &logger)

		state := &models.ResolutionState{SessionID: "sess-2"}
		primary.On("GetSession", ctx, "sess-2").Return(nil, errors.New("connection refused")).Once()
		fallback.On("GetSession", ctx, "sess-2").Return(state, nil)

		got, err := repo.GetSession(ctx, "sess-2")
		require.NoError(t, err)
		assert.Equal(t, state, got)

		// Subsequent calls skip the failed primary entirely.
		got, err = repo.GetSession(ctx, "sess-2")
		require.NoError(t, err)
		assert.Equal(t, state, got)
		primary.AssertNumberOfCalls(t, "GetSession", 1)
	})

	t.Run("SaveFallsBack", func(t *testing.T) {
		primary := new(mockRepo)
		fallback := new(mockRepo)
		repo := NewFailoverSessionRepository(primary, fallback, &logger)

		state := &models.ResolutionState{SessionID: "sess-3"}
		primary.On("SaveSession", ctx, state).Return(errors.New("connection refused")).Once()
		fallback.On("SaveSession", ctx, state).Return(nil)

		require.NoError(t, repo.SaveSession(ctx, state))
		fallback.AssertExpectations(t)
	})

	t.Run("DeleteFallsBack", func(t *testing.T) {
		primary := new(mockRepo)
		fallback := new(mockRepo)
		repo := NewFailoverSessionRepository(primary, fallback, &logger)

		primary.On("DeleteSession", ctx, "sess-4").Return(errors.New("connection refused")).Once()
		fallback.On("DeleteSession", ctx, "sess-4").Return(nil)

		require.NoError(t, repo.DeleteSession(ctx, "sess-4"))
		fallback.AssertExpectations(t)
	})

	t.Run("PrimaryRecoversAfterCooldown", func(t *testing.T) {
		primary := new(mockRepo)
		fallback := new(mockRepo)
		repo := NewFailoverSessionRepository(primary, fallback, &logger)
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		state := &models.ResolutionState{SessionID: "sess-5"}
		primary.On("GetSession", ctx, "sess-5").Return(state, nil)

		got, err := repo.GetSession(ctx, "sess-5")
		require.NoError(t, err)
		assert.Equal(t, state, got)
		assert.False(t, repo.isDown.Load())
	})
}
