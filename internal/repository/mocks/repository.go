package mocks

import (
	"context"

	"pathways-server/internal/domain"
	"pathways-server/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock SaveRepository
type SaveRepository struct {
	mock.Mock
}

func (m *SaveRepository) Create(ctx context.Context, st *domain.GameState) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}
func (m *SaveRepository) Get(ctx context.Context, id uuid.UUID) (*domain.GameState, error) {
	args := m.Called(ctx, id)
	st, _ := args.Get(0).(*domain.GameState)
	return st, args.Error(1)
}
func (m *SaveRepository) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.GameStateSummary, error) {
	args := m.Called(ctx, playerID)
	list, _ := args.Get(0).([]domain.GameStateSummary)
	return list, args.Error(1)
}
func (m *SaveRepository) Update(ctx context.Context, st *domain.GameState, expectedVersion int64) error {
	args := m.Called(ctx, st, expectedVersion)
	return args.Error(0)
}
func (m *SaveRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock ProfileRepository
type ProfileRepository struct {
	mock.Mock
}

func (m *ProfileRepository) Ensure(ctx context.Context, playerID uuid.UUID, displayName string) (*domain.Profile, error) {
	args := m.Called(ctx, playerID, displayName)
	p, _ := args.Get(0).(*domain.Profile)
	return p, args.Error(1)
}
func (m *ProfileRepository) Get(ctx context.Context, playerID uuid.UUID) (*domain.Profile, error) {
	args := m.Called(ctx, playerID)
	p, _ := args.Get(0).(*domain.Profile)
	return p, args.Error(1)
}

// Mock ChoiceLock
type ChoiceLock struct {
	mock.Mock
}

func (m *ChoiceLock) Acquire(ctx context.Context, saveID uuid.UUID) (repository.Unlock, error) {
	args := m.Called(ctx, saveID)
	unlock, _ := args.Get(0).(repository.Unlock)
	return unlock, args.Error(1)
}

var (
	_ repository.SaveRepository    = (*SaveRepository)(nil)
	_ repository.ProfileRepository = (*ProfileRepository)(nil)
	_ repository.ChoiceLock        = (*ChoiceLock)(nil)
)
