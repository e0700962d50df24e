package mocks

import (
	"context"

	"pathways-server/internal/domain"
	"pathways-server/internal/graph"
	"pathways-server/internal/resolver"
	"pathways-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock GameService
type GameService struct {
	mock.Mock
}

func (m *GameService) EnsureProfile(ctx context.Context, playerID uuid.UUID, displayName string) (*domain.Profile, error) {
	args := m.Called(ctx, playerID, displayName)
	p, _ := args.Get(0).(*domain.Profile)
	return p, args.Error(1)
}
func (m *GameService) Characters() []*domain.Character {
	args := m.Called()
	list, _ := args.Get(0).([]*domain.Character)
	return list
}
func (m *GameService) StartGame(ctx context.Context, playerID uuid.UUID, characterID, locale string) (*resolver.Outcome, error) {
	args := m.Called(ctx, playerID, characterID, locale)
	out, _ := args.Get(0).(*resolver.Outcome)
	return out, args.Error(1)
}
func (m *GameService) GetSave(ctx context.Context, playerID, saveID uuid.UUID) (*domain.GameState, error) {
	args := m.Called(ctx, playerID, saveID)
	st, _ := args.Get(0).(*domain.GameState)
	return st, args.Error(1)
}
func (m *GameService) ListSaves(ctx context.Context, playerID uuid.UUID) ([]domain.GameStateSummary, error) {
	args := m.Called(ctx, playerID)
	list, _ := args.Get(0).([]domain.GameStateSummary)
	return list, args.Error(1)
}
func (m *GameService) CurrentNode(ctx context.Context, playerID, saveID uuid.UUID) (*graph.Presented, error) {
	args := m.Called(ctx, playerID, saveID)
	p, _ := args.Get(0).(*graph.Presented)
	return p, args.Error(1)
}
func (m *GameService) MakeChoice(ctx context.Context, req service.ChoiceRequest) (*resolver.Outcome, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(*resolver.Outcome)
	return out, args.Error(1)
}
func (m *GameService) TalkTo(ctx context.Context, playerID, saveID uuid.UUID, characterID, locale string) (*resolver.Outcome, error) {
	args := m.Called(ctx, playerID, saveID, characterID, locale)
	out, _ := args.Get(0).(*resolver.Outcome)
	return out, args.Error(1)
}
func (m *GameService) DeleteSave(ctx context.Context, playerID, saveID uuid.UUID) error {
	args := m.Called(ctx, playerID, saveID)
	return args.Error(0)
}

var _ service.GameService = (*GameService)(nil)
