// Package service связывает пайплайн выбора с хранилищем, блокировками и уведомлениями.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pathways-server/internal/content"
	"pathways-server/internal/domain"
	"pathways-server/internal/graph"
	"pathways-server/internal/messaging"
	"pathways-server/internal/models"
	"pathways-server/internal/repository"
	"pathways-server/internal/resolver"
	"pathways-server/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxSaves - лимит сохранений на игрока по умолчанию.
const DefaultMaxSaves = 5

// ChoiceRequest - выбор игрока в конкретном сохранении.
type ChoiceRequest struct {
	PlayerID uuid.UUID
	SaveID   uuid.UUID
	ChoiceID string
	// ExpectedVersion, если задан, должен совпасть с версией сохранения.
	ExpectedVersion *int64
	Locale          string
}

// GameService - сценарии игры для HTTP и CLI.
type GameService interface {
	EnsureProfile(ctx context.Context, playerID uuid.UUID, displayName string) (*domain.Profile, error)
	Characters() []*domain.Character
	StartGame(ctx context.Context, playerID uuid.UUID, characterID, locale string) (*resolver.Outcome, error)
	GetSave(ctx context.Context, playerID, saveID uuid.UUID) (*domain.GameState, error)
	ListSaves(ctx context.Context, playerID uuid.UUID) ([]domain.GameStateSummary, error)
	CurrentNode(ctx context.Context, playerID, saveID uuid.UUID) (*graph.Presented, error)
	MakeChoice(ctx context.Context, req ChoiceRequest) (*resolver.Outcome, error)
	TalkTo(ctx context.Context, playerID, saveID uuid.UUID, characterID, locale string) (*resolver.Outcome, error)
	DeleteSave(ctx context.Context, playerID, saveID uuid.UUID) error
}

// Deps - зависимости GameService.
type Deps struct {
	Saves     repository.SaveRepository
	Profiles  repository.ProfileRepository
	Lock      repository.ChoiceLock
	Content   *content.Store
	Publisher messaging.NotificationPublisher
	Logger    *zap.Logger
	MaxSaves  int
	// Now по умолчанию time.Now().UTC().
	Now func() time.Time
}

type gameServiceImpl struct {
	saves     repository.SaveRepository
	profiles  repository.ProfileRepository
	lock      repository.ChoiceLock
	content   *content.Store
	publisher messaging.NotificationPublisher
	resolver  *resolver.Resolver
	logger    *zap.Logger
	maxSaves  int
	now       func() time.Time
}

var _ GameService = (*gameServiceImpl)(nil)

// NewGameService creates the gameplay service.
func NewGameService(d Deps) GameService {
	s := &gameServiceImpl{
		saves:     d.Saves,
		profiles:  d.Profiles,
		lock:      d.Lock,
		content:   d.Content,
		publisher: d.Publisher,
		resolver:  resolver.New(),
		logger:    d.Logger,
		maxSaves:  d.MaxSaves,
		now:       d.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("GameService")
	if s.publisher == nil {
		s.publisher = messaging.NoopPublisher{}
	}
	if s.lock == nil {
		s.lock = repository.NewMemoryChoiceLock(0)
	}
	if s.maxSaves <= 0 {
		s.maxSaves = DefaultMaxSaves
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

func (s *gameServiceImpl) EnsureProfile(ctx context.Context, playerID uuid.UUID, displayName string) (*domain.Profile, error) {
	if displayName == "" {
		displayName = "Traveler"
	}
	p, err := s.profiles.Ensure(ctx, playerID, displayName)
	if err != nil {
		s.log(ctx).Error("Failed to ensure profile", zap.Stringer("playerID", playerID), zap.Error(err))
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return p, nil
}

func (s *gameServiceImpl) Characters() []*domain.Character {
	return s.content.Library().Characters()
}

func (s *gameServiceImpl) StartGame(ctx context.Context, playerID uuid.UUID, characterID, locale string) (*resolver.Outcome, error) {
	log := s.log(ctx).With(zap.Stringer("playerID", playerID), zap.String("characterID", characterID))

	existing, err := s.saves.ListByPlayer(ctx, playerID)
	if err != nil {
		log.Error("Failed to count saves", zap.Error(err))
		return nil, fmt.Errorf("list saves: %w", err)
	}
	if len(existing) >= s.maxSaves {
		return nil, models.ErrSaveLimitReached
	}

	lib := s.content.Library()
	now := s.now()
	out, err := s.resolver.Talk(ctx, lib, domain.NewGameState(playerID, now), characterID, now, locale)
	if err != nil {
		return nil, err
	}
	if err := s.saves.Create(ctx, out.State); err != nil {
		log.Error("Failed to create save", zap.Error(err))
		return nil, fmt.Errorf("create save: %w", err)
	}
	log.Info("Game started", zap.Stringer("saveID", out.State.ID), zap.String("contentRevision", lib.Revision()))
	s.notify(ctx, out)
	return out, nil
}

// load returns the save after checking that it belongs to the player.
func (s *gameServiceImpl) load(ctx context.Context, playerID, saveID uuid.UUID) (*domain.GameState, error) {
	st, err := s.saves.Get(ctx, saveID)
	if err != nil {
		if errors.Is(err, models.ErrSaveNotFound) {
			return nil, err
		}
		s.log(ctx).Error("Failed to load save", zap.Stringer("saveID", saveID), zap.Error(err))
		return nil, fmt.Errorf("load save: %w", err)
	}
	if st.PlayerID != playerID {
		s.log(ctx).Warn("Save belongs to another player",
			zap.Stringer("saveID", saveID), zap.Stringer("playerID", playerID))
		return nil, models.ErrForbidden
	}
	return st, nil
}

func (s *gameServiceImpl) GetSave(ctx context.Context, playerID, saveID uuid.UUID) (*domain.GameState, error) {
	return s.load(ctx, playerID, saveID)
}

func (s *gameServiceImpl) ListSaves(ctx context.Context, playerID uuid.UUID) ([]domain.GameStateSummary, error) {
	list, err := s.saves.ListByPlayer(ctx, playerID)
	if err != nil {
		s.log(ctx).Error("Failed to list saves", zap.Stringer("playerID", playerID), zap.Error(err))
		return nil, fmt.Errorf("list saves: %w", err)
	}
	return list, nil
}

func (s *gameServiceImpl) CurrentNode(ctx context.Context, playerID, saveID uuid.UUID) (*graph.Presented, error) {
	st, err := s.load(ctx, playerID, saveID)
	if err != nil {
		return nil, err
	}
	return graph.Present(s.content.Library(), st)
}

func (s *gameServiceImpl) MakeChoice(ctx context.Context, req ChoiceRequest) (*resolver.Outcome, error) {
	return s.underLock(ctx, req.PlayerID, req.SaveID, func(st *domain.GameState) (*resolver.Outcome, error) {
		if req.ExpectedVersion != nil && *req.ExpectedVersion != st.Version {
			return nil, models.ErrVersionConflict
		}
		return s.resolver.Resolve(ctx, s.content.Library(), st, resolver.ChoiceInput{
			ChoiceID: req.ChoiceID,
			Now:      s.now(),
			Locale:   req.Locale,
		})
	})
}

func (s *gameServiceImpl) TalkTo(ctx context.Context, playerID, saveID uuid.UUID, characterID, locale string) (*resolver.Outcome, error) {
	return s.underLock(ctx, playerID, saveID, func(st *domain.GameState) (*resolver.Outcome, error) {
		return s.resolver.Talk(ctx, s.content.Library(), st, characterID, s.now(), locale)
	})
}

// log - логгер сервиса с полями текущего запроса.
func (s *gameServiceImpl) log(ctx context.Context) *zap.Logger {
	return logger.For(ctx, s.logger)
}

// underLock: блокировка -> загрузка -> шаг пайплайна -> запись с проверкой версии -> уведомления.
func (s *gameServiceImpl) underLock(ctx context.Context, playerID, saveID uuid.UUID, step func(*domain.GameState) (*resolver.Outcome, error)) (*resolver.Outcome, error) {
	unlock, err := s.lock.Acquire(ctx, saveID)
	if err != nil {
		if errors.Is(err, models.ErrChoiceInProgress) {
			return nil, err
		}
		s.log(ctx).Error("Failed to acquire choice lock", zap.Stringer("saveID", saveID), zap.Error(err))
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() {
		// Контекст запроса мог закончиться, снимаем блокировку независимо от него.
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := unlock(unlockCtx); err != nil {
			s.log(ctx).Warn("Failed to release choice lock", zap.Stringer("saveID", saveID), zap.Error(err))
		}
	}()

	st, err := s.load(ctx, playerID, saveID)
	if err != nil {
		return nil, err
	}
	out, err := step(st)
	if err != nil {
		return nil, err
	}
	if err := s.saves.Update(ctx, out.State, st.Version); err != nil {
		if errors.Is(err, models.ErrVersionConflict) || errors.Is(err, models.ErrSaveNotFound) {
			return nil, err
		}
		s.log(ctx).Error("Failed to commit save", zap.Stringer("saveID", saveID), zap.Error(err))
		return nil, fmt.Errorf("commit save: %w", err)
	}
	s.notify(ctx, out)
	return out, nil
}

// notify публикует заметные события. Ошибки только логируются.
func (s *gameServiceImpl) notify(ctx context.Context, out *resolver.Outcome) {
	for _, ev := range out.Events {
		if !messaging.Notable(ev.Type) {
			continue
		}
		n := messaging.Notification{
			PlayerID:   out.State.PlayerID,
			SaveID:     out.State.ID,
			Event:      ev,
			OccurredAt: out.State.UpdatedAt,
		}
		if err := s.publisher.PublishNotification(ctx, n); err != nil {
			s.log(ctx).Warn("Failed to publish notification",
				zap.Stringer("saveID", out.State.ID),
				zap.String("event", string(ev.Type)),
				zap.Error(err),
			)
		}
	}
}

func (s *gameServiceImpl) DeleteSave(ctx context.Context, playerID, saveID uuid.UUID) error {
	if _, err := s.load(ctx, playerID, saveID); err != nil {
		return err
	}
	if err := s.saves.Delete(ctx, saveID); err != nil {
		if errors.Is(err, models.ErrSaveNotFound) {
			return err
		}
		s.log(ctx).Error("Failed to delete save", zap.Stringer("saveID", saveID), zap.Error(err))
		return fmt.Errorf("delete save: %w", err)
	}
	s.log(ctx).Info("Save deleted", zap.Stringer("saveID", saveID), zap.Stringer("playerID", playerID))
	return nil
}
