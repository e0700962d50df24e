// Package resolver разрешает выбор игрока: по исходному состоянию и выбору
// строит новое состояние, события и отклик. Вход никогда не изменяется.
package resolver

import (
	"context"
	"fmt"
	"time"

	"pathways-server/internal/condition"
	"pathways-server/internal/derivative"
	"pathways-server/internal/domain"
	"pathways-server/internal/graph"
	"pathways-server/internal/models"
)

// ChoiceInput - выбор игрока.
type ChoiceInput struct {
	ChoiceID string
	Now      time.Time
	Locale   string
}

// Outcome - результат разрешения выбора.
type Outcome struct {
	State     *domain.GameState `json:"state"`
	Previous  *domain.GameState `json:"-"`
	Presented *graph.Presented  `json:"presented"`
	Echo      *domain.Echo      `json:"echo,omitempty"`
	Events    []domain.Event    `json:"events"`
	Deltas    *domain.Deltas    `json:"deltas"`
}

// Resolver runs the choice pipeline.
type Resolver struct {
	coordinator *derivative.Coordinator
}

// New creates a resolver with the standard derivative order.
func New() *Resolver {
	return &Resolver{coordinator: derivative.NewCoordinator()}
}

// Resolve applies a choice to st.
func (r *Resolver) Resolve(ctx context.Context, lib *graph.Library, st *domain.GameState, in ChoiceInput) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if st.Ended {
		return nil, models.ErrGameEnded
	}
	node, ok := lib.Node(st.CharacterID, st.NodeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownNode, st.CurrentKey())
	}
	choice, ok := node.Choice(in.ChoiceID)
	if !ok {
		return nil, fmt.Errorf("%w: %q at %s", models.ErrInvalidChoice, in.ChoiceID, st.CurrentKey())
	}
	if !condition.Evaluate(choice.VisibleIf, st) {
		return nil, fmt.Errorf("%w: %q", models.ErrChoiceUnavailable, in.ChoiceID)
	}

	speaker := st.CharacterID
	next := st.Clone()
	deltas := domain.NewDeltas()
	dIn := &derivative.Input{Library: lib, Choice: choice, Speaker: speaker, Now: in.Now, Deltas: deltas}

	events := r.coordinator.Run(derivative.PhaseBeforeChoice, st, next, dIn)

	next.ApplyEffects(&choice.Effects, speaker, deltas)
	if choice.Pattern != "" {
		deltas.AddPattern(choice.Pattern, next.Patterns.Add(choice.Pattern, 1))
	}
	events = append(events, r.coordinator.Run(derivative.PhaseAfterEffects, st, next, dIn)...)

	if err := graph.Go(lib, next, graph.ResolveTarget(choice, next), deltas); err != nil {
		return nil, err
	}
	events = append(events, r.coordinator.Run(derivative.PhaseAfterNavigation, st, next, dIn)...)

	echo := derivative.SelectEcho(derivative.EchoRequest{
		Library: lib,
		Events:  events,
		Choice:  choice,
		Speaker: speaker,
		Locale:  in.Locale,
	})

	next.AppendHistory(domain.HistoryEntry{
		CharacterID: speaker,
		NodeID:      node.ID,
		ChoiceID:    choice.ID,
		Pattern:     choice.Pattern,
		At:          in.Now,
	})
	next.LastInteraction[speaker] = in.Now
	return r.commit(lib, st, next, events, echo, deltas, in.Now)
}

// Talk switches the conversation partner without a choice. Derivatives still
// run, so first meetings and decay are reported.
func (r *Resolver) Talk(ctx context.Context, lib *graph.Library, st *domain.GameState, characterID string, now time.Time, locale string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if st.Ended {
		return nil, models.ErrGameEnded
	}

	next := st.Clone()
	deltas := domain.NewDeltas()
	dIn := &derivative.Input{Library: lib, Speaker: characterID, Now: now, Deltas: deltas}

	events := r.coordinator.Run(derivative.PhaseBeforeChoice, st, next, dIn)
	if err := graph.Start(lib, next, characterID, deltas); err != nil {
		return nil, err
	}
	events = append(events, r.coordinator.Run(derivative.PhaseAfterNavigation, st, next, dIn)...)

	echo := derivative.SelectEcho(derivative.EchoRequest{
		Library: lib,
		Events:  events,
		Speaker: characterID,
		Locale:  locale,
	})
	next.LastInteraction[characterID] = now
	return r.commit(lib, st, next, events, echo, deltas, now)
}

func (r *Resolver) commit(lib *graph.Library, prev, next *domain.GameState, events []domain.Event, echo *domain.Echo, deltas *domain.Deltas, now time.Time) (*Outcome, error) {
	next.Version = prev.Version + 1
	next.UpdatedAt = now
	hash, err := StateHash(prev.StateHash, next)
	if err != nil {
		return nil, fmt.Errorf("calculate state hash: %w", err)
	}
	next.StateHash = hash

	presented, err := graph.Present(lib, next)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.Event{}
	}
	return &Outcome{
		State:     next,
		Previous:  prev,
		Presented: presented,
		Echo:      echo,
		Events:    events,
		Deltas:    deltas,
	}, nil
}
