package handler

import (
	"pathways-server/internal/domain"
	"pathways-server/internal/resolver"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	choicesResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "choices_resolved_total",
		Help: "Total number of successfully resolved choices.",
	})

	echoesEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echoes_emitted_total",
			Help: "Consequence echoes shown to players by trigger.",
		},
		[]string{"trigger"},
	)

	achievementsUnlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "achievements_unlocked_total",
		Help: "Total number of unlocked achievements.",
	})
)

func observeOutcome(out *resolver.Outcome) {
	if out.Echo != nil {
		echoesEmittedTotal.WithLabelValues(string(out.Echo.Trigger)).Inc()
	}
	for _, ev := range out.Events {
		if ev.Type == domain.EventAchievementUnlocked {
			achievementsUnlockedTotal.Inc()
		}
	}
}
