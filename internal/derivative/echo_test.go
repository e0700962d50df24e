package derivative_test

import (
	"testing"

	"pathways-server/internal/derivative"
	"pathways-server/internal/domain"
	"pathways-server/internal/graph/graphtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectEchoPriority(t *testing.T) {
	lib := graphtest.Library(t)

	echo := derivative.SelectEcho(derivative.EchoRequest{
		Library: lib,
		Speaker: "maya",
		Events: []domain.Event{
			{Type: domain.EventResonance, CharacterID: "maya", Pattern: domain.PatternBuilding},
			{Type: domain.EventTrustTierUp, CharacterID: "maya", Tier: domain.TierTrusted},
		},
		Choice: &domain.Choice{ID: "c", Echo: "Authored echo."},
	})

	require.NotNil(t, echo)
	assert.Equal(t, domain.EventTrustTierUp, echo.Trigger)
	assert.Equal(t, "Maya Chen grins. You're trusted now.", echo.Text)
	assert.Equal(t, "Maya Chen", echo.Speaker)
}

func TestSelectEchoAuthoredBeatsResonance(t *testing.T) {
	lib := graphtest.Library(t)

	echo := derivative.SelectEcho(derivative.EchoRequest{
		Library: lib,
		Speaker: "maya",
		Events:  []domain.Event{{Type: domain.EventResonance, CharacterID: "maya"}},
		Choice:  &domain.Choice{ID: "c", Echo: "Maya pauses."},
	})

	require.NotNil(t, echo)
	assert.Equal(t, domain.EventChoiceEcho, echo.Trigger)
	assert.Equal(t, "Maya pauses.", echo.Text)
}

func TestSelectEchoAuthoredFillsPlaceholders(t *testing.T) {
	lib := graphtest.Library(t)

	echo := derivative.SelectEcho(derivative.EchoRequest{
		Library: lib,
		Speaker: "maya",
		Choice: &domain.Choice{
			ID: "c", Pattern: domain.PatternBuilding,
			Echo: "{name} nods at your {pattern} instinct.",
		},
	})

	require.NotNil(t, echo)
	assert.Equal(t, domain.EventChoiceEcho, echo.Trigger)
	assert.Equal(t, "Maya Chen nods at your building instinct.", echo.Text)
	assert.NotContains(t, echo.Text, "{")
}

func TestSelectEchoPatternSpecificLine(t *testing.T) {
	lib := graphtest.Library(t)

	echo := derivative.SelectEcho(derivative.EchoRequest{
		Library: lib,
		Speaker: "maya",
		Events:  []domain.Event{{Type: domain.EventCombo, CharacterID: "maya", Pattern: domain.PatternBuilding, Value: 3}},
	})
	require.NotNil(t, echo)
	assert.Equal(t, "Three builds in a row. Maya Chen is impressed.", echo.Text)

	// Для другого паттерна своей реплики нет, берется встроенная.
	echo = derivative.SelectEcho(derivative.EchoRequest{
		Library: lib,
		Speaker: "maya",
		Events:  []domain.Event{{Type: domain.EventCombo, CharacterID: "maya", Pattern: domain.PatternHelping, Value: 3}},
	})
	require.NotNil(t, echo)
	assert.Equal(t, "Your helping streak doesn't go unnoticed.", echo.Text)
}

func TestSelectEchoDefaultLine(t *testing.T) {
	lib := graphtest.Library(t)

	echo := derivative.SelectEcho(derivative.EchoRequest{
		Library: lib,
		Speaker: "devon",
		Events:  []domain.Event{{Type: domain.EventFirstMeeting, CharacterID: "devon"}},
	})

	require.NotNil(t, echo)
	assert.Equal(t, "Devon Okafor takes a good look at you.", echo.Text)
}

func TestSelectEchoLocale(t *testing.T) {
	lib := graphtest.Library(t)
	events := []domain.Event{{Type: domain.EventFirstMeeting, CharacterID: "maya"}}

	tests := []struct {
		locale string
		want   string
	}{
		{"", "Hi, I'm Maya Chen."},
		{"es", "Hola, soy Maya Chen."},
		{"es-MX,es;q=0.9,en;q=0.5", "Hola, soy Maya Chen."},
		{"en-GB", "Hi, I'm Maya Chen."},
		{"ja", "Hi, I'm Maya Chen."},
		{"%%%", "Hi, I'm Maya Chen."},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			echo := derivative.SelectEcho(derivative.EchoRequest{Library: lib, Speaker: "maya", Events: events, Locale: tt.locale})
			require.NotNil(t, echo)
			assert.Equal(t, tt.want, echo.Text)
		})
	}
}

func TestSelectEchoNothingToSay(t *testing.T) {
	lib := graphtest.Library(t)

	assert.Nil(t, derivative.SelectEcho(derivative.EchoRequest{Library: lib, Speaker: "maya"}))
	assert.Nil(t, derivative.SelectEcho(derivative.EchoRequest{
		Library: lib,
		Speaker: "maya",
		Events:  []domain.Event{{Type: domain.EventArcAdvanced, Ref: "maya_trust"}},
	}))
}
