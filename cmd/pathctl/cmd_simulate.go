package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"pathways-server/internal/condition"
	"pathways-server/internal/content"
	"pathways-server/internal/domain"
	"pathways-server/internal/graph"
	"pathways-server/internal/models"
	"pathways-server/internal/resolver"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type simulateOptions struct {
	dir       string
	character string
	choices   []string
	locale    string
	advance   time.Duration
	start     string
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	so := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate [dir]",
		Short: "Play a scripted sequence of choices in memory",
		Long: `Plays a sequence of steps without a server. Each step is a choice id,
or @character to switch the conversation partner. --advance moves the clock
forward before every step, which makes trust decay visible.`,
		Example: `  pathctl simulate --character samuel --choices sit,listen,@maya,ask_why`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				so.dir = args[0]
			}
			return runSimulate(cmd.Context(), cmd.OutOrStdout(), so, opts.log)
		},
	}
	cmd.Flags().StringVarP(&so.character, "character", "c", "", "character to start with")
	cmd.Flags().StringSliceVar(&so.choices, "choices", nil, "choice ids or @character, comma separated")
	cmd.Flags().StringVar(&so.locale, "locale", "", "echo locale")
	cmd.Flags().DurationVar(&so.advance, "advance", time.Minute, "clock advance before each step")
	cmd.Flags().StringVar(&so.start, "start", "2026-01-01T09:00:00Z", "initial clock, RFC3339")
	_ = cmd.MarkFlagRequired("character")
	return cmd
}

func runSimulate(ctx context.Context, out io.Writer, so *simulateOptions, log *zap.Logger) error {
	lib, issues, err := content.Load(content.Source(so.dir))
	if err != nil {
		for _, issue := range content.Errors(issues) {
			fmt.Fprintln(out, issue.String())
		}
		return err
	}
	now, err := time.Parse(time.RFC3339, so.start)
	if err != nil {
		return fmt.Errorf("bad --start: %w", err)
	}
	now = now.UTC()

	r := resolver.New()
	st := domain.NewGameState(uuid.New(), now)
	outcome, err := r.Talk(ctx, lib, st, so.character, now, so.locale)
	if err != nil {
		return fmt.Errorf("start %s: %w", so.character, err)
	}
	printOutcome(out, outcome)

	for i, step := range so.choices {
		step = strings.TrimSpace(step)
		if step == "" {
			continue
		}
		now = now.Add(so.advance)
		fmt.Fprintf(out, "> %s\n", step)
		log.Debug("Simulating step", zap.Int("step", i+1), zap.String("input", step), zap.Time("at", now))

		if target, ok := strings.CutPrefix(step, "@"); ok {
			outcome, err = r.Talk(ctx, lib, outcome.State, target, now, so.locale)
		} else {
			outcome, err = r.Resolve(ctx, lib, outcome.State, resolver.ChoiceInput{ChoiceID: step, Now: now, Locale: so.locale})
		}
		if err != nil {
			if errors.Is(err, models.ErrChoiceUnavailable) {
				printBlocked(out, lib, outcome.State, step)
			}
			return fmt.Errorf("step %d (%s): %w", i+1, step, err)
		}
		printOutcome(out, outcome)
	}
	printSummary(out, outcome.State)
	return nil
}

// printBlocked объясняет, какие пункты visible_if не выполнены.
func printBlocked(out io.Writer, lib *graph.Library, st *domain.GameState, choiceID string) {
	node, ok := lib.Node(st.CharacterID, st.NodeID)
	if !ok {
		return
	}
	choice, ok := node.Choice(choiceID)
	if !ok {
		return
	}
	for _, reason := range condition.Explain(choice.VisibleIf, st) {
		fmt.Fprintf(out, "  ! %s blocked: %s\n", choiceID, reason)
	}
}

func printOutcome(out io.Writer, o *resolver.Outcome) {
	for _, ev := range o.Events {
		fmt.Fprintf(out, "  * %s\n", describeEvent(ev))
	}
	if o.Echo != nil {
		fmt.Fprintf(out, "  ~ %s: %s\n", o.Echo.Speaker, o.Echo.Text)
	}
	printPresented(out, o.Presented)
	if o.State.Ended {
		fmt.Fprintln(out, "  (the end)")
	}
}

func printPresented(out io.Writer, p *graph.Presented) {
	if p == nil {
		return
	}
	fmt.Fprintf(out, "[%s:%s] %s: %s\n", p.CharacterID, p.NodeID, p.Speaker, p.Text)
	for _, c := range p.Choices {
		if c.Pattern != "" {
			fmt.Fprintf(out, "    - %s (%s): %s\n", c.ID, c.Pattern, c.Text)
			continue
		}
		fmt.Fprintf(out, "    - %s: %s\n", c.ID, c.Text)
	}
}

func describeEvent(ev domain.Event) string {
	parts := []string{string(ev.Type)}
	if ev.CharacterID != "" {
		parts = append(parts, "character="+ev.CharacterID)
	}
	if ev.Pattern != "" {
		parts = append(parts, "pattern="+string(ev.Pattern))
	}
	if ev.Tier != "" {
		parts = append(parts, "tier="+string(ev.Tier))
	}
	if ev.Level != "" {
		parts = append(parts, "level="+string(ev.Level))
	}
	if ev.Ref != "" {
		parts = append(parts, "ref="+ev.Ref)
	}
	if ev.Value != 0 {
		parts = append(parts, fmt.Sprintf("value=%d", ev.Value))
	}
	return strings.Join(parts, " ")
}

func printSummary(out io.Writer, st *domain.GameState) {
	fmt.Fprintf(out, "-- version %d, hash %s\n", st.Version, st.StateHash)

	chars := make([]string, 0, len(st.Trust))
	for id := range st.Trust {
		chars = append(chars, id)
	}
	sort.Strings(chars)
	for _, id := range chars {
		fmt.Fprintf(out, "   trust %s=%d (%s)\n", id, st.Trust[id], domain.TierForTrust(st.Trust[id]))
	}
	for _, p := range domain.AllPatterns() {
		if score := st.Patterns[p]; score > 0 {
			fmt.Fprintf(out, "   pattern %s=%d (%s)\n", p, score, domain.LevelForScore(score))
		}
	}
}
