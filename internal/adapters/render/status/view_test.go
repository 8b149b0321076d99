package status

import (
	"regexp"
	"testing"
	"time"

	"github.com/bnema/evo/internal/application"
	"github.com/bnema/evo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAwaitingDecision(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output := Render(FromSnapshot(application.Snapshot{
		Phase:         domain.PhaseAwaitingDecision,
		RoundNumber:   4,
		VotesRequired: 3,
		Variants: []application.VariantView{
			{Slot: domain.Slot1, Display: "Made it red", Votes: 2, Image: domain.NewImage(make([]byte, 2048), "")},
			{Slot: domain.Slot2, Display: "Added a hat"},
		},
		CurrentImage: domain.NewImage(make([]byte, 3<<20), ""),
		History: []application.RoundSummary{
			{Number: 3, Selected: 1, Winner: "Blurred it", Loser: "Turned it", DecidedAt: now.Add(-5 * time.Minute)},
		},
		PoolSize:     30,
		PoolOriginal: 40,
		Supply:       domain.SupplyNormal,
		Status:       application.StatusAwaitingVotes,
	}), RenderOptions{Now: now})

	assert.Contains(t, output, "round: 4 · awaiting decision")
	assert.Contains(t, output, "Variant 1:")
	assert.Contains(t, output, "Made it red")
	assert.Contains(t, output, "2/3 votes")
	assert.Contains(t, output, "(2 KB)")
	assert.Contains(t, output, "current image: 3.0 MB")
	assert.Contains(t, output, "30/40 left")
	assert.Contains(t, output, "#3 Blurred it over Turned it 5 minutes ago")
	assert.Contains(t, output, application.StatusAwaitingVotes)
	assert.NotContains(t, output, "[low]")
}

func TestRenderGeneratingWithNotice(t *testing.T) {
	output := Render(SessionView{
		Round:         2,
		Generating:    true,
		PoolRemaining: 2,
		PoolOriginal:  40,
		Supply:        domain.SupplyCritical,
		Notice: application.Notice{
			Severity: application.NoticeHard,
			Message:  "Failed to generate variants",
			Detail:   "invalid image data",
		},
	}, RenderOptions{})

	assert.Contains(t, output, "round: 2 · generating")
	assert.Contains(t, output, "Generating variants...")
	assert.Contains(t, output, "[critical]")
	assert.Contains(t, output, "Failed to generate variants (invalid image data)")
	assert.Contains(t, output, "current image: seed")
	assert.Contains(t, output, "No decided rounds yet.")
}

func TestRenderRedecision(t *testing.T) {
	output := Render(SessionView{
		Round:      5,
		Redeciding: true,
		Variants: []VariantLine{
			{Slot: domain.Slot1, Display: "Made it red"},
			{Slot: domain.Slot2, Display: "Added a hat"},
		},
	}, RenderOptions{})

	assert.Contains(t, output, "[re-decision]")
	assert.NotContains(t, output, "votes")
}

func TestRenderHistoryLimit(t *testing.T) {
	history := make([]application.RoundSummary, 0, 8)
	for i := 1; i <= 8; i++ {
		history = append(history, application.RoundSummary{Number: i, Winner: "Made it red"})
	}

	output := Render(SessionView{History: history}, RenderOptions{HistoryLimit: 3})
	assert.Contains(t, output, "history: 8 rounds")
	assert.Contains(t, output, "#8 Made it red")
	assert.Contains(t, output, "#6 Made it red")
	assert.NotContains(t, output, "#5 Made it red")
	assert.Contains(t, output, "... 5 earlier")

	all := Render(SessionView{History: history}, RenderOptions{HistoryLimit: -1})
	assert.Contains(t, all, "#1 Made it red")
	assert.NotContains(t, all, "earlier")
}

func TestFromMirror(t *testing.T) {
	img := domain.NewImage([]byte("pixels"), "image/png")
	view := FromMirror(application.MirrorState{
		GenerationCount: 6,
		Variants: [2]application.MirrorVariant{
			{Image: img.DataURL(), Instruction: "Make it red"},
			{Image: img.DataURL(), Instruction: "Add a hat"},
		},
		CurrentImage: img.DataURL(),
	})

	assert.Equal(t, 6, view.Round)
	require.Len(t, view.Variants, 2)
	assert.Equal(t, "Made it red", view.Variants[0].Display)
	assert.Equal(t, domain.Slot2, view.Variants[1].Slot)
	assert.Equal(t, 6, view.Variants[1].ImageBytes)
	assert.Equal(t, 6, view.CurrentImageBytes)

	partial := FromMirror(application.MirrorState{
		Variants: [2]application.MirrorVariant{{Image: img.DataURL()}},
	})
	assert.Empty(t, partial.Variants)
}

func TestFormatDecidedAt(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	assert.Equal(t, "just now", formatDecidedAt(now.Add(-10*time.Second), now))
	assert.Equal(t, "1 minute ago", formatDecidedAt(now.Add(-time.Minute), now))
	assert.Equal(t, "3 hours ago", formatDecidedAt(now.Add(-3*time.Hour), now))
	assert.Equal(t, "11:00 on 12 Feb", formatDecidedAt(now.Add(-48*time.Hour), now))
	assert.Equal(t, "11:00 on 14 Feb", formatDecidedAt(now, time.Time{}))
}

func TestRenderProgressBar(t *testing.T) {
	s := newStyles()

	assert.Equal(t, "[====----]", stripANSI(renderProgressBar(50, 8, s)))
	assert.Equal(t, "[========]", stripANSI(renderProgressBar(150, 8, s)))
	assert.Equal(t, "", renderProgressBar(50, 0, s))
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
