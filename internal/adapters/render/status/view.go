package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/evo/internal/application"
	"github.com/bnema/evo/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	barWidth            = 24
	DefaultHistoryLimit = 5
)

type RenderOptions struct {
	Now time.Time
	// HistoryLimit caps the rounds listed, newest first. Zero uses
	// DefaultHistoryLimit; negative lists every round.
	HistoryLimit int
}

type VariantLine struct {
	Slot       domain.VariantSlot
	Display    string
	Votes      int
	ImageBytes int
}

// SessionView is everything the renderer needs, built from a live snapshot
// or from the persisted mirror.
type SessionView struct {
	Round             int
	Generating        bool
	Variants          []VariantLine
	VotesRequired     int
	Redeciding        bool
	CurrentImageBytes int
	History           []application.RoundSummary
	PoolRemaining     int
	PoolOriginal      int
	Supply            domain.SupplyLevel
	Status            string
	Notice            application.Notice
}

func FromSnapshot(snapshot application.Snapshot) SessionView {
	view := SessionView{
		Round:             snapshot.RoundNumber,
		Generating:        snapshot.InFlight,
		VotesRequired:     snapshot.VotesRequired,
		Redeciding:        snapshot.Redeciding,
		CurrentImageBytes: len(snapshot.CurrentImage.Data),
		History:           snapshot.History,
		PoolRemaining:     snapshot.PoolSize,
		PoolOriginal:      snapshot.PoolOriginal,
		Supply:            snapshot.Supply,
		Status:            snapshot.Status,
		Notice:            snapshot.Notice,
	}
	for _, variant := range snapshot.Variants {
		view.Variants = append(view.Variants, VariantLine{
			Slot:       variant.Slot,
			Display:    variant.Display,
			Votes:      variant.Votes,
			ImageBytes: len(variant.Image.Data),
		})
	}
	return view
}

// FromMirror rebuilds a view from persisted state. Votes are not mirrored,
// so no vote progress is shown.
func FromMirror(state application.MirrorState) SessionView {
	view := SessionView{
		Round:             state.GenerationCount,
		Generating:        state.Generating,
		CurrentImageBytes: dataURLSize(state.CurrentImage),
		History:           state.History,
	}
	if state.HasVariants() {
		for i, variant := range state.Variants {
			view.Variants = append(view.Variants, VariantLine{
				Slot:       domain.VariantSlot(i + 1),
				Display:    domain.Instruction(variant.Instruction).PastTense(),
				ImageBytes: dataURLSize(variant.Image),
			})
		}
	}
	return view
}

func dataURLSize(raw string) int {
	if raw == "" {
		return 0
	}
	img, err := domain.ParseDataURL(raw)
	if err != nil {
		return 0
	}
	return len(img.Data)
}

func renderView(view SessionView, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("evo session"),
		s.header.Render(sessionHeader(view)),
	}

	lines = append(lines, s.section.Render(renderVariants(view, s)))
	lines = append(lines, s.detail.Render("current image: "+imageLabel(view.CurrentImageBytes, "seed")))
	if view.PoolOriginal > 0 {
		lines = append(lines, poolLine(view, s))
	}
	lines = append(lines, s.section.Render(renderHistory(view.History, opts, s)))

	if view.Status != "" {
		lines = append(lines, s.section.Render(s.detail.Render(view.Status)))
	}
	if !view.Notice.IsZero() {
		lines = append(lines, renderNotice(view.Notice, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sessionHeader(view SessionView) string {
	state := "idle"
	switch {
	case view.Generating:
		state = "generating"
	case len(view.Variants) == 2:
		state = "awaiting decision"
	}
	return fmt.Sprintf("round: %d · %s", view.Round, state)
}

func renderVariants(view SessionView, s styles) string {
	if view.Generating {
		return s.empty.Render("Generating variants...")
	}
	if len(view.Variants) == 0 {
		return s.empty.Render("No variants to choose from.")
	}

	parts := make([]string, 0, len(view.Variants)+1)
	if view.Redeciding {
		parts = append(parts, s.warning.Render("[re-decision] previous choice could not be continued"))
	}
	for _, variant := range view.Variants {
		parts = append(parts, variantLine(variant, view.VotesRequired, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func variantLine(variant VariantLine, required int, s styles) string {
	segments := []string{
		s.variant.Render(fmt.Sprintf("Variant %d:", variant.Slot)),
		" ",
		s.detail.Render(variant.Display),
	}

	if required > 0 {
		segments = append(segments,
			" ",
			renderProgressBar(float64(variant.Votes)/float64(required)*100, barWidth/3, s),
			" ",
			s.meta.Render(fmt.Sprintf("%d/%d votes", variant.Votes, required)),
		)
	}
	if variant.ImageBytes > 0 {
		segments = append(segments, " ", s.meta.Render("("+formatBytes(variant.ImageBytes)+")"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, segments...)
}

func poolLine(view SessionView, s styles) string {
	leftPercent := clampPercent(float64(view.PoolRemaining) / float64(view.PoolOriginal) * 100)
	percentStyle := lipgloss.NewStyle().Foreground(interpolateColor(leftPercent, 0, 100))

	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render("instructions:"),
		" ",
		renderProgressBar(leftPercent, barWidth, s),
		" ",
		percentStyle.Render(fmt.Sprintf("%d/%d left", view.PoolRemaining, view.PoolOriginal)),
	)

	switch view.Supply {
	case domain.SupplyCritical:
		line += " " + s.warning.Render("[critical]")
	case domain.SupplyLow:
		line += " " + s.notice.Render("[low]")
	}
	return line
}

func renderHistory(history []application.RoundSummary, opts RenderOptions, s styles) string {
	parts := []string{s.header.Render(fmt.Sprintf("history: %d rounds", len(history)))}
	if len(history) == 0 {
		parts = append(parts, s.empty.Render("No decided rounds yet."))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	limit := opts.HistoryLimit
	if limit == 0 {
		limit = DefaultHistoryLimit
	}

	shown := 0
	for i := len(history) - 1; i >= 0; i-- {
		if limit > 0 && shown == limit {
			parts = append(parts, s.empty.Render(fmt.Sprintf("... %d earlier", i+1)))
			break
		}
		parts = append(parts, historyLine(history[i], opts.Now, s))
		shown++
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func historyLine(summary application.RoundSummary, now time.Time, s styles) string {
	line := s.label.Render(fmt.Sprintf("#%d", summary.Number)) + " " + s.detail.Render(summary.Winner)
	if summary.Loser != "" {
		line += " " + s.meta.Render("over "+summary.Loser)
	}
	if summary.Redecided {
		line += " " + s.notice.Render("[re-decided]")
	}
	if !summary.DecidedAt.IsZero() {
		line += " " + s.meta.Render(formatDecidedAt(summary.DecidedAt, now))
	}
	return line
}

func renderNotice(notice application.Notice, s styles) string {
	style := s.notice
	if notice.Severity == application.NoticeHard {
		style = s.warning
	}

	text := notice.Message
	if notice.Detail != "" {
		text += " (" + notice.Detail + ")"
	}
	return style.Render(text)
}

func imageLabel(size int, fallback string) string {
	if size <= 0 {
		return fallback
	}
	return formatBytes(size)
}

func formatBytes(size int) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.0f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func formatDecidedAt(decidedAt, now time.Time) string {
	if now.IsZero() || decidedAt.After(now) {
		return decidedAt.Format("15:04 on 02 Jan")
	}

	elapsed := now.Sub(decidedAt)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour") + " ago"
	default:
		return decidedAt.Format("15:04 on 02 Jan")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func renderProgressBar(filledPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(filledPercent) / 100))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// interpolateColor maps value onto the greyscale ramp, from 240 at min to
// 255 at max.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}

// Render draws the session as styled terminal text.
func Render(view SessionView, opts RenderOptions) string {
	return renderView(view, opts, newStyles())
}
