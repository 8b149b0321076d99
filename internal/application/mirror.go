package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
)

const (
	MirrorKeyGenerationCount     = "generationCount"
	MirrorKeyGenerating          = "isGenerating"
	MirrorKeyVariant1Image       = "variant1_img"
	MirrorKeyVariant1Instruction = "variant1_instruction"
	MirrorKeyVariant2Image       = "variant2_img"
	MirrorKeyVariant2Instruction = "variant2_instruction"
	MirrorKeyCurrentImage        = "current_img"
	MirrorKeyHistory             = "history"
)

// MirrorKeys lists every key written by MirrorSync.
var MirrorKeys = []string{
	MirrorKeyGenerationCount,
	MirrorKeyGenerating,
	MirrorKeyVariant1Image,
	MirrorKeyVariant1Instruction,
	MirrorKeyVariant2Image,
	MirrorKeyVariant2Instruction,
	MirrorKeyCurrentImage,
	MirrorKeyHistory,
}

// evictable entries, largest first.
var mirrorLargeKeys = []string{MirrorKeyVariant1Image, MirrorKeyVariant2Image}

type MirrorVariant struct {
	Image       string `json:"image,omitempty"`
	Instruction string `json:"instruction,omitempty"`
}

type RoundSummary struct {
	Number    int       `json:"number"`
	Selected  int       `json:"selected"`
	Winner    string    `json:"winner"`
	Loser     string    `json:"loser"`
	Redecided bool      `json:"redecided,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// MirrorState is what a restarted process can display without a live session.
type MirrorState struct {
	GenerationCount int              `json:"generation_count"`
	Generating      bool             `json:"is_generating"`
	Variants        [2]MirrorVariant `json:"variants"`
	CurrentImage    string           `json:"current_image,omitempty"`
	History         []RoundSummary   `json:"history"`
}

func (s MirrorState) HasVariants() bool {
	return s.Variants[0].Image != "" && s.Variants[1].Image != ""
}

func SummarizeRound(round domain.Round) RoundSummary {
	summary := RoundSummary{
		Number:    round.Number,
		Redecided: round.Redecided,
		DecidedAt: round.DecidedAt,
	}
	if winner, ok := round.Winner(); ok {
		summary.Selected = int(round.Selected)
		summary.Winner = winner.Display
	}
	if loser, ok := round.Loser(); ok {
		summary.Loser = loser.Display
	}
	return summary
}

// MirrorSync writes the recovery subset of the session to a StateMirror.
// Every write is best-effort: failures are logged and never returned to
// the round controller.
type MirrorSync struct {
	mirror ports.StateMirror
	logger *slog.Logger
}

func NewMirrorSync(mirror ports.StateMirror, logger *slog.Logger) *MirrorSync {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorSync{mirror: mirror, logger: logger}
}

func (m *MirrorSync) SetGenerating(ctx context.Context, generating bool, roundNumber int) {
	m.put(ctx, MirrorKeyGenerating, strconv.FormatBool(generating))
	m.put(ctx, MirrorKeyGenerationCount, strconv.Itoa(roundNumber))
}

// SaveVariants stores the images and raw instructions of a settled round.
func (m *MirrorSync) SaveVariants(ctx context.Context, round domain.Round) {
	m.put(ctx, MirrorKeyVariant1Image, round.Variants[0].Image.DataURL())
	m.put(ctx, MirrorKeyVariant1Instruction, round.Variants[0].Instruction.String())
	m.put(ctx, MirrorKeyVariant2Image, round.Variants[1].Image.DataURL())
	m.put(ctx, MirrorKeyVariant2Instruction, round.Variants[1].Instruction.String())
	m.put(ctx, MirrorKeyGenerating, "false")
	m.put(ctx, MirrorKeyGenerationCount, strconv.Itoa(round.Number))
}

// SaveSelection stores the new current image and the history summaries.
func (m *MirrorSync) SaveSelection(ctx context.Context, current domain.Image, history []domain.Round) {
	m.put(ctx, MirrorKeyCurrentImage, current.DataURL())

	summaries := make([]RoundSummary, 0, len(history))
	for _, round := range history {
		summaries = append(summaries, SummarizeRound(round))
	}
	payload, err := json.Marshal(summaries)
	if err != nil {
		m.logger.Warn("encode history for mirror", "error", err)
		return
	}
	m.put(ctx, MirrorKeyHistory, string(payload))
}

func (m *MirrorSync) Clear(ctx context.Context) {
	if m.mirror == nil {
		return
	}
	if err := m.mirror.Clear(ctx); err != nil {
		m.logger.Warn("clear state mirror", "error", err)
	}
}

// Load reads back whatever the mirror holds. Missing keys are left zero.
func (m *MirrorSync) Load(ctx context.Context) (MirrorState, error) {
	var state MirrorState
	if m.mirror == nil {
		return state, nil
	}

	get := func(key string) (string, error) {
		value, err := m.mirror.Get(ctx, key)
		if errors.Is(err, domain.ErrKeyNotFound) {
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("read mirror key %s: %w", key, err)
		}
		return value, nil
	}

	values := make(map[string]string, len(MirrorKeys))
	for _, key := range MirrorKeys {
		value, err := get(key)
		if err != nil {
			return MirrorState{}, err
		}
		values[key] = value
	}

	if raw := values[MirrorKeyGenerationCount]; raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return MirrorState{}, fmt.Errorf("parse %s: %w", MirrorKeyGenerationCount, err)
		}
		state.GenerationCount = count
	}
	state.Generating = values[MirrorKeyGenerating] == "true"
	state.Variants[0] = MirrorVariant{Image: values[MirrorKeyVariant1Image], Instruction: values[MirrorKeyVariant1Instruction]}
	state.Variants[1] = MirrorVariant{Image: values[MirrorKeyVariant2Image], Instruction: values[MirrorKeyVariant2Instruction]}
	state.CurrentImage = values[MirrorKeyCurrentImage]

	if raw := values[MirrorKeyHistory]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &state.History); err != nil {
			return MirrorState{}, fmt.Errorf("parse %s: %w", MirrorKeyHistory, err)
		}
	}

	return state, nil
}

func (m *MirrorSync) put(ctx context.Context, key, value string) {
	if m.mirror == nil {
		return
	}

	err := m.mirror.Put(ctx, key, value)
	if errors.Is(err, domain.ErrQuotaExceeded) {
		m.logger.Warn("state mirror quota exceeded, evicting variant images", "key", key)
		m.evictLarge(ctx)
		err = m.mirror.Put(ctx, key, value)
	}
	if err != nil {
		m.logger.Warn("write state mirror", "key", key, "error", err)
		return
	}

	stored, err := m.mirror.Get(ctx, key)
	if err != nil {
		m.logger.Warn("verify state mirror write", "key", key, "error", err)
		return
	}
	if stored != value {
		m.logger.Warn("state mirror read-back mismatch", "key", key, "want_len", len(value), "got_len", len(stored))
	}
}

func (m *MirrorSync) evictLarge(ctx context.Context) {
	for _, key := range mirrorLargeKeys {
		if err := m.mirror.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
			m.logger.Warn("evict state mirror entry", "key", key, "error", err)
		}
	}
}
