// Package archive keeps a copy of every decided round, on disk or in
// Google Cloud Storage.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/evo/internal/application"
	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
)

const manifestName = "manifest.json"

type object struct {
	Name        string
	ContentType string
	Data        []byte
}

type manifest struct {
	RoundID string `json:"round_id"`
	application.RoundSummary
	Instructions [2]string `json:"instructions"`
}

// objects returns the directory name of a round and the files stored in it.
func objects(round domain.Round) (string, []object, error) {
	if !round.Decided() {
		return "", nil, domain.ErrRoundUndecided
	}

	dir := fmt.Sprintf("round-%04d", round.Number)
	if round.Redecided {
		dir += "-redecided"
	}

	doc := manifest{
		RoundID:      string(round.ID),
		RoundSummary: application.SummarizeRound(round),
	}

	items := make([]object, 0, len(round.Variants)+1)
	for i, variant := range round.Variants {
		doc.Instructions[i] = variant.Instruction.String()
		if variant.Image.IsZero() {
			continue
		}
		items = append(items, object{
			Name:        fmt.Sprintf("variant-%d%s", i+1, extension(variant.Image.MIMEType)),
			ContentType: contentType(variant.Image.MIMEType),
			Data:        variant.Image.Data,
		})
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encode round manifest: %w", err)
	}
	items = append(items, object{Name: manifestName, ContentType: "application/json", Data: raw})

	return dir, items, nil
}

func contentType(mimeType string) string {
	if strings.TrimSpace(mimeType) == "" {
		return domain.DefaultImageMIMEType
	}
	return mimeType
}

func extension(mimeType string) string {
	switch contentType(mimeType) {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

// Multi archives into every target and joins their failures.
type Multi []ports.RoundArchive

var _ ports.RoundArchive = Multi(nil)

func (m Multi) Archive(ctx context.Context, round domain.Round) error {
	var errs []error
	for _, target := range m {
		if err := target.Archive(ctx, round); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
