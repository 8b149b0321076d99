package ports

import (
	"context"

	"github.com/bnema/evo/internal/domain"
)

type GenerateRequest struct {
	Image       domain.Image
	Instruction domain.Instruction
	Credential  string
}

// VariantGenerator performs exactly one request to the image backend.
// Failures are returned as *domain.GenerationError.
type VariantGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (domain.Image, error)
}
