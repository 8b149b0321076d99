package ports

import (
	"context"

	"github.com/bnema/evo/internal/domain"
)

type InstructionSource interface {
	Load(ctx context.Context) ([]domain.Instruction, error)
}
