package ports

import (
	"context"

	"github.com/bnema/evo/internal/domain"
)

// RoundArchive keeps a copy of every decided round outside the session.
type RoundArchive interface {
	Archive(ctx context.Context, round domain.Round) error
}
