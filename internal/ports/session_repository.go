package ports

import (
	"context"

	"github.com/bnema/opq/internal/domain"
)

type SessionRepository interface {
	Load(ctx context.Context) (domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context) error
}
