package repository

import (
	"context"

	"github.com/storystove/devnet-sub000/internal/domain/entity"
)

// UserRepository resolves profile display fields. Profile CRUD is outside the
// messaging core; this is the lookup boundary only.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
