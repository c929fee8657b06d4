package user

import (
	"context"

	"bookshop/internal/domain"
)

type Repository interface {
	Upsert(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
