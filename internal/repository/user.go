package repository

import (
	"context"

	"archiveapi/internal/model"
)

// UserRepository defines data access for principals. Email is unique.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}
