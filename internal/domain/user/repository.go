package user

import (
	"context"
)

// Repository is the credential store. Implementations return ErrNotFound for
// missing rows and ErrEmailTaken / ErrUsernameTaken on unique violations.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id int) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
}
