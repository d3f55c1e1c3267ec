package user

import (
	"context"

	domain "user-wire-service/internal/domain/user"
)

// Operations defines the five user operations reachable from the wire routes.
type Operations interface {
	Create(ctx context.Context, body string) Outcome
	ReadOne(ctx context.Context, idText string) Outcome
	ReadAll(ctx context.Context) Outcome
	Update(ctx context.Context, idText, body string) Outcome
	Delete(ctx context.Context, idText string) Outcome
}

// Store is the persistence port. Connect hands out a Session that owns one
// backend connection until Close; a Connect failure is reported separately
// from statement failures so ReadOne can tell them apart.
type Store interface {
	Connect(ctx context.Context) (Session, error)
}

// Session issues single statements against the users table.
type Session interface {
	Insert(ctx context.Context, u *domain.User) (int32, error)    // INSERT name, email; returns the assigned id
	FindByID(ctx context.Context, id int32) (*domain.User, error) // point lookup; ErrNotFound on zero rows
	List(ctx context.Context) ([]domain.User, error)              // unfiltered SELECT in table order
	Update(ctx context.Context, u *domain.User) error             // UPDATE by id; affected rows are not checked
	Delete(ctx context.Context, id int32) error                   // DELETE by id; affected rows are not checked
	Close() error
}
