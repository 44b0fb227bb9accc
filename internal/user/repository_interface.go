package user

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id int, req UpdateProfileRequest, dob *time.Time) (*User, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]User, int, error)
	SetActive(ctx context.Context, id int, active bool) error
	SetQRToken(ctx context.Context, id int, token string) error
	FindActiveMemberByQRToken(ctx context.Context, token string) (*User, error)
}
