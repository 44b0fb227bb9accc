package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"gymhub/internal/apperr"
	"gymhub/internal/auth"
)

var (
	ErrEmailExists        = apperr.Conflict("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	UpdateProfile(ctx context.Context, userID int, req UpdateProfileRequest) (*User, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]User, int, error)
	GetMember(ctx context.Context, id int) (*User, error)
	Deactivate(ctx context.Context, id int) error
	QRToken(ctx context.Context, userID int, rotate bool) (string, error)
	ResolveQRToken(ctx context.Context, token string) (*User, error)
}

type service struct {
	repo      Repository
	jwtSecret string
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	user, err := s.repo.Create(ctx, &User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         auth.RoleMember,
		Phone:        req.Phone,
	})
	if err != nil {
		return nil, "", "", err
	}

	accessToken, refreshToken, err := auth.GenerateTokens(user.ID, user.Email, user.Role, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return user, accessToken, refreshToken, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}

	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(user.ID, user.Email, user.Role, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return user, accessToken, refreshToken, nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	claims, err := auth.ParseRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, ErrInvalidCredentials
	}

	newAccessToken, err := auth.GenerateAccessToken(user.ID, user.Email, user.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, user, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID int, req UpdateProfileRequest) (*User, error) {
	current, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if current.Role != auth.RoleTrainer && (req.Specialization != nil || req.Bio != nil) {
		return nil, apperr.Validation("specialization and bio are trainer-only fields")
	}

	var dob *time.Time
	if req.DateOfBirth != nil {
		t, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return nil, apperr.Validation("date_of_birth must be YYYY-MM-DD")
		}
		if t.After(time.Now()) {
			return nil, apperr.Validation("date_of_birth cannot be in the future")
		}
		dob = &t
	}

	return s.repo.UpdateProfile(ctx, userID, req, dob)
}

func (s *service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	if !auth.IsValidRole(req.Role) {
		return nil, apperr.Validation("unknown role %q", req.Role)
	}
	if req.Role != auth.RoleTrainer && (req.Specialization != nil || req.Bio != nil) {
		return nil, apperr.Validation("specialization and bio are trainer-only fields")
	}

	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, &User{
		Name:           req.Name,
		Email:          req.Email,
		PasswordHash:   passwordHash,
		Role:           req.Role,
		Phone:          req.Phone,
		Specialization: req.Specialization,
		Bio:            req.Bio,
	})
}

func (s *service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]User, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *service) GetMember(ctx context.Context, id int) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != auth.RoleMember {
		return nil, apperr.NotFound("member")
	}
	return u, nil
}

// Deactivate is a soft delete; the row and its history stay.
func (s *service) Deactivate(ctx context.Context, id int) error {
	return s.repo.SetActive(ctx, id, false)
}

// QRToken returns the member's check-in token, issuing one on first use.
// rotate forces a fresh token and invalidates the previous one.
func (s *service) QRToken(ctx context.Context, userID int, rotate bool) (string, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.Role != auth.RoleMember {
		return "", apperr.Forbidden("only members have check-in tokens")
	}
	if u.QRToken != nil && !rotate {
		return *u.QRToken, nil
	}

	token := uuid.NewString()
	if err := s.repo.SetQRToken(ctx, userID, token); err != nil {
		return "", err
	}
	return token, nil
}

func (s *service) ResolveQRToken(ctx context.Context, token string) (*User, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, apperr.NotFound("member for QR token")
	}
	return s.repo.FindActiveMemberByQRToken(ctx, token)
}
