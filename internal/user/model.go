package user

import "time"

type User struct {
	ID             int        `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	Role           string     `db:"role" json:"role"`
	Phone          *string    `db:"phone" json:"phone,omitempty"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Specialization *string    `db:"specialization" json:"specialization,omitempty"`
	Bio            *string    `db:"bio" json:"bio,omitempty"`
	QRToken        *string    `db:"qr_token" json:"-"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

type ListFilter struct {
	Role   string
	Search string
	Active *bool
}

type RegisterRequest struct {
	Name     string  `json:"name" binding:"required,min=2,max=255"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Phone    *string `json:"phone" binding:"omitempty,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest only touches fields that are present.
// DateOfBirth is YYYY-MM-DD.
type UpdateProfileRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=2,max=255"`
	Phone          *string `json:"phone" binding:"omitempty,max=32"`
	DateOfBirth    *string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Specialization *string `json:"specialization" binding:"omitempty,max=255"`
	Bio            *string `json:"bio" binding:"omitempty,max=2000"`
}

type CreateUserRequest struct {
	Name           string  `json:"name" binding:"required,min=2,max=255"`
	Email          string  `json:"email" binding:"required,email"`
	Password       string  `json:"password" binding:"required,min=8"`
	Role           string  `json:"role" binding:"required,oneof=member trainer staff admin"`
	Phone          *string `json:"phone" binding:"omitempty,max=32"`
	Specialization *string `json:"specialization" binding:"omitempty,max=255"`
	Bio            *string `json:"bio" binding:"omitempty,max=2000"`
}

type AuthResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token,omitempty"`
	User         Profile `json:"user"`
}

type QRTokenResponse struct {
	Token string `json:"token"`
}

// Profile is what a user sees about themselves.
type Profile struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Phone          *string   `json:"phone,omitempty"`
	DateOfBirth    *string   `json:"date_of_birth,omitempty"`
	Specialization *string   `json:"specialization,omitempty"`
	Bio            *string   `json:"bio,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// MemberSummary is the row shape of staff member lists.
type MemberSummary struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TrainerCard is the compact trainer view used by the mobile app.
type TrainerCard struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

// TrainerProfile is the detailed trainer view used by the web app.
type TrainerProfile struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
	Bio            string `json:"bio"`
}

func ToProfile(u User) Profile {
	p := Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Phone:     u.Phone,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
	if u.DateOfBirth != nil {
		dob := u.DateOfBirth.Format("2006-01-02")
		p.DateOfBirth = &dob
	}
	if u.Role == "trainer" {
		p.Specialization = u.Specialization
		p.Bio = u.Bio
	}
	return p
}

func ToMemberSummary(u User) MemberSummary {
	return MemberSummary{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func ToTrainerCard(u User) TrainerCard {
	return TrainerCard{ID: u.ID, Name: u.Name, Specialization: deref(u.Specialization)}
}

func ToTrainerProfile(u User) TrainerProfile {
	return TrainerProfile{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Specialization: deref(u.Specialization),
		Bio:            deref(u.Bio),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
