package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"gymhub/internal/apperr"
	"gymhub/internal/db"
)

const userColumns = `id, name, email, password_hash, role, phone, date_of_birth,
	specialization, bio, qr_token, is_active, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *User) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role, phone, specialization, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	var created User
	err := r.db.GetContext(ctx, &created, query,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, u.Specialization, u.Bio)
	if err != nil {
		return nil, db.Conflict(err, "email already registered")
	}

	return &created, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var u User
	if err := r.db.GetContext(ctx, &u, query, email); err != nil {
		return nil, db.NotFound(err, "user")
	}

	return &u, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u User
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("user %d", id))
	}

	return &u, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) UpdateProfile(ctx context.Context, id int, req UpdateProfileRequest, dob *time.Time) (*User, error) {
	query := `
		UPDATE users SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			date_of_birth = COALESCE($4, date_of_birth),
			specialization = COALESCE($5, specialization),
			bio = COALESCE($6, bio),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var u User
	err := r.db.GetContext(ctx, &u, query, id, req.Name, req.Phone, dob, req.Specialization, req.Bio)
	if err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("user %d", id))
	}

	return &u, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]User, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Role != "" {
		args = append(args, filter.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY name, id LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args))

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *repository) SetActive(ctx context.Context, id int, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (r *repository) SetQRToken(ctx context.Context, id int, token string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET qr_token = $2, updated_at = NOW() WHERE id = $1`, id, token)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (r *repository) FindActiveMemberByQRToken(ctx context.Context, token string) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE qr_token = $1 AND role = 'member' AND is_active = TRUE`

	var u User
	if err := r.db.GetContext(ctx, &u, query, token); err != nil {
		return nil, db.NotFound(err, "member for QR token")
	}

	return &u, nil
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func requireRow(res rowsAffected, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(fmt.Sprintf("user %d", id))
	}
	return nil
}
