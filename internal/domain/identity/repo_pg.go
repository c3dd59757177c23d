package identity

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepoPG(pool *pgxpool.Pool) *UserRepoPG {
	return &UserRepoPG{pool: pool}
}

const userCols = `id, username, email, password, role, full_name,
	phone, position, department, rhu_name, rhu_address, status, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.FullName,
		&u.Phone, &u.Position, &u.Department, &u.RHUName, &u.RHUAddress,
		&u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	return &u, err
}

func (r *UserRepoPG) GetByID(ctx context.Context, id int) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *UserRepoPG) GetByLogin(ctx context.Context, login string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users
		 WHERE (username = $1 OR email = $1) AND status = $2`,
		login, StatusActive))
}

func (r *UserRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE username = $1`, username))
}

func (r *UserRepoPG) FirstActiveByRole(ctx context.Context, role string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users
		 WHERE role = $1 AND status = $2 ORDER BY id LIMIT 1`,
		role, StatusActive))
}

func (r *UserRepoPG) Create(ctx context.Context, u *User) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password, role, full_name, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		u.Username, u.Email, u.PasswordHash, u.Role, u.FullName, u.Status,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepoPG) UpdateProfile(ctx context.Context, id int, p ProfileUpdate) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET full_name=$2, email=$3, phone=$4, position=$5,
			department=$6, rhu_name=$7, rhu_address=$8, updated_at=NOW()
		 WHERE id = $1`,
		id, p.FullName, p.Email, p.Phone, p.Position, p.Department, p.RHUName, p.RHUAddress)
	return err
}

func (r *UserRepoPG) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET password=$2, updated_at=NOW() WHERE id = $1`,
		id, passwordHash)
	return err
}
