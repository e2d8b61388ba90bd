package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"beefline/api/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, phone_number, password_hash, first_name, last_name,
	user_type, role, status, region, city, address, business_name, is_verified_seller,
	created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (
			id, email, phone_number, password_hash, first_name, last_name,
			user_type, role, status, region, city, address, business_name, is_verified_seller,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13, $14,
			NOW(), NOW()
		)
	`,
		user.ID,
		user.Email,
		user.PhoneNumber,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.UserType,
		user.Role,
		user.Status,
		user.Region,
		user.City,
		user.Address,
		user.BusinessName,
		user.IsVerifiedSeller,
	)
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user models.User) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE users SET
			phone_number = $2, first_name = $3, last_name = $4, user_type = $5,
			region = $6, city = $7, address = $8, business_name = $9, updated_at = NOW()
		WHERE id = $1
	`,
		user.ID,
		user.PhoneNumber,
		user.FirstName,
		user.LastName,
		user.UserType,
		user.Region,
		user.City,
		user.Address,
		user.BusinessName,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status models.UserStatus) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PhoneNumber,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.UserType,
		&user.Role,
		&user.Status,
		&user.Region,
		&user.City,
		&user.Address,
		&user.BusinessName,
		&user.IsVerifiedSeller,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
