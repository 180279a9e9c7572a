// services/authentication-service/internal/infra/postgres/userStore.postgres.go
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	domainErr "github.com/tradeguard/platform/services/authentication-service/internal/domain/errors"
	"github.com/tradeguard/platform/services/authentication-service/internal/domain/user"
	"github.com/tradeguard/platform/services/authentication-service/internal/infra/sqltx"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/repository"
)

// Ensure PostgresUserStore implements the interface at compile time
var _ repository.UserStore = (*PostgresUserStore)(nil)

//go:embed schema.sql
var schema string

const userColumns = `user_id, email, first_name, last_name, phone_number, company_name,
	company_type, user_role, reg_number, primary_country, shipping_volume,
	password_hash, status, two_fa, notifs, alerts, created_at, updated_at`

type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{
		db: db,
	}
}

// Migrate creates the users table when it does not exist.
func (s *PostgresUserStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) CreateUser(ctx context.Context, u *user.User) error {
	_, err := sqltx.Conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		u.UserID, u.UserEmail, u.FirstName, u.LastName, u.PhoneNumber, u.CompanyName,
		u.CompanyType, u.Role, u.RegNumber, u.PrimaryCountry, u.ShippingVolume,
		u.PasswordHash, u.Status, u.TwoFA, u.Notifs, u.Alerts, u.CreatedAt, u.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domainErr.ErrEmailAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	row := sqltx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *PostgresUserStore) GetUserByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	row := sqltx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
	return scanUser(row)
}

func (s *PostgresUserStore) UpdateProfile(ctx context.Context, u *user.User) error {
	res, err := sqltx.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE users SET first_name = $2, last_name = $3, phone_number = $4,
			company_name = $5, company_type = $6, reg_number = $7,
			primary_country = $8, shipping_volume = $9, two_fa = $10,
			notifs = $11, alerts = $12, updated_at = $13
		WHERE user_id = $1`,
		u.UserID, u.FirstName, u.LastName, u.PhoneNumber, u.CompanyName, u.CompanyType,
		u.RegNumber, u.PrimaryCountry, u.ShippingVolume, u.TwoFA, u.Notifs, u.Alerts, u.UpdatedAt,
	)
	return checkAffected(res, err, "update profile")
}

func (s *PostgresUserStore) SetPasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := sqltx.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE user_id = $1`,
		id, passwordHash)
	return checkAffected(res, err, "set password")
}

func scanUser(row *sql.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.UserID, &u.UserEmail, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.CompanyName,
		&u.CompanyType, &u.Role, &u.RegNumber, &u.PrimaryCountry, &u.ShippingVolume,
		&u.PasswordHash, &u.Status, &u.TwoFA, &u.Notifs, &u.Alerts, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainErr.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func checkAffected(res sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return domainErr.ErrUserNotFound
	}
	return nil
}
