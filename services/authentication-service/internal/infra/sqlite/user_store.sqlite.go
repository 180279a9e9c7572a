// services/authentication-service/internal/infra/sqlite/user_store.sqlite.go
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domainErr "github.com/tradeguard/platform/services/authentication-service/internal/domain/errors"
	"github.com/tradeguard/platform/services/authentication-service/internal/domain/user"
	"github.com/tradeguard/platform/services/authentication-service/internal/infra/sqltx"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/repository"
)

var _ repository.UserStore = (*UserStore)(nil)

//go:embed schema.sql
var schema string

const userColumns = `user_id, email, first_name, last_name, phone_number, company_name,
	company_type, user_role, reg_number, primary_country, shipping_volume,
	password_hash, status, two_fa, notifs, alerts, created_at, updated_at`

// UserStore keeps users in the same SQLite file as consignments. The caller
// owns db and must have registered the "sqlite" driver.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

func (s *UserStore) CreateUser(ctx context.Context, u *user.User) error {
	_, err := sqltx.Conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.UserID.String(), u.UserEmail, u.FirstName, u.LastName, u.PhoneNumber, u.CompanyName,
		string(u.CompanyType), string(u.Role), u.RegNumber, u.PrimaryCountry, string(u.ShippingVolume),
		u.PasswordHash, string(u.Status), u.TwoFA, u.Notifs, u.Alerts,
		u.CreatedAt.UnixNano(), u.UpdatedAt.UnixNano(),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
		return domainErr.ErrEmailAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	row := sqltx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (s *UserStore) GetUserByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	row := sqltx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID.String())
	return scanUser(row)
}

func (s *UserStore) UpdateProfile(ctx context.Context, u *user.User) error {
	res, err := sqltx.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, phone_number = ?,
			company_name = ?, company_type = ?, reg_number = ?,
			primary_country = ?, shipping_volume = ?, two_fa = ?,
			notifs = ?, alerts = ?, updated_at = ?
		WHERE user_id = ?`,
		u.FirstName, u.LastName, u.PhoneNumber, u.CompanyName, string(u.CompanyType),
		u.RegNumber, u.PrimaryCountry, string(u.ShippingVolume), u.TwoFA, u.Notifs, u.Alerts,
		u.UpdatedAt.UnixNano(), u.UserID.String(),
	)
	return checkAffected(res, err, "update profile")
}

func (s *UserStore) SetPasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := sqltx.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE user_id = ?`,
		passwordHash, time.Now().UTC().UnixNano(), id.String())
	return checkAffected(res, err, "set password")
}

func scanUser(row *sql.Row) (*user.User, error) {
	var (
		u                    user.User
		id                   string
		companyType, role    string
		volume, status       string
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&id, &u.UserEmail, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.CompanyName,
		&companyType, &role, &u.RegNumber, &u.PrimaryCountry, &volume,
		&u.PasswordHash, &status, &u.TwoFA, &u.Notifs, &u.Alerts, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainErr.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if u.UserID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("scan user: bad id %q: %w", id, err)
	}
	u.CompanyType = user.CompanyType(companyType)
	u.Role = user.Role(role)
	u.ShippingVolume = user.ShippingVolume(volume)
	u.Status = user.UserStatus(status)
	u.CreatedAt = time.Unix(0, createdAt).UTC()
	u.UpdatedAt = time.Unix(0, updatedAt).UTC()
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
