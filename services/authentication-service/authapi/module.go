// Package authapi is the public face of the authentication service: the
// /users routes, the token middleware every protected route sits behind,
// and the Principal handlers pass on to service code.
package authapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tradeguard/platform/services/authentication-service/internal/app/commands"
	"github.com/tradeguard/platform/services/authentication-service/internal/app/queries"
	"github.com/tradeguard/platform/services/authentication-service/internal/infra/audit"
	"github.com/tradeguard/platform/services/authentication-service/internal/infra/memory"
	"github.com/tradeguard/platform/services/authentication-service/internal/infra/postgres"
	"github.com/tradeguard/platform/services/authentication-service/internal/infra/sqlite"
	"github.com/tradeguard/platform/services/authentication-service/internal/infra/sqltx"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/crypto"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/repository"
	"github.com/tradeguard/platform/shared/logging"
)

// Backend selects where users are stored.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// HashParams tunes Argon2id. Nil means crypto defaults.
type HashParams = crypto.Params

// LightHashParams are for tests only.
var LightHashParams = crypto.LightParams

type Options struct {
	Backend Backend
	// DB is required for the SQL backends; the caller owns it.
	DB       *sql.DB
	Secret   []byte
	TokenTTL time.Duration
	Hash     *HashParams
	Logger   *logging.Logger
}

type Module struct {
	register    *commands.RegisterUserHandler
	login       *commands.LoginUserHandler
	editProfile *commands.EditProfileHandler
	currentUser *queries.CurrentUserHandler
	logger      *logging.Logger
}

// New wires the stores for opts.Backend, creating the users table when
// needed, and builds the command handlers.
func New(ctx context.Context, opts Options) (*Module, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	signer, err := crypto.NewHMACSigner(opts.Secret, opts.TokenTTL)
	if err != nil {
		return nil, err
	}

	var (
		users repository.UserStore
		tx    repository.TransactionManager
	)
	switch opts.Backend {
	case BackendMemory, "":
		users, tx = memory.NewUserStore(), memory.TxManager{}
	case BackendPostgres, BackendSQLite:
		if opts.DB == nil {
			return nil, errors.New("authapi: sql backend needs a DB")
		}
		migrator, store := sqlUserStore(opts.Backend, opts.DB)
		if err := migrator(ctx); err != nil {
			return nil, err
		}
		users, tx = store, sqltx.NewTxManager(opts.DB)
	default:
		return nil, fmt.Errorf("authapi: unknown backend %q", opts.Backend)
	}

	hasher := crypto.NewArgon2Hasher(opts.Hash)
	auditLog := audit.NewLogStore(opts.Logger)

	return &Module{
		register:    commands.NewRegisterUserHandler(users, hasher, auditLog),
		login:       commands.NewLoginUserHandler(users, hasher, signer, auditLog),
		editProfile: commands.NewEditProfileHandler(users, tx, hasher, auditLog),
		currentUser: queries.NewCurrentUserHandler(users, signer),
		logger:      opts.Logger.WithComponent("auth"),
	}, nil
}

func sqlUserStore(b Backend, db *sql.DB) (func(context.Context) error, repository.UserStore) {
	if b == BackendSQLite {
		s := sqlite.NewUserStore(db)
		return s.Migrate, s
	}
	s := postgres.NewPostgresUserStore(db)
	return s.Migrate, s
}
