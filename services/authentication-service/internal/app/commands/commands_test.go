package commands

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeguard/platform/services/authentication-service/internal/domain/audit"
	domainErr "github.com/tradeguard/platform/services/authentication-service/internal/domain/errors"
	"github.com/tradeguard/platform/services/authentication-service/internal/domain/user"
	"github.com/tradeguard/platform/services/authentication-service/internal/infra/memory"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/crypto"
)

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
}

func (r *recordingAudit) Append(ctx context.Context, e *audit.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, e.Action)
	return nil
}

type fixture struct {
	users    *memory.UserStore
	audit    *recordingAudit
	register *RegisterUserHandler
	login    *LoginUserHandler
	edit     *EditProfileHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := memory.NewUserStore()
	rec := &recordingAudit{}
	hasher := crypto.NewArgon2Hasher(crypto.LightParams)
	signer, err := crypto.NewHMACSigner([]byte("test"), 0)
	require.NoError(t, err)

	return &fixture{
		users:    users,
		audit:    rec,
		register: NewRegisterUserHandler(users, hasher, rec),
		login:    NewLoginUserHandler(users, hasher, signer, rec),
		edit:     NewEditProfileHandler(users, memory.TxManager{}, hasher, rec),
	}
}

func validRegistration() RegisterUserParams {
	return RegisterUserParams{
		Email:          "Ana@Example.com",
		FirstName:      "Ana",
		LastName:       "Silva",
		PhoneNumber:    "+91 555 0100",
		CompanyName:    "Acme Exports",
		UserRole:       "exporter",
		CompanyType:    "sme",
		PrimaryCountry: "IN",
		Password:       "correct horse",
	}
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.register.Handle(ctx, validRegistration())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	stored, err := f.users.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", stored.UserEmail)
	assert.Equal(t, user.RoleExporter, stored.Role)
	assert.NotEqual(t, "correct horse", stored.PasswordHash)
	assert.Equal(t, []string{audit.ActionUserRegistered}, f.audit.actions)

	_, err = f.register.Handle(ctx, validRegistration())
	assert.ErrorIs(t, err, domainErr.ErrEmailAlreadyExists)
}

func TestRegisterUserValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterUserParams)
		want   error
	}{
		{"missing phone", func(p *RegisterUserParams) { p.PhoneNumber = "" }, domainErr.ErrMissingFields},
		{"blank password", func(p *RegisterUserParams) { p.Password = "   " }, domainErr.ErrMissingFields},
		{"bad role", func(p *RegisterUserParams) { p.UserRole = "root" }, domainErr.ErrInvalidRole},
		{"bad company type", func(p *RegisterUserParams) { p.CompanyType = "bank" }, domainErr.ErrInvalidCompanyType},
		{"bad volume", func(p *RegisterUserParams) { p.ShippingVolume = "huge" }, domainErr.ErrInvalidShippingVolume},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validRegistration()
			tt.mutate(&p)
			_, err := newFixture(t).register.Handle(context.Background(), p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoginUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id, err := f.register.Handle(ctx, validRegistration())
	require.NoError(t, err)

	sess, err := f.login.Handle(ctx, LoginParams{Email: "ana@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)
	assert.Equal(t, id, sess.User.UserID)
	assert.Equal(t, 90*time.Minute, sess.ExpiresIn())

	_, err = f.login.Handle(ctx, LoginParams{Email: "ana@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domainErr.ErrInvalidCredentials)

	_, err = f.login.Handle(ctx, LoginParams{Email: "nobody@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, domainErr.ErrInvalidCredentials)
}

func TestLoginRejectsSuspendedUser(t *testing.T) {
	ctx := context.Background()
	hasher := crypto.NewArgon2Hasher(crypto.LightParams)
	hash, err := hasher.HashPassword(ctx, "correct horse")
	require.NoError(t, err)

	users := memory.NewUserStore()
	require.NoError(t, users.CreateUser(ctx, &user.User{
		UserID:       uuid.New(),
		UserEmail:    "sus@example.com",
		PasswordHash: hash,
		Status:       user.UserStatusSuspended,
	}))

	login := NewLoginUserHandler(users, hasher, mustSigner(t), &recordingAudit{})
	_, err = login.Handle(ctx, LoginParams{Email: "sus@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, domainErr.ErrUserSuspended)
}

func mustSigner(t *testing.T) crypto.TokenSigner {
	s, err := crypto.NewHMACSigner([]byte("test"), 0)
	require.NoError(t, err)
	return s
}

func TestEditProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id, err := f.register.Handle(ctx, validRegistration())
	require.NoError(t, err)

	company := "Acme Global"
	twoFA := true
	err = f.edit.Handle(ctx, EditProfileParams{
		ActorID:  id,
		TargetID: id,
		Update:   user.ProfileUpdate{CompanyName: &company, TwoFA: &twoFA},
	})
	require.NoError(t, err)

	u, err := f.users.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme Global", u.CompanyName)
	assert.Equal(t, "Ana", u.FirstName, "unset fields keep their value")
	assert.True(t, u.TwoFA)
}

func TestEditProfileRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id, err := f.register.Handle(ctx, validRegistration())
	require.NoError(t, err)

	t.Run("other user", func(t *testing.T) {
		err := f.edit.Handle(ctx, EditProfileParams{ActorID: id, TargetID: uuid.New()})
		assert.ErrorIs(t, err, domainErr.ErrNotProfileOwner)
	})

	t.Run("new password needs current", func(t *testing.T) {
		err := f.edit.Handle(ctx, EditProfileParams{ActorID: id, TargetID: id, NewPassword: "next"})
		assert.ErrorIs(t, err, domainErr.ErrPasswordChangeAuth)
	})

	t.Run("wrong current password", func(t *testing.T) {
		err := f.edit.Handle(ctx, EditProfileParams{ActorID: id, TargetID: id, CurrentPassword: "nope", NewPassword: "next"})
		assert.ErrorIs(t, err, domainErr.ErrWrongPassword)
	})

	t.Run("invalid enum leaves profile untouched", func(t *testing.T) {
		bad, name := "huge", "Changed"
		err := f.edit.Handle(ctx, EditProfileParams{ActorID: id, TargetID: id,
			Update: user.ProfileUpdate{ShippingVolume: &bad, FirstName: &name}})
		assert.ErrorIs(t, err, domainErr.ErrInvalidShippingVolume)
		u, _ := f.users.GetUserByID(ctx, id)
		assert.Equal(t, "Ana", u.FirstName)
	})

	t.Run("password change", func(t *testing.T) {
		err := f.edit.Handle(ctx, EditProfileParams{ActorID: id, TargetID: id, CurrentPassword: "correct horse", NewPassword: "battery staple"})
		require.NoError(t, err)

		_, err = f.login.Handle(ctx, LoginParams{Email: "ana@example.com", Password: "battery staple"})
		assert.NoError(t, err)
		_, err = f.login.Handle(ctx, LoginParams{Email: "ana@example.com", Password: "correct horse"})
		assert.ErrorIs(t, err, domainErr.ErrInvalidCredentials)
		assert.Contains(t, f.audit.actions, audit.ActionPasswordChanged)
	})
}
