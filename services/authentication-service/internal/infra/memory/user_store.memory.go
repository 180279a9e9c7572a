package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	domainErr "github.com/tradeguard/platform/services/authentication-service/internal/domain/errors"
	"github.com/tradeguard/platform/services/authentication-service/internal/domain/user"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/repository"
)

var _ repository.UserStore = (*UserStore)(nil)

// UserStore keeps users in process memory (STORE=memory and tests).
// Returned users are copies; callers cannot mutate stored state.
type UserStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]user.User
	byEmail map[string]uuid.UUID
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[uuid.UUID]user.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *UserStore) CreateUser(ctx context.Context, u *user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[u.UserEmail]; taken {
		return domainErr.ErrEmailAlreadyExists
	}
	s.users[u.UserID] = *u
	s.byEmail[u.UserEmail] = u.UserID
	return nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, domainErr.ErrUserNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, domainErr.ErrUserNotFound
	}
	return &u, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, u *user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[u.UserID]
	if !ok {
		return domainErr.ErrUserNotFound
	}
	// identity and credentials are not part of a profile update
	next := *u
	next.UserEmail = cur.UserEmail
	next.PasswordHash = cur.PasswordHash
	next.Role = cur.Role
	next.Status = cur.Status
	next.CreatedAt = cur.CreatedAt
	s.users[u.UserID] = next
	return nil
}

func (s *UserStore) SetPasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return domainErr.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	s.users[id] = u
	return nil
}

// TxManager runs fn directly. Each store call is atomic on its own; the
// memory backend has no multi-statement rollback.
type TxManager struct{}

func (TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
