package service_test

import (
	"bytes"
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/kyodo/backend/internal/auth/service"
	"github.com/kyodo/backend/internal/common/crypto"
	"github.com/kyodo/backend/internal/common/logger"
	userdomain "github.com/kyodo/backend/internal/user/domain"
	userrepo "github.com/kyodo/backend/internal/user/repository"
)

type mockUserRepo struct {
	createFunc                 func(ctx context.Context, user userdomain.User, passwordHash string) error
	findCredentialsByLoginFunc func(ctx context.Context, login string) (userdomain.Credentials, error)
	findByIDFunc               func(ctx context.Context, id userdomain.ID) (userdomain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user userdomain.User, passwordHash string) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user, passwordHash)
	}
	return nil
}

func (m *mockUserRepo) FindCredentialsByLogin(ctx context.Context, login string) (userdomain.Credentials, error) {
	if m.findCredentialsByLoginFunc != nil {
		return m.findCredentialsByLoginFunc(ctx, login)
	}
	return userdomain.Credentials{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

type mockHasher struct {
	hashFunc   func(password string) (string, error)
	verifyFunc func(hash, password string) bool
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFunc != nil {
		return m.hashFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *mockHasher) Verify(hash, password string) bool {
	if m.verifyFunc != nil {
		return m.verifyFunc(hash, password)
	}
	return hash == "hashed_"+password
}

func testLogger() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.NewWithWriter(&buf, "test", "DEBUG"), &buf
}

func setupAuthService(t *testing.T) (*service.AuthService, *mockUserRepo, *mockHasher, *bytes.Buffer) {
	t.Helper()
	repo := &mockUserRepo{}
	hasher := &mockHasher{}
	log, buf := testLogger()
	return service.NewAuthService(repo, hasher, log), repo, hasher, buf
}

func realHasher(t *testing.T) *crypto.BcryptHasher {
	t.Helper()
	h, err := crypto.NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcryptHasher: %v", err)
	}
	return h
}
