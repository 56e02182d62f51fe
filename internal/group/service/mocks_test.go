package service_test

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/kyodo/backend/internal/common/logger"
	"github.com/kyodo/backend/internal/group/domain"
	grouprepo "github.com/kyodo/backend/internal/group/repository"
	"github.com/kyodo/backend/internal/group/service"
	userdomain "github.com/kyodo/backend/internal/user/domain"
	userrepo "github.com/kyodo/backend/internal/user/repository"
)

type mockGroupRepo struct {
	createFunc             func(ctx context.Context, group domain.Group) error
	deleteFunc             func(ctx context.Context, id domain.ID) error
	findByIDFunc           func(ctx context.Context, id domain.ID) (domain.Group, error)
	addMemberFunc          func(ctx context.Context, membership domain.Membership) error
	listGroupIDsByUserFunc func(ctx context.Context, userID userdomain.ID) ([]domain.ID, error)
	listUserIDsByGroupFunc func(ctx context.Context, groupID domain.ID) ([]userdomain.ID, error)
	countOrphansFunc       func(ctx context.Context) (int64, error)

	mu      sync.Mutex
	deleted []domain.ID
}

func (m *mockGroupRepo) Create(ctx context.Context, group domain.Group) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, group)
	}
	return nil
}

func (m *mockGroupRepo) Delete(ctx context.Context, id domain.ID) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, id)
	m.mu.Unlock()
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockGroupRepo) FindByID(ctx context.Context, id domain.ID) (domain.Group, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return domain.Group{}, grouprepo.ErrGroupNotFound
}

func (m *mockGroupRepo) AddMember(ctx context.Context, membership domain.Membership) error {
	if m.addMemberFunc != nil {
		return m.addMemberFunc(ctx, membership)
	}
	return nil
}

func (m *mockGroupRepo) ListGroupIDsByUser(ctx context.Context, userID userdomain.ID) ([]domain.ID, error) {
	if m.listGroupIDsByUserFunc != nil {
		return m.listGroupIDsByUserFunc(ctx, userID)
	}
	return []domain.ID{}, nil
}

func (m *mockGroupRepo) ListUserIDsByGroup(ctx context.Context, groupID domain.ID) ([]userdomain.ID, error) {
	if m.listUserIDsByGroupFunc != nil {
		return m.listUserIDsByGroupFunc(ctx, groupID)
	}
	return []userdomain.ID{}, nil
}

func (m *mockGroupRepo) CountOrphans(ctx context.Context) (int64, error) {
	if m.countOrphansFunc != nil {
		return m.countOrphansFunc(ctx)
	}
	return 0, nil
}

func (m *mockGroupRepo) deletedIDs() []domain.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ID(nil), m.deleted...)
}

type mockUserReader struct {
	users map[userdomain.ID]userdomain.User
}

func (m *mockUserReader) FindByID(_ context.Context, id userdomain.ID) (userdomain.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func setupGroupService(t *testing.T) (*service.GroupService, *mockGroupRepo, *mockUserReader, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	repo := &mockGroupRepo{}
	users := &mockUserReader{users: map[userdomain.ID]userdomain.User{}}
	log := logger.NewWithWriter(&buf, "test", "DEBUG")
	return service.NewGroupService(repo, users, log, service.DefaultOptions()), repo, users, &buf
}
