package service_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyodo/backend/internal/common/db/dbtest"
	"github.com/kyodo/backend/internal/common/entityid"
	"github.com/kyodo/backend/internal/common/logger"
	grouprepo "github.com/kyodo/backend/internal/group/repository"
	"github.com/kyodo/backend/internal/group/service"
	userdomain "github.com/kyodo/backend/internal/user/domain"
	userrepo "github.com/kyodo/backend/internal/user/repository"
)

type storeFixture struct {
	svc    *service.GroupService
	groups *grouprepo.SQLiteRepository
	users  *userrepo.SQLiteRepository
}

func newStoreFixture(t *testing.T) storeFixture {
	t.Helper()
	sqlDB := dbtest.OpenSQLite(t)
	groups := grouprepo.NewSQLiteRepository(sqlDB)
	users := userrepo.NewSQLiteRepository(sqlDB)
	log := logger.NewWithWriter(&bytes.Buffer{}, "test", "ERROR")
	return storeFixture{
		svc:    service.NewGroupService(groups, users, log, service.DefaultOptions()),
		groups: groups,
		users:  users,
	}
}

func (f storeFixture) register(t *testing.T, name, login string) userdomain.User {
	t.Helper()
	u := userdomain.User{ID: entityid.Generate[userdomain.Kind](), Name: name, Login: login}
	require.NoError(t, f.users.Create(context.Background(), u, "hash"))
	return u
}

func TestSagaOnStore_SuccessBindsCreator(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice1")

	groupID, err := f.svc.CreateGroup(ctx, service.CreateGroupInput{Name: "Friends", CreatorID: alice.ID})
	require.NoError(t, err)

	groups, err := f.svc.ListGroupsForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, groupID, groups[0].ID)
	assert.Equal(t, "Friends", groups[0].Name)
	assert.Equal(t, []userdomain.User{alice}, groups[0].Members)
}

func TestSagaOnStore_UnknownCreatorLeavesNoGroup(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateGroup(ctx, service.CreateGroupInput{Name: "Ghosts", CreatorID: entityid.Generate[userdomain.Kind]()})
	require.ErrorIs(t, err, service.ErrGroupCreateFailed)
	require.ErrorIs(t, err, grouprepo.ErrUnknownReference)

	orphans, err := f.groups.CountOrphans(ctx)
	require.NoError(t, err)
	assert.Zero(t, orphans, "the compensating delete must remove the group")
}

func TestSagaOnStore_FreshUserHasNoGroups(t *testing.T) {
	f := newStoreFixture(t)
	bob := f.register(t, "Bob", "bob")

	groups, err := f.svc.ListGroupsForUser(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestAddMemberOnStore(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice1")
	bob := f.register(t, "Bob", "bob")

	groupID, err := f.svc.CreateGroup(ctx, service.CreateGroupInput{Name: "Friends", CreatorID: alice.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.AddMember(ctx, service.AddMemberInput{UserID: bob.ID, GroupID: groupID}))
	require.ErrorIs(t, f.svc.AddMember(ctx, service.AddMemberInput{UserID: bob.ID, GroupID: groupID}), service.ErrAddMemberFailed)

	groups, err := f.svc.ListGroupsForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []userdomain.User{alice, bob}, groups[0].Members)
}
