package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kyodo/backend/internal/common/clock"
	"github.com/kyodo/backend/internal/common/constants"
	"github.com/kyodo/backend/internal/common/entityid"
	"github.com/kyodo/backend/internal/common/logger"
	"github.com/kyodo/backend/internal/common/resilience"
	"github.com/kyodo/backend/internal/group/domain"
	grouprepo "github.com/kyodo/backend/internal/group/repository"
	"github.com/kyodo/backend/internal/observability/metrics"
	userdomain "github.com/kyodo/backend/internal/user/domain"
	userrepo "github.com/kyodo/backend/internal/user/repository"
)

// UserReader resolves member identities for projections.
type UserReader interface {
	FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error)
}

type GroupService struct {
	groups  grouprepo.Repository
	users   UserReader
	log     *logger.Logger
	newID   func() domain.ID
	options Options
}

type Options struct {
	// ProjectionConcurrency bounds the groups assembled in parallel.
	ProjectionConcurrency int
	// CompensationTimeout bounds the compensating delete, which runs even if
	// the request context is already cancelled.
	CompensationTimeout time.Duration
	// Clock times the saga.
	Clock clock.Clock
	// Breaker guards the projection reads. The compensating delete never
	// goes through it. A nil Breaker gets a default one.
	Breaker *resilience.CircuitBreaker
}

func DefaultOptions() Options {
	return Options{
		ProjectionConcurrency: constants.DefaultProjectionConcurrency,
		CompensationTimeout:   constants.CompensationTimeout,
		Clock:                 clock.NewRealClock(),
	}
}

// NewReadBreaker returns the breaker used for projection reads when none is
// supplied. Lookups that find nothing are not store failures.
func NewReadBreaker(log *logger.Logger, clk clock.Clock) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:  "group_reads",
		Clock: clk,
		Ignore: func(err error) bool {
			return errors.Is(err, grouprepo.ErrGroupNotFound) || errors.Is(err, userrepo.ErrUserNotFound)
		},
		Logger: log,
	})
}

func NewGroupService(groups grouprepo.Repository, users UserReader, log *logger.Logger, opts Options) *GroupService {
	if opts.ProjectionConcurrency <= 0 {
		opts.ProjectionConcurrency = constants.DefaultProjectionConcurrency
	}
	if opts.CompensationTimeout <= 0 {
		opts.CompensationTimeout = constants.CompensationTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.Breaker == nil {
		opts.Breaker = NewReadBreaker(log, opts.Clock)
	}
	return &GroupService{
		groups:  groups,
		users:   users,
		log:     log,
		newID:   entityid.Generate[domain.Kind],
		options: opts,
	}
}

type CreateGroupInput struct {
	Name      string
	CreatorID userdomain.ID
}

type AddMemberInput struct {
	UserID  userdomain.ID
	GroupID domain.ID
}

// CreateGroup inserts the group and binds the creator to it. If binding
// fails the group is deleted again and the binding error is returned; a
// failed delete is logged and counted but never replaces that error.
func (s *GroupService) CreateGroup(ctx context.Context, input CreateGroupInput) (domain.ID, error) {
	start := s.options.Clock.Now()
	group := domain.Group{ID: s.newID(), Name: input.Name}
	fields := logger.Fields{
		"group_id":   group.ID.String(),
		"creator_id": input.CreatorID.String(),
	}

	state := SagaStart
	defer func() {
		metrics.GroupSagaTotal.WithLabelValues(state.String()).Inc()
		metrics.GroupSagaDurationSeconds.Observe(s.options.Clock.Since(start).Seconds())
	}()

	if err := s.groups.Create(ctx, group); err != nil {
		state = SagaFailed
		s.transition(ctx, fields, state, "create_group_insert_failed").Errorf("create group failed: %v", err)
		return domain.ID{}, ErrGroupCreateFailed.WithCause(err)
	}
	state = SagaGroupCreated
	s.transition(ctx, fields, state, "create_group_inserted").Debug("group inserted")

	membership := domain.Membership{UserID: input.CreatorID, GroupID: group.ID}
	if err := s.groups.AddMember(ctx, membership); err != nil {
		state = SagaCompensatingDelete
		s.transition(ctx, fields, state, "create_group_membership_failed").Warnf("create group: binding creator failed, removing group: %v", err)

		s.compensate(ctx, fields, group.ID)

		state = SagaFailed
		s.transition(ctx, fields, state, "create_group_failed").Info("create group rolled back")
		return domain.ID{}, ErrGroupCreateFailed.WithCause(err)
	}

	state = SagaMembershipBound
	s.transition(ctx, fields, state, "create_group_success").Info("group created")
	return group.ID, nil
}

func (s *GroupService) compensate(ctx context.Context, fields logger.Fields, id domain.ID) {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.options.CompensationTimeout)
	defer cancel()

	if err := s.groups.Delete(delCtx, id); err != nil {
		metrics.GroupSagaCompensationFailures.Inc()
		s.log.WithFields(ctx, withAction(fields, "create_group_compensation_failed")).
			Criticalf("compensating delete failed, group left without members: %v", err)
	}
}

func (s *GroupService) transition(ctx context.Context, fields logger.Fields, state SagaState, action string) *logger.Entry {
	f := withAction(fields, action)
	f["saga_state"] = state.String()
	return s.log.WithFields(ctx, f)
}

func (s *GroupService) AddMember(ctx context.Context, input AddMemberInput) error {
	fields := logger.Fields{
		"group_id": input.GroupID.String(),
		"user_id":  input.UserID.String(),
	}

	if err := s.groups.AddMember(ctx, domain.Membership(input)); err != nil {
		metrics.GroupMembersAddedTotal.WithLabelValues("failed").Inc()
		s.log.WithFields(ctx, withAction(fields, "add_member_failed")).Warnf("add member failed: %v", err)
		return ErrAddMemberFailed.WithCause(err)
	}

	metrics.GroupMembersAddedTotal.WithLabelValues("success").Inc()
	s.log.WithFields(ctx, withAction(fields, "add_member_success")).Info("member added")
	return nil
}

// ListGroupsForUser assembles every group the user belongs to together with
// its members. Order follows the store's membership listing. Any failure
// fails the whole call. Every read goes through the breaker.
func (s *GroupService) ListGroupsForUser(ctx context.Context, userID userdomain.ID) ([]domain.GroupWithMembers, error) {
	fields := logger.Fields{"user_id": userID.String()}

	var groupIDs []domain.ID
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		groupIDs, err = s.groups.ListGroupIDsByUser(ctx, userID)
		return err
	})
	if err != nil {
		s.log.WithFields(ctx, withAction(fields, "list_groups_failed")).Errorf("list group ids failed: %v", err)
		return nil, ErrListGroupsFailed.WithCause(err)
	}

	result := make([]domain.GroupWithMembers, len(groupIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.options.ProjectionConcurrency)
	for i, groupID := range groupIDs {
		i, groupID := i, groupID
		g.Go(func() error {
			assembled, err := s.assemble(gctx, groupID)
			if err != nil {
				return err
			}
			result[i] = assembled
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.log.WithFields(ctx, withAction(fields, "list_groups_failed")).Errorf("assemble groups failed: %v", err)
		return nil, ErrListGroupsFailed.WithCause(err)
	}

	metrics.GroupProjectionSize.Observe(float64(len(result)))
	return result, nil
}

func (s *GroupService) assemble(ctx context.Context, groupID domain.ID) (domain.GroupWithMembers, error) {
	var group domain.Group
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		group, err = s.groups.FindByID(ctx, groupID)
		return err
	})
	if err != nil {
		return domain.GroupWithMembers{}, err
	}

	var userIDs []userdomain.ID
	err = s.read(ctx, func(ctx context.Context) error {
		var err error
		userIDs, err = s.groups.ListUserIDsByGroup(ctx, groupID)
		return err
	})
	if err != nil {
		return domain.GroupWithMembers{}, err
	}

	members := make([]userdomain.User, 0, len(userIDs))
	for _, id := range userIDs {
		var user userdomain.User
		err := s.read(ctx, func(ctx context.Context) error {
			var err error
			user, err = s.users.FindByID(ctx, id)
			return err
		})
		if err != nil {
			return domain.GroupWithMembers{}, err
		}
		members = append(members, user)
	}

	return domain.GroupWithMembers{Group: group, Members: members}, nil
}

func (s *GroupService) read(ctx context.Context, fn func(context.Context) error) error {
	return s.options.Breaker.Call(ctx, fn)
}

func withAction(fields logger.Fields, action string) logger.Fields {
	out := make(logger.Fields, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out["action"] = action
	return out
}
