package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kyodo/backend/internal/common/db"
	"github.com/kyodo/backend/internal/common/entityid"
	"github.com/kyodo/backend/internal/group/domain"
	userdomain "github.com/kyodo/backend/internal/user/domain"
)

var (
	ErrGroupNotFound    = errors.New("group not found")
	ErrMembershipExists = errors.New("membership already exists")
	// ErrUnknownReference reports a membership naming a user or group that
	// does not exist.
	ErrUnknownReference = errors.New("membership references unknown user or group")
)

type Repository interface {
	Create(ctx context.Context, group domain.Group) error
	Delete(ctx context.Context, id domain.ID) error
	FindByID(ctx context.Context, id domain.ID) (domain.Group, error)
	AddMember(ctx context.Context, membership domain.Membership) error
	ListGroupIDsByUser(ctx context.Context, userID userdomain.ID) ([]domain.ID, error)
	ListUserIDsByGroup(ctx context.Context, groupID domain.ID) ([]userdomain.ID, error)
	CountOrphans(ctx context.Context) (int64, error)
}

const (
	opInsertGroup           = "insert group"
	opDeleteGroup           = "delete group"
	opFindGroupByID         = "find group by id"
	opInsertMembership      = "insert membership"
	opListMembershipByUser  = "list memberships by user"
	opListMembershipByGroup = "list memberships by group"
	opCountOrphanGroups     = "count orphan groups"
)

var membershipViolations = db.Violations{
	Unique:     ErrMembershipExists,
	ForeignKey: ErrUnknownReference,
}

type rowScanner interface {
	Scan(dest ...any) error
}

type rowIterator interface {
	rowScanner
	Next() bool
	Err() error
}

func scanGroup(row rowScanner) (domain.Group, error) {
	var (
		rawID string
		group domain.Group
	)
	if err := row.Scan(&rawID, &group.Name); err != nil {
		return domain.Group{}, err
	}
	id, err := entityid.Parse[domain.Kind](rawID)
	if err != nil {
		return domain.Group{}, err
	}
	group.ID = id
	return group, nil
}

// collectIDs drains rows of single-column identifiers. The result is never
// nil so an empty membership list is distinguishable from a failure.
func collectIDs[K any](rows rowIterator) ([]entityid.ID[K], error) {
	ids := make([]entityid.ID[K], 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		id, err := entityid.Parse[K](raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return ids, nil
}
