package domain

import (
	"github.com/kyodo/backend/internal/common/entityid"
	userdomain "github.com/kyodo/backend/internal/user/domain"
)

// Kind marks identifiers that name groups.
type Kind struct{}

type ID = entityid.ID[Kind]

type Group struct {
	ID   ID
	Name string
}

// Membership relates one user to one group. The pair is unique in the store.
type Membership struct {
	UserID  userdomain.ID
	GroupID ID
}

// GroupWithMembers is a read-only projection assembled per request.
type GroupWithMembers struct {
	Group
	Members []userdomain.User
}
