package domain

import "github.com/kyodo/backend/internal/common/entityid"

// Kind marks identifiers that name users.
type Kind struct{}

type ID = entityid.ID[Kind]

// User is the public view of an account. The password hash is deliberately
// absent and only travels inside Credentials.
type User struct {
	ID    ID
	Name  string
	Login string
}

type Credentials struct {
	User
	PasswordHash string
}
