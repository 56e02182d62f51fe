package repository

import (
	"context"
	"errors"

	"github.com/kyodo/backend/internal/common/entityid"
	"github.com/kyodo/backend/internal/user/domain"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrLoginTaken   = errors.New("login already taken")
)

type Repository interface {
	Create(ctx context.Context, user domain.User, passwordHash string) error
	FindCredentialsByLogin(ctx context.Context, login string) (domain.Credentials, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
}

const (
	opInsertUser      = "insert user"
	opFindUserByLogin = "find user by login"
	opFindUserByID    = "find user by id"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredentials(row rowScanner) (domain.Credentials, error) {
	var (
		rawID string
		creds domain.Credentials
	)
	if err := row.Scan(&rawID, &creds.Name, &creds.Login, &creds.PasswordHash); err != nil {
		return domain.Credentials{}, err
	}
	id, err := entityid.Parse[domain.Kind](rawID)
	if err != nil {
		return domain.Credentials{}, err
	}
	creds.ID = id
	return creds, nil
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		rawID string
		user  domain.User
	)
	if err := row.Scan(&rawID, &user.Name, &user.Login); err != nil {
		return domain.User{}, err
	}
	id, err := entityid.Parse[domain.Kind](rawID)
	if err != nil {
		return domain.User{}, err
	}
	user.ID = id
	return user, nil
}
