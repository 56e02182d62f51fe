package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/kyodo/backend/internal/common/db"
	"github.com/kyodo/backend/internal/user/domain"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(sqlDB *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: sqlDB}
}

func (r *SQLiteRepository) Create(ctx context.Context, user domain.User, passwordHash string) error {
	start := time.Now()
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO users (id, name, login, password_hash) VALUES (?, ?, ?, ?)`,
		user.ID.String(),
		user.Name,
		user.Login,
		passwordHash,
	)
	return db.HandleExecError(db.DriverSQLite, err, opInsertUser, start, db.Violations{Unique: ErrLoginTaken})
}

func (r *SQLiteRepository) FindCredentialsByLogin(ctx context.Context, login string) (domain.Credentials, error) {
	start := time.Now()
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, name, login, password_hash FROM users WHERE login = ?`,
		login,
	)

	creds, err := scanCredentials(row)
	if err := db.HandleQueryError(db.DriverSQLite, err, ErrUserNotFound, opFindUserByLogin, start); err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	start := time.Now()
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, name, login FROM users WHERE id = ?`,
		id.String(),
	)

	user, err := scanUser(row)
	if err := db.HandleQueryError(db.DriverSQLite, err, ErrUserNotFound, opFindUserByID, start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
