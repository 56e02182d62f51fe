package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/kyodo/backend/internal/common/db"
	"github.com/kyodo/backend/internal/user/domain"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, user domain.User, passwordHash string) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO users (id, name, login, password_hash) VALUES ($1, $2, $3, $4)`,
		user.ID.String(),
		user.Name,
		user.Login,
		passwordHash,
	)
	return db.HandleExecError(db.DriverPostgres, err, opInsertUser, start, db.Violations{Unique: ErrLoginTaken})
}

func (r *PgRepository) FindCredentialsByLogin(ctx context.Context, login string) (domain.Credentials, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT id::text, name, login, password_hash FROM users WHERE login = $1`,
		login,
	)

	creds, err := scanCredentials(row)
	if err := db.HandleQueryError(db.DriverPostgres, err, ErrUserNotFound, opFindUserByLogin, start); err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT id::text, name, login FROM users WHERE id = $1`,
		id.String(),
	)

	user, err := scanUser(row)
	if err := db.HandleQueryError(db.DriverPostgres, err, ErrUserNotFound, opFindUserByID, start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
