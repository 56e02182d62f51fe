package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/kyodo/backend/internal/common/db"
	"github.com/kyodo/backend/internal/group/domain"
	userdomain "github.com/kyodo/backend/internal/user/domain"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, group domain.Group) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO groups (id, name) VALUES ($1, $2)`,
		group.ID.String(),
		group.Name,
	)
	return db.HandleExecError(db.DriverPostgres, err, opInsertGroup, start, db.Violations{})
}

func (r *PgRepository) Delete(ctx context.Context, id domain.ID) error {
	start := time.Now()
	_, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id.String())
	return db.HandleExecError(db.DriverPostgres, err, opDeleteGroup, start, db.Violations{})
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.Group, error) {
	start := time.Now()
	row := r.pool.QueryRow(ctx, `SELECT id::text, name FROM groups WHERE id = $1`, id.String())

	group, err := scanGroup(row)
	if err := db.HandleQueryError(db.DriverPostgres, err, ErrGroupNotFound, opFindGroupByID, start); err != nil {
		return domain.Group{}, err
	}
	return group, nil
}

func (r *PgRepository) AddMember(ctx context.Context, membership domain.Membership) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2)`,
		membership.UserID.String(),
		membership.GroupID.String(),
	)
	return db.HandleExecError(db.DriverPostgres, err, opInsertMembership, start, membershipViolations)
}

func (r *PgRepository) ListGroupIDsByUser(ctx context.Context, userID userdomain.ID) ([]domain.ID, error) {
	start := time.Now()
	rows, err := r.pool.Query(ctx, `SELECT group_id::text FROM user_groups WHERE user_id = $1`, userID.String())
	if err != nil {
		return nil, db.HandleQueryError(db.DriverPostgres, err, nil, opListMembershipByUser, start)
	}
	defer rows.Close()

	ids, err := collectIDs[domain.Kind](rows)
	if err := db.HandleQueryError(db.DriverPostgres, err, nil, opListMembershipByUser, start); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PgRepository) ListUserIDsByGroup(ctx context.Context, groupID domain.ID) ([]userdomain.ID, error) {
	start := time.Now()
	rows, err := r.pool.Query(ctx, `SELECT user_id::text FROM user_groups WHERE group_id = $1`, groupID.String())
	if err != nil {
		return nil, db.HandleQueryError(db.DriverPostgres, err, nil, opListMembershipByGroup, start)
	}
	defer rows.Close()

	ids, err := collectIDs[userdomain.Kind](rows)
	if err := db.HandleQueryError(db.DriverPostgres, err, nil, opListMembershipByGroup, start); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PgRepository) CountOrphans(ctx context.Context) (int64, error) {
	start := time.Now()
	var count int64
	err := r.pool.QueryRow(ctx, countOrphansQuery).Scan(&count)
	if err := db.HandleQueryError(db.DriverPostgres, err, nil, opCountOrphanGroups, start); err != nil {
		return 0, err
	}
	return count, nil
}

const countOrphansQuery = `
SELECT COUNT(*) FROM groups g
WHERE NOT EXISTS (SELECT 1 FROM user_groups ug WHERE ug.group_id = g.id)`
