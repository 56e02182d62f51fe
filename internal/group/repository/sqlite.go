package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/kyodo/backend/internal/common/db"
	"github.com/kyodo/backend/internal/group/domain"
	userdomain "github.com/kyodo/backend/internal/user/domain"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(sqlDB *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: sqlDB}
}

func (r *SQLiteRepository) Create(ctx context.Context, group domain.Group) error {
	start := time.Now()
	_, err := r.db.ExecContext(ctx, `INSERT INTO groups (id, name) VALUES (?, ?)`, group.ID.String(), group.Name)
	return db.HandleExecError(db.DriverSQLite, err, opInsertGroup, start, db.Violations{})
}

func (r *SQLiteRepository) Delete(ctx context.Context, id domain.ID) error {
	start := time.Now()
	_, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id.String())
	return db.HandleExecError(db.DriverSQLite, err, opDeleteGroup, start, db.Violations{})
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id domain.ID) (domain.Group, error) {
	start := time.Now()
	row := r.db.QueryRowContext(ctx, `SELECT id, name FROM groups WHERE id = ?`, id.String())

	group, err := scanGroup(row)
	if err := db.HandleQueryError(db.DriverSQLite, err, ErrGroupNotFound, opFindGroupByID, start); err != nil {
		return domain.Group{}, err
	}
	return group, nil
}

func (r *SQLiteRepository) AddMember(ctx context.Context, membership domain.Membership) error {
	start := time.Now()
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO user_groups (user_id, group_id) VALUES (?, ?)`,
		membership.UserID.String(),
		membership.GroupID.String(),
	)
	return db.HandleExecError(db.DriverSQLite, err, opInsertMembership, start, membershipViolations)
}

func (r *SQLiteRepository) ListGroupIDsByUser(ctx context.Context, userID userdomain.ID) ([]domain.ID, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, `SELECT group_id FROM user_groups WHERE user_id = ?`, userID.String())
	if err != nil {
		return nil, db.HandleQueryError(db.DriverSQLite, err, nil, opListMembershipByUser, start)
	}
	defer rows.Close()

	ids, err := collectIDs[domain.Kind](rows)
	if err := db.HandleQueryError(db.DriverSQLite, err, nil, opListMembershipByUser, start); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SQLiteRepository) ListUserIDsByGroup(ctx context.Context, groupID domain.ID) ([]userdomain.ID, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM user_groups WHERE group_id = ?`, groupID.String())
	if err != nil {
		return nil, db.HandleQueryError(db.DriverSQLite, err, nil, opListMembershipByGroup, start)
	}
	defer rows.Close()

	ids, err := collectIDs[userdomain.Kind](rows)
	if err := db.HandleQueryError(db.DriverSQLite, err, nil, opListMembershipByGroup, start); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SQLiteRepository) CountOrphans(ctx context.Context) (int64, error) {
	start := time.Now()
	var count int64
	err := r.db.QueryRowContext(ctx, countOrphansQuery).Scan(&count)
	if err := db.HandleQueryError(db.DriverSQLite, err, nil, opCountOrphanGroups, start); err != nil {
		return 0, err
	}
	return count, nil
}
