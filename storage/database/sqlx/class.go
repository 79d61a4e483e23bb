package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/school"
)

const classColumns = "id, tracking_id, name, teacher_id, created_at, updated_at"

type classRow struct {
	ID         string      `db:"id"`
	TrackingID string      `db:"tracking_id"`
	Name       string      `db:"name"`
	TeacherID  null.String `db:"teacher_id"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func toClassRow(c school.Class) classRow {
	return classRow{
		ID:         c.ID,
		TrackingID: c.TrackingID,
		Name:       c.Name,
		TeacherID:  null.StringFromPtr(c.TeacherID),
		CreatedAt:  c.CreatedAt.UTC(),
		UpdatedAt:  c.UpdatedAt.UTC(),
	}
}

func (r classRow) model() school.Class {
	return school.Class{
		ID:         r.ID,
		TrackingID: r.TrackingID,
		Name:       r.Name,
		TeacherID:  r.TeacherID.Ptr(),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

type classRepository struct {
	base
}

var _ school.ClassRepository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db core.DBExecutor) *classRepository {
	return &classRepository{base{exec: db}}
}

func (repo classRepository) CreateClass(ctx context.Context, c school.Class, exec ...core.DBExecutor) (school.Class, error) {
	q := "INSERT INTO class (" + classColumns + ") VALUES (:id, :tracking_id, :name, :teacher_id, :created_at, :updated_at)"
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toClassRow(c)); err != nil {
		return school.Class{}, translateErr(err, "inserting class")
	}
	return c, nil
}

func (repo classRepository) GetClass(ctx context.Context, id string, exec ...core.DBExecutor) (school.Class, error) {
	if !isID(id) {
		return school.Class{}, school.ErrClassNotFound
	}
	var row classRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, "SELECT "+classColumns+" FROM class WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return school.Class{}, school.ErrClassNotFound
		}
		return school.Class{}, errors.Wrap(err, "finding class")
	}
	return row.model(), nil
}

func (repo classRepository) QueryClasses(ctx context.Context, teacherID string, exec ...core.DBExecutor) ([]school.Class, error) {
	var rows []classRow
	var err error
	if teacherID == "" {
		err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, "SELECT "+classColumns+" FROM class ORDER BY name")
	} else if isID(teacherID) {
		q := "SELECT " + classColumns + " FROM class WHERE teacher_id = $1 ORDER BY name"
		err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, teacherID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}

	classes := make([]school.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.model())
	}
	return classes, nil
}

func (repo classRepository) UpdateClass(ctx context.Context, c school.Class, exec ...core.DBExecutor) (school.Class, error) {
	q := "UPDATE class SET name = :name, teacher_id = :teacher_id, updated_at = :updated_at WHERE id = :id"
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toClassRow(c))
	if err = affected(res, err, school.ErrClassNotFound, "updating class"); err != nil {
		return school.Class{}, err
	}
	return c, nil
}

func (repo classRepository) DeleteClass(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isID(id) {
		return school.ErrClassNotFound
	}
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM class WHERE id = $1", id)
	return affected(res, err, school.ErrClassNotFound, "deleting class")
}

func (repo classRepository) AssignTeacher(ctx context.Context, teacherID string, classIDs []string, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	if classIDs == nil {
		classIDs = []string{}
	}
	now := time.Now().UTC()

	q := "UPDATE class SET teacher_id = NULL, updated_at = $3 WHERE teacher_id = $1 AND NOT (id = ANY($2::uuid[]))"
	if _, err := exe.ExecContext(ctx, q, teacherID, pq.Array(classIDs), now); err != nil {
		return errors.Wrap(err, "unassigning classes")
	}
	if len(classIDs) == 0 {
		return nil
	}
	q = "UPDATE class SET teacher_id = $1, updated_at = $3 WHERE id = ANY($2::uuid[])"
	if _, err := exe.ExecContext(ctx, q, teacherID, pq.Array(classIDs), now); err != nil {
		return translateErr(err, "assigning classes")
	}
	return nil
}
