package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/school"
)

const termColumns = "id, tracking_id, name, academic_year, start_date, end_date, created_at, updated_at"

type termRow struct {
	ID           string    `db:"id"`
	TrackingID   string    `db:"tracking_id"`
	Name         string    `db:"name"`
	AcademicYear string    `db:"academic_year"`
	StartDate    time.Time `db:"start_date"`
	EndDate      time.Time `db:"end_date"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func toTermRow(t school.Term) termRow {
	return termRow{
		ID:           t.ID,
		TrackingID:   t.TrackingID,
		Name:         t.Name,
		AcademicYear: t.AcademicYear,
		StartDate:    t.StartDate.Time,
		EndDate:      t.EndDate.Time,
		CreatedAt:    t.CreatedAt.UTC(),
		UpdatedAt:    t.UpdatedAt.UTC(),
	}
}

func (r termRow) model() school.Term {
	return school.Term{
		ID:           r.ID,
		TrackingID:   r.TrackingID,
		Name:         r.Name,
		AcademicYear: r.AcademicYear,
		StartDate:    core.DateOf(r.StartDate),
		EndDate:      core.DateOf(r.EndDate),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

// orderBy renders an ORDER BY clause; fields are column names resolved by the services.
func orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}

type termRepository struct {
	base
}

var _ school.TermRepository = (*termRepository)(nil) // interface compliance check

func NewTermRepository(db core.DBExecutor) *termRepository {
	return &termRepository{base{exec: db}}
}

func (repo termRepository) CreateTerm(ctx context.Context, t school.Term, exec ...core.DBExecutor) (school.Term, error) {
	q := "INSERT INTO term (" + termColumns + ") " +
		"VALUES (:id, :tracking_id, :name, :academic_year, :start_date, :end_date, :created_at, :updated_at)"
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toTermRow(t)); err != nil {
		return school.Term{}, translateErr(err, "inserting term")
	}
	return t, nil
}

func (repo termRepository) GetTerm(ctx context.Context, id string, exec ...core.DBExecutor) (school.Term, error) {
	if !isID(id) {
		return school.Term{}, school.ErrTermNotFound
	}
	var row termRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, "SELECT "+termColumns+" FROM term WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return school.Term{}, school.ErrTermNotFound
		}
		return school.Term{}, errors.Wrap(err, "finding term")
	}
	return row.model(), nil
}

func (repo termRepository) QueryTerms(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]school.Term, error) {
	var rows []termRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, "SELECT "+termColumns+" FROM term"+orderBy(ordering)); err != nil {
		return nil, errors.Wrap(err, "querying terms")
	}
	terms := make([]school.Term, 0, len(rows))
	for _, r := range rows {
		terms = append(terms, r.model())
	}
	return terms, nil
}

func (repo termRepository) UpdateTerm(ctx context.Context, t school.Term, exec ...core.DBExecutor) (school.Term, error) {
	q := "UPDATE term SET name = :name, academic_year = :academic_year, start_date = :start_date, " +
		"end_date = :end_date, updated_at = :updated_at WHERE id = :id"
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toTermRow(t))
	if err = affected(res, err, school.ErrTermNotFound, "updating term"); err != nil {
		return school.Term{}, err
	}
	return t, nil
}

func (repo termRepository) DeleteTerm(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isID(id) {
		return school.ErrTermNotFound
	}
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM term WHERE id = $1", id)
	return affected(res, err, school.ErrTermNotFound, "deleting term")
}
