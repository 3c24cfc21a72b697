package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/beta"
)

const betaApplicationTable = "beta_application"

type betaApplicationRow struct {
	ID         string      `db:"id"`
	UserID     string      `db:"user_id"`
	Email      null.String `db:"email"`
	Motivation string      `db:"motivation"`
	Status     string      `db:"status"`
	DecidedBy  null.String `db:"decided_by"`
	DecidedAt  null.Time   `db:"decided_at"`
	CreatedAt  null.Time   `db:"created_at"`
}

var betaApplicationColumns = []string{"id", "user_id", "email", "motivation", "status", "decided_by", "decided_at", "created_at"}

type betaRepository struct {
	db *sqlx.DB
}

var _ beta.Repository = (*betaRepository)(nil) // interface compliance check

func NewBetaRepository(db *sqlx.DB) *betaRepository {
	return &betaRepository{db: db}
}

func (repo betaRepository) pack(app beta.Application) betaApplicationRow {
	row := betaApplicationRow{
		ID:         app.ID,
		UserID:     app.UserID,
		Email:      null.NewString(app.Email, app.Email != ""),
		Motivation: app.Motivation,
		Status:     app.Status,
		DecidedBy:  null.StringFromPtr(app.DecidedBy),
		CreatedAt:  null.NewTime(app.CreatedAt.UTC(), !app.CreatedAt.IsZero()),
	}
	if app.DecidedAt != nil {
		row.DecidedAt = null.TimeFrom(app.DecidedAt.UTC())
	}
	return row
}

func (repo betaRepository) unpack(row betaApplicationRow) beta.Application {
	return beta.Application{
		ID:         row.ID,
		UserID:     row.UserID,
		Email:      row.Email.String,
		Motivation: row.Motivation,
		Status:     row.Status,
		DecidedBy:  row.DecidedBy.Ptr(),
		DecidedAt:  row.DecidedAt.Ptr(),
		CreatedAt:  row.CreatedAt.Time,
	}
}

func (repo betaRepository) CreateApplication(ctx context.Context, app beta.Application) (beta.Application, error) {
	app.ID = uuid.New().String()
	row := repo.pack(app)

	query, args, err := psql.Insert(betaApplicationTable).
		Columns(betaApplicationColumns...).
		Values(row.ID, row.UserID, row.Email, row.Motivation, row.Status, row.DecidedBy, row.DecidedAt, row.CreatedAt).
		ToSql()
	if err != nil {
		return beta.Application{}, errors.Wrap(err, "building application insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return beta.Application{}, errors.Wrap(err, "inserting application")
	}
	return app, nil
}

func (repo betaRepository) QueryApplications(ctx context.Context, filter *beta.QueryFilter) ([]beta.Application, error) {
	q := psql.Select(betaApplicationColumns...).From(betaApplicationTable)

	if filter != nil {
		if filter.Status != "" {
			q = q.Where(sq.Eq{"status": filter.Status})
		}
		if filter.UserID != "" {
			q = q.Where(sq.Eq{"user_id": filter.UserID})
		}
	}

	query, args, err := q.OrderBy("created_at ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building applications query")
	}
	var rows []betaApplicationRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying applications")
	}

	apps := make([]beta.Application, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, repo.unpack(row))
	}
	return apps, nil
}

func (repo betaRepository) GetApplication(ctx context.Context, id string) (beta.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return beta.Application{}, beta.ErrNotFound
	}

	query, args, err := psql.Select(betaApplicationColumns...).
		From(betaApplicationTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return beta.Application{}, errors.Wrap(err, "building application query")
	}
	var row betaApplicationRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return beta.Application{}, trapNoRowsErr(err, beta.ErrNotFound, "finding application")
	}
	return repo.unpack(row), nil
}

func (repo betaRepository) UpdateApplication(ctx context.Context, app beta.Application) (beta.Application, error) {
	row := repo.pack(app)

	query, args, err := psql.Update(betaApplicationTable).
		Set("status", row.Status).
		Set("decided_by", row.DecidedBy).
		Set("decided_at", row.DecidedAt).
		Where(sq.Eq{"id": app.ID}).
		ToSql()
	if err != nil {
		return beta.Application{}, errors.Wrap(err, "building application update")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return beta.Application{}, errors.Wrap(err, "updating application")
	}
	return app, nil
}
