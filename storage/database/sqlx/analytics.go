package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/analytics"
)

const pageViewTable = "page_view"

type pageViewRow struct {
	ID        string      `db:"id"`
	Path      string      `db:"path"`
	Referrer  null.String `db:"referrer"`
	UserAgent null.String `db:"user_agent"`
	UserID    null.String `db:"user_id"`
	CreatedAt null.Time   `db:"created_at"`
}

var pageViewColumns = []string{"id", "path", "referrer", "user_agent", "user_id", "created_at"}

type analyticsRepository struct {
	db *sqlx.DB
}

var _ analytics.Repository = (*analyticsRepository)(nil) // interface compliance check

func NewAnalyticsRepository(db *sqlx.DB) *analyticsRepository {
	return &analyticsRepository{db: db}
}

func (repo analyticsRepository) CreatePageView(ctx context.Context, pv analytics.PageView) (analytics.PageView, error) {
	pv.ID = uuid.New().String()

	query, args, err := psql.Insert(pageViewTable).
		Columns(pageViewColumns...).
		Values(
			pv.ID, pv.Path,
			null.NewString(pv.Referrer, pv.Referrer != ""),
			null.NewString(pv.UserAgent, pv.UserAgent != ""),
			null.StringFromPtr(pv.UserID),
			null.TimeFrom(pv.CreatedAt.UTC()),
		).
		ToSql()
	if err != nil {
		return analytics.PageView{}, errors.Wrap(err, "building page view insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return analytics.PageView{}, errors.Wrap(err, "inserting page view")
	}
	return pv, nil
}

func (repo analyticsRepository) CountByPath(ctx context.Context, from, to time.Time) ([]analytics.PathCount, int, error) {
	q := psql.Select("path", "COUNT(*) AS count").From(pageViewTable)
	if !from.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": from})
	}
	if !to.IsZero() {
		q = q.Where(sq.LtOrEq{"created_at": to})
	}

	query, args, err := q.GroupBy("path").OrderBy("count DESC").ToSql()
	if err != nil {
		return nil, 0, errors.Wrap(err, "building page view counts query")
	}

	var rows []struct {
		Path  string `db:"path"`
		Count int    `db:"count"`
	}
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying page view counts")
	}

	var total int
	paths := make([]analytics.PathCount, 0, len(rows))
	for _, row := range rows {
		paths = append(paths, analytics.PathCount{Path: row.Path, Count: row.Count})
		total += row.Count
	}
	return paths, total, nil
}
