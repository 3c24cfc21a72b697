package sqlxrepos

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
)

const (
	moduleTable = "module"
	dayTable    = "day"
)

type moduleRow struct {
	ID                   string      `db:"id"`
	Slug                 string      `db:"slug"`
	Name                 string      `db:"name"`
	Description          null.String `db:"description"`
	IsPaid               bool        `db:"is_paid"`
	IsPublished          bool        `db:"is_published"`
	Position             int         `db:"position"`
	BetaDayLimit         int         `db:"beta_day_limit"`
	PrerequisiteModuleID null.String `db:"prerequisite_module_id"`
	PrerequisiteMinScore int         `db:"prerequisite_min_score"`
	CreatedAt            null.Time   `db:"created_at"`
	UpdatedAt            null.Time   `db:"updated_at"`
}

type dayRow struct {
	ID        string      `db:"id"`
	ModuleID  string      `db:"module_id"`
	Number    int         `db:"number"`
	Title     string      `db:"title"`
	Summary   null.String `db:"summary"`
	Content   null.String `db:"content"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

var (
	moduleColumns = []string{
		"id", "slug", "name", "description", "is_paid", "is_published", "position",
		"beta_day_limit", "prerequisite_module_id", "prerequisite_min_score", "created_at", "updated_at",
	}
	dayColumns = []string{"id", "module_id", "number", "title", "summary", "content", "created_at", "updated_at"}
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) pack(mod course.Module) moduleRow {
	return moduleRow{
		ID:                   mod.ID,
		Slug:                 mod.Slug,
		Name:                 mod.Name,
		Description:          null.NewString(mod.Description, mod.Description != ""),
		IsPaid:               mod.IsPaid,
		IsPublished:          mod.IsPublished,
		Position:             mod.Position,
		BetaDayLimit:         mod.BetaDayLimit,
		PrerequisiteModuleID: null.StringFromPtr(mod.PrerequisiteModuleID),
		PrerequisiteMinScore: mod.PrerequisiteMinScore,
		CreatedAt:            null.NewTime(mod.CreatedAt.UTC(), !mod.CreatedAt.IsZero()),
		UpdatedAt:            null.NewTime(mod.UpdatedAt.UTC(), !mod.UpdatedAt.IsZero()),
	}
}

func (repo courseRepository) unpack(row moduleRow) course.Module {
	return course.Module{
		ID:                   row.ID,
		Slug:                 row.Slug,
		Name:                 row.Name,
		Description:          row.Description.String,
		IsPaid:               row.IsPaid,
		IsPublished:          row.IsPublished,
		Position:             row.Position,
		BetaDayLimit:         row.BetaDayLimit,
		PrerequisiteModuleID: row.PrerequisiteModuleID.Ptr(),
		PrerequisiteMinScore: row.PrerequisiteMinScore,
		CreatedAt:            row.CreatedAt.Time,
		UpdatedAt:            row.UpdatedAt.Time,
	}
}

func (repo courseRepository) packDay(day course.Day) dayRow {
	return dayRow{
		ID:        day.ID,
		ModuleID:  day.ModuleID,
		Number:    day.Number,
		Title:     day.Title,
		Summary:   null.NewString(day.Summary, day.Summary != ""),
		Content:   null.NewString(day.Content, day.Content != ""),
		CreatedAt: null.NewTime(day.CreatedAt.UTC(), !day.CreatedAt.IsZero()),
		UpdatedAt: null.NewTime(day.UpdatedAt.UTC(), !day.UpdatedAt.IsZero()),
	}
}

func (repo courseRepository) unpackDay(row dayRow) course.Day {
	return course.Day{
		ID:        row.ID,
		ModuleID:  row.ModuleID,
		Number:    row.Number,
		Title:     row.Title,
		Summary:   row.Summary.String,
		Content:   row.Content.String,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func (repo courseRepository) CheckSlugUniqueness(ctx context.Context, slug string, excludedModules ...course.Module) error {
	q := psql.Select("COUNT(*)").From(moduleTable).Where(sq.Eq{"slug": slug})
	if len(excludedModules) > 0 {
		ids := make([]string, 0, len(excludedModules))
		for _, m := range excludedModules {
			ids = append(ids, m.ID)
		}
		q = q.Where(sq.NotEq{"id": ids})
	}

	query, args, err := q.Limit(1).ToSql()
	if err != nil {
		return errors.Wrap(err, "building slug uniqueness query")
	}
	var cnt int
	if err = repo.db.GetContext(ctx, &cnt, query, args...); err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if cnt > 0 {
		return course.ErrSlugExists
	}
	return nil
}

func (repo courseRepository) CreateModule(ctx context.Context, mod course.Module) (course.Module, error) {
	mod.ID = uuid.New().String()
	row := repo.pack(mod)

	query, args, err := psql.Insert(moduleTable).
		Columns(moduleColumns...).
		Values(
			row.ID, row.Slug, row.Name, row.Description, row.IsPaid, row.IsPublished, row.Position,
			row.BetaDayLimit, row.PrerequisiteModuleID, row.PrerequisiteMinScore, row.CreatedAt, row.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return course.Module{}, errors.Wrap(err, "building module insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return course.Module{}, errors.Wrap(err, "inserting module")
	}
	return mod, nil
}

func (repo courseRepository) QueryModules(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Module, error) {
	q := psql.Select(moduleColumns...).From(moduleTable)

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where(sq.Or{
				sq.ILike{"slug": val},
				sq.ILike{"name": val},
				sq.ILike{"description": val},
			})
		}
		if filter.IsPaid != nil {
			q = q.Where(sq.Eq{"is_paid": *filter.IsPaid})
		}
		if filter.IsPublished != nil {
			q = q.Where(sq.Eq{"is_published": *filter.IsPublished})
		}
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q = q.OrderBy(strings.Join(orderList, ", "))
	} else {
		q = q.OrderBy("position ASC")
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building modules query")
	}
	var rows []moduleRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}

	modules := make([]course.Module, 0, len(rows))
	for _, row := range rows {
		modules = append(modules, repo.unpack(row))
	}
	return modules, nil
}

func (repo courseRepository) GetModule(ctx context.Context, filter course.GetFilter) (course.Module, error) {
	var pred interface{}

	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return course.Module{}, course.ErrNotFound
		}
		pred = sq.Eq{"id": filter.ID}
	case filter.Slug != "":
		pred = sq.Eq{"slug": filter.Slug}
	default:
		return course.Module{}, course.ErrNotFound
	}

	query, args, err := psql.Select(moduleColumns...).From(moduleTable).Where(pred).Limit(1).ToSql()
	if err != nil {
		return course.Module{}, errors.Wrap(err, "building module query")
	}
	var row moduleRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return course.Module{}, trapNoRowsErr(err, course.ErrNotFound, "finding module")
	}
	return repo.unpack(row), nil
}

func (repo courseRepository) UpdateModule(ctx context.Context, mod course.Module) (course.Module, error) {
	row := repo.pack(mod)

	query, args, err := psql.Update(moduleTable).
		Set("slug", row.Slug).
		Set("name", row.Name).
		Set("description", row.Description).
		Set("is_paid", row.IsPaid).
		Set("is_published", row.IsPublished).
		Set("position", row.Position).
		Set("beta_day_limit", row.BetaDayLimit).
		Set("prerequisite_module_id", row.PrerequisiteModuleID).
		Set("prerequisite_min_score", row.PrerequisiteMinScore).
		Set("updated_at", row.UpdatedAt).
		Where(sq.Eq{"id": mod.ID}).
		ToSql()
	if err != nil {
		return course.Module{}, errors.Wrap(err, "building module update")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return course.Module{}, errors.Wrap(err, "updating module")
	}
	return mod, nil
}

func (repo courseRepository) DeleteModulesByID(ctx context.Context, ids []string) (int, error) {
	query, args, err := psql.Delete(moduleTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building modules delete")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting modules")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting modules")
	}
	return int(cnt), nil
}

func (repo courseRepository) CreateDay(ctx context.Context, day course.Day) (course.Day, error) {
	day.ID = uuid.New().String()
	row := repo.packDay(day)

	query, args, err := psql.Insert(dayTable).
		Columns(dayColumns...).
		Values(row.ID, row.ModuleID, row.Number, row.Title, row.Summary, row.Content, row.CreatedAt, row.UpdatedAt).
		ToSql()
	if err != nil {
		return course.Day{}, errors.Wrap(err, "building day insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return course.Day{}, errors.Wrap(err, "inserting day")
	}
	return day, nil
}

func (repo courseRepository) QueryDays(ctx context.Context, moduleID string) ([]course.Day, error) {
	query, args, err := psql.Select(dayColumns...).
		From(dayTable).
		Where(sq.Eq{"module_id": moduleID}).
		OrderBy("number ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building days query")
	}
	var rows []dayRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying days")
	}

	days := make([]course.Day, 0, len(rows))
	for _, row := range rows {
		days = append(days, repo.unpackDay(row))
	}
	return days, nil
}

func (repo courseRepository) GetDay(ctx context.Context, id string) (course.Day, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Day{}, course.ErrDayNotFound
	}

	query, args, err := psql.Select(dayColumns...).From(dayTable).Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return course.Day{}, errors.Wrap(err, "building day query")
	}
	var row dayRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return course.Day{}, trapNoRowsErr(err, course.ErrDayNotFound, "finding day")
	}
	return repo.unpackDay(row), nil
}

func (repo courseRepository) UpdateDay(ctx context.Context, day course.Day) (course.Day, error) {
	row := repo.packDay(day)

	query, args, err := psql.Update(dayTable).
		Set("number", row.Number).
		Set("title", row.Title).
		Set("summary", row.Summary).
		Set("content", row.Content).
		Set("updated_at", row.UpdatedAt).
		Where(sq.Eq{"id": day.ID}).
		ToSql()
	if err != nil {
		return course.Day{}, errors.Wrap(err, "building day update")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return course.Day{}, errors.Wrap(err, "updating day")
	}
	return day, nil
}

func (repo courseRepository) DeleteDay(ctx context.Context, id string) error {
	query, args, err := psql.Delete(dayTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building day delete")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "deleting day")
	}
	return nil
}
