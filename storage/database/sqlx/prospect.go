package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/prospect"
)

const prospectTable = "prospect"

type prospectRow struct {
	ID              string      `db:"id"`
	Email           string      `db:"email"`
	Source          null.String `db:"source"`
	Converted       bool        `db:"converted"`
	ConvertedUserID null.String `db:"converted_user_id"`
	ConvertedAt     null.Time   `db:"converted_at"`
	CreatedAt       null.Time   `db:"created_at"`
}

var prospectColumns = []string{"id", "email", "source", "converted", "converted_user_id", "converted_at", "created_at"}

type prospectRepository struct {
	db *sqlx.DB
}

var _ prospect.Repository = (*prospectRepository)(nil) // interface compliance check

func NewProspectRepository(db *sqlx.DB) *prospectRepository {
	return &prospectRepository{db: db}
}

func (repo prospectRepository) pack(p prospect.Prospect) prospectRow {
	row := prospectRow{
		ID:              p.ID,
		Email:           p.Email,
		Source:          null.NewString(p.Source, p.Source != ""),
		Converted:       p.Converted,
		ConvertedUserID: null.StringFromPtr(p.ConvertedUserID),
		CreatedAt:       null.NewTime(p.CreatedAt.UTC(), !p.CreatedAt.IsZero()),
	}
	if p.ConvertedAt != nil {
		row.ConvertedAt = null.TimeFrom(p.ConvertedAt.UTC())
	}
	return row
}

func (repo prospectRepository) unpack(row prospectRow) prospect.Prospect {
	return prospect.Prospect{
		ID:              row.ID,
		Email:           row.Email,
		Source:          row.Source.String,
		Converted:       row.Converted,
		ConvertedUserID: row.ConvertedUserID.Ptr(),
		ConvertedAt:     row.ConvertedAt.Ptr(),
		CreatedAt:       row.CreatedAt.Time,
	}
}

func (repo prospectRepository) CreateProspect(ctx context.Context, p prospect.Prospect) (prospect.Prospect, error) {
	// capturing a known email returns the existing record
	existing, err := repo.GetProspectByEmail(ctx, p.Email)
	if err == nil {
		return existing, nil
	}
	if err != prospect.ErrNotFound {
		return prospect.Prospect{}, err
	}

	p.ID = uuid.New().String()
	row := repo.pack(p)

	query, args, err := psql.Insert(prospectTable).
		Columns(prospectColumns...).
		Values(row.ID, row.Email, row.Source, row.Converted, row.ConvertedUserID, row.ConvertedAt, row.CreatedAt).
		ToSql()
	if err != nil {
		return prospect.Prospect{}, errors.Wrap(err, "building prospect insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return prospect.Prospect{}, errors.Wrap(err, "inserting prospect")
	}
	return p, nil
}

func (repo prospectRepository) QueryProspects(ctx context.Context, filter *prospect.QueryFilter) ([]prospect.Prospect, error) {
	q := psql.Select(prospectColumns...).From(prospectTable)

	if filter != nil {
		if filter.Search != "" {
			q = q.Where(sq.ILike{"email": "%" + filter.Search + "%"})
		}
		if filter.Source != "" {
			q = q.Where(sq.Eq{"source": filter.Source})
		}
		if filter.Converted != nil {
			q = q.Where(sq.Eq{"converted": *filter.Converted})
		}
	}

	query, args, err := q.OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building prospects query")
	}
	var rows []prospectRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying prospects")
	}

	prospects := make([]prospect.Prospect, 0, len(rows))
	for _, row := range rows {
		prospects = append(prospects, repo.unpack(row))
	}
	return prospects, nil
}

func (repo prospectRepository) GetProspectByEmail(ctx context.Context, email string) (prospect.Prospect, error) {
	query, args, err := psql.Select(prospectColumns...).
		From(prospectTable).
		Where(sq.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return prospect.Prospect{}, errors.Wrap(err, "building prospect query")
	}
	var row prospectRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return prospect.Prospect{}, trapNoRowsErr(err, prospect.ErrNotFound, "finding prospect")
	}
	return repo.unpack(row), nil
}

func (repo prospectRepository) UpdateProspect(ctx context.Context, p prospect.Prospect) (prospect.Prospect, error) {
	row := repo.pack(p)

	query, args, err := psql.Update(prospectTable).
		Set("source", row.Source).
		Set("converted", row.Converted).
		Set("converted_user_id", row.ConvertedUserID).
		Set("converted_at", row.ConvertedAt).
		Where(sq.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return prospect.Prospect{}, errors.Wrap(err, "building prospect update")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return prospect.Prospect{}, errors.Wrap(err, "updating prospect")
	}
	return p, nil
}
