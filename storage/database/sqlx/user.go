package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

const userTable = `"user"`

// psql builds queries with $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type userRow struct {
	ID            string         `db:"id"`
	Name          null.String    `db:"name"`
	Username      null.String    `db:"username"`
	Email         null.String    `db:"email"`
	IsActive      null.Bool      `db:"is_active"`
	Roles         pq.StringArray `db:"roles"`
	GithubID      null.Int64     `db:"github_id"`
	GithubLogin   null.String    `db:"github_login"`
	PaymentStatus null.String    `db:"payment_status"`
	PasswordHash  null.Bytes     `db:"password_hash"`
	CreatedAt     null.Time      `db:"created_at"`
	UpdatedAt     null.Time      `db:"updated_at"`
	LastLogin     null.Time      `db:"last_login"`
}

var userColumns = []string{
	"id", "name", "username", "email", "is_active", "roles", "github_id",
	"github_login", "payment_status", "password_hash", "created_at", "updated_at", "last_login",
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) pack(usr user.User) userRow {
	return userRow{
		ID:            usr.ID,
		Name:          null.NewString(usr.Name, usr.Name != ""),
		Username:      null.NewString(usr.Username, usr.Username != ""),
		Email:         null.NewString(usr.Email, usr.Email != ""),
		IsActive:      null.BoolFromPtr(usr.IsActive),
		Roles:         usr.Roles,
		GithubID:      null.NewInt64(usr.GitHubID, usr.GitHubID != 0),
		GithubLogin:   null.NewString(usr.GitHubLogin, usr.GitHubLogin != ""),
		PaymentStatus: null.NewString(usr.PaymentStatus, usr.PaymentStatus != ""),
		PasswordHash:  null.BytesFrom(usr.PasswordHash),
		CreatedAt:     null.NewTime(usr.CreatedAt.UTC(), !usr.CreatedAt.IsZero()),
		UpdatedAt:     null.NewTime(usr.UpdatedAt.UTC(), !usr.UpdatedAt.IsZero()),
		LastLogin:     null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) unpack(row userRow) user.User {
	return user.User{
		ID:            row.ID,
		Name:          row.Name.String,
		Username:      row.Username.String,
		Email:         row.Email.String,
		IsActive:      row.IsActive.Ptr(),
		Roles:         row.Roles,
		GitHubID:      row.GithubID.Int64,
		GitHubLogin:   row.GithubLogin.String,
		PaymentStatus: row.PaymentStatus.String,
		PasswordHash:  row.PasswordHash.Bytes,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
		LastLogin:     row.LastLogin.Time,
	}
}

func (repo userRepository) unpackSlice(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unpack(row))
	}
	return users
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) exists(ctx context.Context, pred interface{}, excludedUsers []user.User) (bool, error) {
	q := psql.Select("COUNT(*)").From(userTable).Where(pred)
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q = q.Where(sq.NotEq{"id": ids})
	}

	query, args, err := q.Limit(1).ToSql()
	if err != nil {
		return false, err
	}
	var cnt int
	if err = repo.db.GetContext(ctx, &cnt, query, args...); err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	if username != "" {
		taken, err := repo.exists(ctx, sq.Eq{"username": username}, excludedUsers)
		if err != nil {
			return errors.Wrap(err, "checking username uniqueness")
		}
		if taken {
			return user.ErrUsernameExists
		}
	}
	if email != "" {
		taken, err := repo.exists(ctx, sq.Eq{"email": email}, excludedUsers)
		if err != nil {
			return errors.Wrap(err, "checking email uniqueness")
		}
		if taken {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := repo.pack(usr)

	query, args, err := psql.Insert(userTable).
		Columns(userColumns...).
		Values(
			row.ID, row.Name, row.Username, row.Email, row.IsActive, row.Roles, row.GithubID,
			row.GithubLogin, row.PaymentStatus, row.PasswordHash, row.CreatedAt, row.UpdatedAt, row.LastLogin,
		).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building user insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := psql.Select(userColumns...).From(userTable)

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where(sq.Or{
				sq.ILike{"name": val},
				sq.ILike{"username": val},
				sq.ILike{"email": val},
			})
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roleOr := make(sq.Or, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				roleOr = append(roleOr, sq.Expr(
					`id IN (SELECT id FROM `+userTable+`, UNNEST(roles) user_role WHERE user_role ILIKE ?)`,
					role+"%"))
			}
			q = q.Where(roleOr)
		}
		if filter.IsActive != nil {
			q = q.Where(sq.Eq{"is_active": *filter.IsActive})
		}
		if !filter.CreatedFrom.IsZero() {
			q = q.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
		}
		if !filter.CreatedTo.IsZero() {
			q = q.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
		}
	}

	if ordering != nil {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q = q.OrderBy(strings.Join(orderList, ", "))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building users query")
	}
	var rows []userRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.unpackSlice(rows), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var pred interface{}

	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		pred = sq.Eq{"id": filter.ID}
	case filter.Username != "":
		pred = sq.Eq{"username": filter.Username}
	case filter.Email != "":
		pred = sq.Eq{"email": filter.Email}
	case filter.GitHubID != 0:
		pred = sq.Eq{"github_id": filter.GitHubID}
	case filter.UsernameOrEmail != nil:
		var email string
		uname := filter.UsernameOrEmail[0]
		if len(filter.UsernameOrEmail) == 2 {
			email = filter.UsernameOrEmail[1]
		}
		if email == "" {
			email = uname
		} else if uname == "" {
			uname = email
		}
		if email == "" || uname == "" {
			return user.User{}, user.ErrNotFound
		}
		pred = sq.Or{sq.Eq{"username": uname}, sq.Eq{"email": email}}
	default:
		return user.User{}, user.ErrNotFound
	}

	query, args, err := psql.Select(userColumns...).From(userTable).Where(pred).Limit(1).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building user query")
	}
	var row userRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return repo.unpack(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.pack(usr)

	query, args, err := psql.Update(userTable).
		Set("name", row.Name).
		Set("username", row.Username).
		Set("email", row.Email).
		Set("is_active", row.IsActive).
		Set("roles", row.Roles).
		Set("github_id", row.GithubID).
		Set("github_login", row.GithubLogin).
		Set("payment_status", row.PaymentStatus).
		Set("password_hash", row.PasswordHash).
		Set("updated_at", row.UpdatedAt).
		Set("last_login", row.LastLogin).
		Where(sq.Eq{"id": usr.ID}).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building user update")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	return repo.UpdateUser(ctx, usr)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string) (int, error) {
	query, args, err := psql.Delete(userTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building users delete")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(cnt), nil
}
