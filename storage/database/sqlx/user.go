package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edusign/screener/core"
	"github.com/edusign/screener/core/user"
)

type userRow struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	Username        string    `db:"username"`
	Email           string    `db:"email"`
	Role            string    `db:"role"`
	IsActive        bool      `db:"is_active"`
	CompletedIntake bool      `db:"completed_intake"`
	PasswordHash    []byte    `db:"password_hash"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
	LastLogin       null.Time `db:"last_login"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:              r.ID,
		Name:            r.Name,
		Username:        r.Username,
		Email:           r.Email,
		Role:            r.Role,
		CompletedIntake: r.CompletedIntake,
		PasswordHash:    r.PasswordHash,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		LastLogin:       r.LastLogin.Time,
	}
	usr.SetActive(r.IsActive)
	return usr
}

func toUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}

	q := `SELECT username, email FROM "user" WHERE (username = $1 OR email = $2) AND id != ALL($3)`
	rows := make([]struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}, 0, 2)
	if err := repo.db.SelectContext(ctx, &rows, q, username, email, pq.Array(exclIDs)); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}

	for _, r := range rows {
		if username != "" && r.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && r.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `
	INSERT INTO "user" (name, username, email, role, is_active, password_hash, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`
	err := repo.db.QueryRowxContext(
		ctx, q,
		usr.Name, usr.Username, usr.Email, usr.Role, usr.Active(), usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		if isPqError(err, pqUniqueViolation) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := `SELECT * FROM "user" WHERE `
	var arg interface{}
	switch {
	case filter.ID != "":
		q += "id = $1"
		arg = filter.ID
	case filter.Username != "":
		q += "username = $1"
		arg = filter.Username
	case filter.Email != "":
		q += "email = $1"
		arg = filter.Email
	case len(filter.UsernameOrEmail) > 0:
		q += "username = ANY($1) OR email = ANY($1)"
		arg = pq.Array(filter.UsernameOrEmail)
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound)
	}
	return row.toUser(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := `SELECT * FROM "user"`
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			clauses = append(clauses, fmt.Sprintf("(name ILIKE %[1]s OR username ILIKE %[1]s OR email ILIKE %[1]s)", p))
		}
		if filter.Role != "" {
			clauses = append(clauses, "role = "+arg(filter.Role))
		}
		if filter.IsActive != nil {
			clauses = append(clauses, "is_active = "+arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			clauses = append(clauses, "created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			clauses = append(clauses, "created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += orderBy(ordering, "created_at DESC")

	rows := make([]userRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return toUsers(rows), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	// only set fields override; COALESCE/NULLIF keep the rest untouched
	q := `
	UPDATE "user" SET
		name = COALESCE(NULLIF($2, ''), name),
		username = COALESCE(NULLIF($3, ''), username),
		email = COALESCE(NULLIF($4, ''), email),
		role = COALESCE(NULLIF($5, ''), role),
		is_active = COALESCE($6, is_active),
		password_hash = COALESCE($7, password_hash),
		last_login = COALESCE($8, last_login),
		updated_at = COALESCE($9, updated_at)
	WHERE id = $1
	RETURNING *`

	var lastLogin null.Time
	if !usr.LastLogin.IsZero() {
		lastLogin = null.TimeFrom(usr.LastLogin)
	}
	var updatedAt null.Time
	if !usr.UpdatedAt.IsZero() {
		updatedAt = null.TimeFrom(usr.UpdatedAt)
	}

	var row userRow
	err := repo.db.GetContext(
		ctx, &row, q,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.Role, null.BoolFromPtr(isActive), usr.PasswordHash, lastLogin, updatedAt,
	)
	if err != nil {
		if isPqError(err, pqUniqueViolation) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound)
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	updated, err := repo.UpdateUser(ctx, usr, usr.IsActive)
	if errors.Cause(err) == user.ErrNotFound {
		return repo.CreateUser(ctx, usr)
	}
	return updated, err
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting users")
}
