package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AlibekovAA/postgraph/internal/common/db"
	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
	"github.com/AlibekovAA/postgraph/internal/user/domain"
)

var (
	ErrUserNotFound   = commonerrors.ErrUserNotFound
	ErrDuplicateEmail = commonerrors.ErrDuplicateEmail
	ErrUserHasPosts   = commonerrors.ErrUserHasPosts
)

const emailUniqueConstraint = "users_email_key"

type Repository interface {
	Create(ctx context.Context, user domain.NewUser) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id domain.ID) error
}

type PgRepository struct {
	q      db.Querier
	runner *db.Runner
}

func NewPgRepository(q db.Querier, runner *db.Runner) *PgRepository {
	return &PgRepository{q: q, runner: runner}
}

const userColumns = `id, name, email, password_hash, created_at`

func (r *PgRepository) Create(ctx context.Context, user domain.NewUser) (domain.User, error) {
	var created domain.User
	err := r.runner.Write(ctx, "create user", func(ctx context.Context) error {
		start := time.Now()
		row := r.q.QueryRow(
			ctx,
			`INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3)
			 RETURNING `+userColumns,
			user.Name,
			user.Email,
			user.PasswordHash,
		)
		err := row.Scan(&created.ID, &created.Name, &created.Email, &created.PasswordHash, &created.CreatedAt)
		if err != nil {
			if mapped := mapConstraintError(err); mapped != nil {
				db.MeasureQueryDuration("create user", start)
				return mapped
			}
		}
		return db.HandleExecError(err, "create user", start)
	})
	if err != nil {
		return domain.User{}, err
	}
	return created, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	return r.findOne(ctx, "find user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, int64(id))
}

func (r *PgRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, "find user by email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PgRepository) findOne(ctx context.Context, operation, query string, arg any) (domain.User, error) {
	var user domain.User
	err := r.runner.Read(ctx, operation, func(ctx context.Context) error {
		start := time.Now()
		err := r.q.QueryRow(ctx, query, arg).
			Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
		return db.HandleQueryError(err, ErrUserNotFound, operation, start)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.runner.Read(ctx, "find users", func(ctx context.Context) error {
		start := time.Now()
		users = users[:0]

		rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
		if err != nil {
			return db.HandleQueryError(err, nil, "find users", start)
		}
		defer rows.Close()

		for rows.Next() {
			var u domain.User
			if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
				return db.HandleQueryError(err, nil, "scan users", start)
			}
			users = append(users, u)
		}
		return db.HandleQueryError(rows.Err(), nil, "find users", start)
	})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (r *PgRepository) Delete(ctx context.Context, id domain.ID) error {
	return r.runner.Write(ctx, "delete user", func(ctx context.Context) error {
		start := time.Now()
		tag, err := r.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, int64(id))
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				db.MeasureQueryDuration("delete user", start)
				return ErrUserHasPosts.WithCause(err)
			}
			return db.HandleExecError(err, "delete user", start)
		}
		db.MeasureQueryDuration("delete user", start)
		if tag.RowsAffected() == 0 {
			return commonerrors.ErrNotFound
		}
		return nil
	})
}

func mapConstraintError(err error) error {
	code, constraint, ok := db.ConstraintViolation(err)
	if !ok {
		return nil
	}
	if code == db.SQLStateUniqueViolation && (constraint == emailUniqueConstraint || constraint == "") {
		return ErrDuplicateEmail.WithCause(err)
	}
	return commonerrors.ErrConstraintViolation.WithCause(err)
}

// IsNotFound is true for the absence sentinel only, not for delete misses.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}
