package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"

	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
	"github.com/AlibekovAA/postgraph/internal/testutil/pgtest"
	"github.com/AlibekovAA/postgraph/internal/user/domain"
)

var createdAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func userRow(id int64, name, email string, hash *string) pgtest.Row {
	var h any
	if hash != nil {
		h = *hash
	}
	return pgtest.Row{Values: []any{id, name, email, h, createdAt}}
}

func TestPgRepository_Create(t *testing.T) {
	hash := "$2a$12$hash"
	q := &pgtest.Querier{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			if !strings.Contains(sql, "INSERT INTO users") {
				t.Fatalf("unexpected sql: %s", sql)
			}
			return userRow(7, "Alice", "a@x.io", &hash)
		},
	}
	repo := NewPgRepository(q, nil)

	user, err := repo.Create(context.Background(), domain.NewUser{Name: "Alice", Email: "a@x.io", PasswordHash: &hash})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 7 || user.Email != "a@x.io" || user.PasswordHash == nil || *user.PasswordHash != hash {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestPgRepository_Create_DuplicateEmail(t *testing.T) {
	q := &pgtest.Querier{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return pgtest.Row{Err: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}}
		},
	}
	repo := NewPgRepository(q, nil)

	_, err := repo.Create(context.Background(), domain.NewUser{Name: "Alice", Email: "a@x.io"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email, got %v", err)
	}
}

func TestPgRepository_Create_OtherConstraint(t *testing.T) {
	q := &pgtest.Querier{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return pgtest.Row{Err: &pgconn.PgError{Code: "23502", ConstraintName: "users_name_not_null"}}
		},
	}
	repo := NewPgRepository(q, nil)

	_, err := repo.Create(context.Background(), domain.NewUser{Email: "a@x.io"})
	if !errors.Is(err, commonerrors.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
}

func TestPgRepository_FindByEmail_NotFound(t *testing.T) {
	repo := NewPgRepository(&pgtest.Querier{}, nil)

	_, err := repo.FindByEmail(context.Background(), "nobody@x.io")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
	if !IsNotFound(err) {
		t.Fatal("expected IsNotFound")
	}
}

func TestPgRepository_FindByID_PasswordlessUser(t *testing.T) {
	q := &pgtest.Querier{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			if args[0] != int64(3) {
				t.Fatalf("unexpected args: %v", args)
			}
			return userRow(3, "Bob", "b@x.io", nil)
		},
	}
	repo := NewPgRepository(q, nil)

	user, err := repo.FindByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.PasswordHash != nil || user.HasPassword() {
		t.Fatal("expected user without password")
	}
}

func TestPgRepository_FindAll_OrderedAndEmpty(t *testing.T) {
	q := &pgtest.Querier{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			if !strings.Contains(sql, "ORDER BY id") {
				t.Fatalf("expected ordering by id: %s", sql)
			}
			return &pgtest.Rows{Data: [][]any{
				{int64(1), "A", "a@x.io", nil, createdAt},
				{int64(2), "B", "b@x.io", nil, createdAt},
			}}, nil
		},
	}
	repo := NewPgRepository(q, nil)

	users, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[0].ID != 1 || users[1].ID != 2 {
		t.Fatalf("unexpected users: %+v", users)
	}

	empty, err := NewPgRepository(&pgtest.Querier{}, nil).FindAll(context.Background())
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v (%v)", empty, err)
	}
}

func TestPgRepository_Delete(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		err     error
		wantErr error
	}{
		{name: "deleted", tag: "DELETE 1"},
		{name: "missing", tag: "DELETE 0", wantErr: commonerrors.ErrNotFound},
		{
			name:    "has posts",
			err:     &pgconn.PgError{Code: "23503", ConstraintName: "posts_author_id_fkey"},
			wantErr: ErrUserHasPosts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &pgtest.Querier{
				ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
					return pgconn.CommandTag(tt.tag), tt.err
				},
			}
			err := NewPgRepository(q, nil).Delete(context.Background(), 1)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
