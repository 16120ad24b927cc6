package repository

import (
	"context"
	"fmt"
	"time"

	pgx "github.com/jackc/pgx/v4"

	"github.com/AlibekovAA/postgraph/internal/common/db"
	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
	"github.com/AlibekovAA/postgraph/internal/post/domain"
	userdomain "github.com/AlibekovAA/postgraph/internal/user/domain"
)

var (
	ErrPostNotFound   = commonerrors.ErrPostNotFound
	ErrAuthorNotFound = commonerrors.ErrAuthorNotFound
	ErrInvalidOrderBy = commonerrors.ErrInvalidOrderBy
)

type Repository interface {
	Create(ctx context.Context, post domain.NewPost) (domain.Post, error)
	FindByID(ctx context.Context, id domain.ID) (domain.Post, error)
	FindMany(ctx context.Context, page domain.Page) ([]domain.Post, error)
	FindByAuthorID(ctx context.Context, authorID userdomain.ID) ([]domain.Post, error)
}

type PgRepository struct {
	q      db.Querier
	runner *db.Runner
}

func NewPgRepository(q db.Querier, runner *db.Runner) *PgRepository {
	return &PgRepository{q: q, runner: runner}
}

const selectPostWithAuthor = `SELECT p.id, p.title, p.content, p.published, p.author_id, p.created_at,
	u.id, u.name, u.email, u.created_at
	FROM posts p
	JOIN users u ON u.id = p.author_id`

var orderColumns = map[domain.OrderBy]string{
	domain.OrderByID:        "p.id",
	domain.OrderByTitle:     "p.title",
	domain.OrderByCreatedAt: "p.created_at",
}

func (r *PgRepository) Create(ctx context.Context, post domain.NewPost) (domain.Post, error) {
	var created domain.Post
	err := r.runner.Write(ctx, "create post", func(ctx context.Context) error {
		start := time.Now()
		row := r.q.QueryRow(
			ctx,
			`WITH p AS (
				INSERT INTO posts (title, content, published, author_id)
				VALUES ($1, $2, $3, $4)
				RETURNING id, title, content, published, author_id, created_at
			)
			SELECT p.id, p.title, p.content, p.published, p.author_id, p.created_at,
				u.id, u.name, u.email, u.created_at
			FROM p
			JOIN users u ON u.id = p.author_id`,
			post.Title,
			post.Content,
			post.Published,
			int64(post.AuthorID),
		)
		var err error
		created, err = scanPost(row)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				db.MeasureQueryDuration("create post", start)
				return ErrAuthorNotFound.WithCause(err)
			}
			if _, _, ok := db.ConstraintViolation(err); ok {
				db.MeasureQueryDuration("create post", start)
				return commonerrors.ErrConstraintViolation.WithCause(err)
			}
		}
		return db.HandleExecError(err, "create post", start)
	})
	if err != nil {
		return domain.Post{}, err
	}
	return created, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.Post, error) {
	var post domain.Post
	err := r.runner.Read(ctx, "find post by id", func(ctx context.Context) error {
		start := time.Now()
		var err error
		post, err = scanPost(r.q.QueryRow(ctx, selectPostWithAuthor+` WHERE p.id = $1`, int64(id)))
		return db.HandleQueryError(err, ErrPostNotFound, "find post by id", start)
	})
	if err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func (r *PgRepository) FindMany(ctx context.Context, page domain.Page) ([]domain.Post, error) {
	orderBy := page.OrderBy
	if orderBy == "" {
		orderBy = domain.OrderByID
	}
	column, ok := orderColumns[orderBy]
	if !ok {
		return nil, ErrInvalidOrderBy
	}
	if page.Skip < 0 || page.Take < 0 {
		return nil, commonerrors.ErrValidation.WithCause(fmt.Errorf("skip=%d take=%d", page.Skip, page.Take))
	}

	query := fmt.Sprintf(`%s ORDER BY %s ASC, p.id ASC OFFSET $1 LIMIT $2`, selectPostWithAuthor, column)
	return r.findList(ctx, "find posts", query, page.Skip, page.Take)
}

func (r *PgRepository) FindByAuthorID(ctx context.Context, authorID userdomain.ID) ([]domain.Post, error) {
	return r.findList(ctx, "find posts by author", selectPostWithAuthor+` WHERE p.author_id = $1 ORDER BY p.id ASC`, int64(authorID))
}

func (r *PgRepository) findList(ctx context.Context, operation, query string, args ...any) ([]domain.Post, error) {
	var posts []domain.Post
	err := r.runner.Read(ctx, operation, func(ctx context.Context) error {
		start := time.Now()
		posts = posts[:0]

		rows, err := r.q.Query(ctx, query, args...)
		if err != nil {
			return db.HandleQueryError(err, nil, operation, start)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPost(rows)
			if err != nil {
				return db.HandleQueryError(err, nil, operation, start)
			}
			posts = append(posts, p)
		}
		return db.HandleQueryError(rows.Err(), nil, operation, start)
	})
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return posts, nil
}

func scanPost(row pgx.Row) (domain.Post, error) {
	var p domain.Post
	var author userdomain.User
	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.Published, &p.AuthorID, &p.CreatedAt,
		&author.ID, &author.Name, &author.Email, &author.CreatedAt,
	)
	if err != nil {
		return domain.Post{}, err
	}
	p.Author = &author
	return p, nil
}
