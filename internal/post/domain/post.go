package domain

import (
	"strconv"
	"time"

	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
	userdomain "github.com/AlibekovAA/postgraph/internal/user/domain"
)

type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func ParseID(s string) (ID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

type Post struct {
	ID        ID
	Title     string
	Content   *string
	Published bool
	AuthorID  userdomain.ID
	Author    *userdomain.User
	CreatedAt time.Time
}

type NewPost struct {
	AuthorID  userdomain.ID
	Title     string
	Content   *string
	Published bool
}

type OrderBy string

const (
	OrderByID        OrderBy = "id"
	OrderByTitle     OrderBy = "title"
	OrderByCreatedAt OrderBy = "createdAt"
)

func ParseOrderBy(s string) (OrderBy, error) {
	switch OrderBy(s) {
	case OrderByID, OrderByTitle, OrderByCreatedAt:
		return OrderBy(s), nil
	case "":
		return OrderByID, nil
	}
	return "", commonerrors.ErrInvalidOrderBy
}

// Page is an offset window; ordering is always ascending.
type Page struct {
	Skip    int
	Take    int
	OrderBy OrderBy
}
