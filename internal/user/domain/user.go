package domain

import (
	"strconv"
	"time"
)

type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID accepts the decimal string form used by GraphQL ID values.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

type User struct {
	ID           ID
	Name         string
	Email        string
	PasswordHash *string
	CreatedAt    time.Time
}

// HasPassword is false for users created through createUser.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

type NewUser struct {
	Name         string
	Email        string
	PasswordHash *string
}
