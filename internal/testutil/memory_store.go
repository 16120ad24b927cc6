// Package testutil holds in-memory collaborators for package tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
	postdomain "github.com/AlibekovAA/postgraph/internal/post/domain"
	postrepo "github.com/AlibekovAA/postgraph/internal/post/repository"
	userdomain "github.com/AlibekovAA/postgraph/internal/user/domain"
	userrepo "github.com/AlibekovAA/postgraph/internal/user/repository"
)

// MemoryStore mirrors the Postgres schema rules under one mutex: unique
// email, the posts.author_id foreign key and delete restriction.
type MemoryStore struct {
	mu         sync.Mutex
	users      map[userdomain.ID]userdomain.User
	posts      map[postdomain.ID]postdomain.Post
	nextUserID userdomain.ID
	nextPostID postdomain.ID
	now        func() time.Time

	// FindByEmailHook runs after the advisory email lookup, outside the
	// lock, so tests can force two signups to interleave.
	FindByEmailHook func()
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[userdomain.ID]userdomain.User),
		posts: make(map[postdomain.ID]postdomain.Post),
		now:   time.Now,
	}
}

func (s *MemoryStore) Users() *MemoryUsers {
	return &MemoryUsers{s: s}
}

func (s *MemoryStore) Posts() *MemoryPosts {
	return &MemoryPosts{s: s}
}

func (s *MemoryStore) CountUsersWithEmail(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.users {
		if u.Email == email {
			n++
		}
	}
	return n
}

func (s *MemoryStore) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type MemoryUsers struct {
	s *MemoryStore
}

var _ userrepo.Repository = (*MemoryUsers)(nil)

func (r *MemoryUsers) Create(ctx context.Context, user userdomain.NewUser) (userdomain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return userdomain.User{}, userrepo.ErrDuplicateEmail
		}
	}

	r.s.nextUserID++
	created := userdomain.User{
		ID:           r.s.nextUserID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    r.s.now(),
	}
	r.s.users[created.ID] = created
	return created, nil
}

func (r *MemoryUsers) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUsers) FindByEmail(ctx context.Context, email string) (userdomain.User, error) {
	r.s.mu.Lock()
	var (
		found userdomain.User
		ok    bool
	)
	for _, u := range r.s.users {
		if u.Email == email {
			found, ok = u, true
			break
		}
	}
	hook := r.s.FindByEmailHook
	r.s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}
	return found, nil
}

func (r *MemoryUsers) FindAll(ctx context.Context) ([]userdomain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]userdomain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryUsers) Delete(ctx context.Context, id userdomain.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return commonerrors.ErrNotFound
	}
	for _, p := range r.s.posts {
		if p.AuthorID == id {
			return userrepo.ErrUserHasPosts
		}
	}
	delete(r.s.users, id)
	return nil
}

type MemoryPosts struct {
	s *MemoryStore
}

var _ postrepo.Repository = (*MemoryPosts)(nil)

func (r *MemoryPosts) Create(ctx context.Context, post postdomain.NewPost) (postdomain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	author, ok := r.s.users[post.AuthorID]
	if !ok {
		return postdomain.Post{}, postrepo.ErrAuthorNotFound
	}

	r.s.nextPostID++
	created := postdomain.Post{
		ID:        r.s.nextPostID,
		Title:     post.Title,
		Content:   post.Content,
		Published: post.Published,
		AuthorID:  post.AuthorID,
		CreatedAt: r.s.now(),
	}
	r.s.posts[created.ID] = created
	return withAuthor(created, author), nil
}

func (r *MemoryPosts) FindByID(ctx context.Context, id postdomain.ID) (postdomain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok {
		return postdomain.Post{}, postrepo.ErrPostNotFound
	}
	return withAuthor(p, r.s.users[p.AuthorID]), nil
}

func (r *MemoryPosts) FindMany(ctx context.Context, page postdomain.Page) ([]postdomain.Post, error) {
	orderBy := page.OrderBy
	if orderBy == "" {
		orderBy = postdomain.OrderByID
	}
	if _, err := postdomain.ParseOrderBy(string(orderBy)); err != nil {
		return nil, postrepo.ErrInvalidOrderBy
	}
	if page.Skip < 0 || page.Take < 0 {
		return nil, commonerrors.ErrValidation
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := r.sortedLocked(func(postdomain.Post) bool { return true })
	sort.SliceStable(all, func(i, j int) bool {
		switch orderBy {
		case postdomain.OrderByTitle:
			if c := strings.Compare(all[i].Title, all[j].Title); c != 0 {
				return c < 0
			}
		case postdomain.OrderByCreatedAt:
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.Before(all[j].CreatedAt)
			}
		}
		return all[i].ID < all[j].ID
	})

	if page.Skip >= len(all) {
		return []postdomain.Post{}, nil
	}
	end := page.Skip + page.Take
	if end > len(all) {
		end = len(all)
	}
	return all[page.Skip:end], nil
}

func (r *MemoryPosts) FindByAuthorID(ctx context.Context, authorID userdomain.ID) ([]postdomain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.sortedLocked(func(p postdomain.Post) bool { return p.AuthorID == authorID }), nil
}

func (r *MemoryPosts) sortedLocked(keep func(postdomain.Post) bool) []postdomain.Post {
	out := make([]postdomain.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		if keep(p) {
			out = append(out, withAuthor(p, r.s.users[p.AuthorID]))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func withAuthor(p postdomain.Post, author userdomain.User) postdomain.Post {
	a := author
	a.PasswordHash = nil
	p.Author = &a
	return p
}
