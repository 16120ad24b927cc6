package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	postdomain "github.com/AlibekovAA/postgraph/internal/post/domain"
	"github.com/AlibekovAA/postgraph/internal/testutil"
	"github.com/AlibekovAA/postgraph/internal/user/domain"
	"github.com/AlibekovAA/postgraph/internal/user/repository"
)

func newTestService(t *testing.T) (*Service, *testutil.MemoryStore) {
	t.Helper()
	log, err := logger.New("", "test", "error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	store := testutil.NewMemoryStore()
	return New(store.Users(), log), store
}

func TestService_CreateWithoutPassword(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Create(context.Background(), CreateUserInput{Name: "Admin Made", Email: "m@x.io"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.HasPassword() {
		t.Fatal("createUser must not set a credential")
	}

	_, err = svc.Create(context.Background(), CreateUserInput{Name: "Again", Email: "m@x.io"})
	if !errors.Is(err, commonerrors.ErrDuplicateEmail) {
		t.Fatalf("expected DUPLICATE_EMAIL, got %v", err)
	}
}

// raceLostRepo sees no user on the advisory lookup and then loses the
// insert to a concurrent writer.
type raceLostRepo struct {
	repository.Repository
	creates int
}

func (r *raceLostRepo) FindByEmail(context.Context, string) (domain.User, error) {
	return domain.User{}, repository.ErrUserNotFound
}

func (r *raceLostRepo) Create(context.Context, domain.NewUser) (domain.User, error) {
	r.creates++
	return domain.User{}, fmt.Errorf("insert user: %w", repository.ErrDuplicateEmail)
}

func TestService_CreateDuplicateRejectedByStore(t *testing.T) {
	log, err := logger.New("", "test", "error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	repo := &raceLostRepo{Repository: testutil.NewMemoryStore().Users()}
	svc := New(repo, log)

	_, err = svc.Create(context.Background(), CreateUserInput{Name: "Late", Email: "late@x.io"})
	if !errors.Is(err, commonerrors.ErrDuplicateEmail) {
		t.Fatalf("expected DUPLICATE_EMAIL, got %v", err)
	}
	if de, ok := commonerrors.AsDomainError(err); !ok || de.Code() != commonerrors.ErrDuplicateEmail.Code() {
		t.Fatalf("expected the bare domain error, got %v", err)
	}
	if repo.creates != 1 {
		t.Fatalf("expected one insert attempt, got %d", repo.creates)
	}
}

func TestService_GetMissingIsNil(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Get(context.Background(), 404)
	if err != nil || user != nil {
		t.Fatalf("expected nil user without error, got %v (%v)", user, err)
	}
}

func TestService_Delete(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	keep, _ := store.Users().Create(ctx, domain.NewUser{Name: "Keep", Email: "keep@x.io"})
	gone, _ := store.Users().Create(ctx, domain.NewUser{Name: "Gone", Email: "gone@x.io"})
	author, _ := store.Users().Create(ctx, domain.NewUser{Name: "Author", Email: "author@x.io"})
	if _, err := store.Posts().Create(ctx, postdomain.NewPost{AuthorID: author.ID, Title: "t"}); err != nil {
		t.Fatalf("create post: %v", err)
	}

	if err := svc.Delete(ctx, 9999); !errors.Is(err, commonerrors.ErrNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if store.UserCount() != 3 {
		t.Fatal("failed delete must not affect other rows")
	}

	if err := svc.Delete(ctx, author.ID); !errors.Is(err, commonerrors.ErrUserHasPosts) {
		t.Fatalf("expected USER_HAS_POSTS, got %v", err)
	}

	if err := svc.Delete(ctx, gone.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u, _ := svc.Get(ctx, keep.ID); u == nil {
		t.Fatal("unrelated user must survive")
	}
	if u, _ := svc.Get(ctx, gone.ID); u != nil {
		t.Fatal("deleted user must be gone")
	}
}
