package graph

import (
	"context"

	authservice "github.com/AlibekovAA/postgraph/internal/auth/service"
	"github.com/AlibekovAA/postgraph/internal/common/constants"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	postdomain "github.com/AlibekovAA/postgraph/internal/post/domain"
	postservice "github.com/AlibekovAA/postgraph/internal/post/service"
	"github.com/AlibekovAA/postgraph/internal/pubsub"
	userdomain "github.com/AlibekovAA/postgraph/internal/user/domain"
	userservice "github.com/AlibekovAA/postgraph/internal/user/service"
)

type Authenticator interface {
	Authenticate(ctx context.Context) (userdomain.ID, error)
}

// fieldHandler decodes its arguments, calls one service operation and
// returns a value the executor can complete against the schema type.
type fieldHandler func(ctx context.Context, args map[string]any) (any, error)

type subscribeHandler func(ctx context.Context, args map[string]any) (*pubsub.Subscription, error)

type rootField struct {
	public  bool
	resolve fieldHandler
}

type subscriptionField struct {
	public    bool
	subscribe subscribeHandler
}

type Dependencies struct {
	Auth  *authservice.AuthService
	Users *userservice.Service
	Posts *postservice.Service
	Bus   pubsub.Subscriber
	Guard Authenticator
	Log   *logger.Logger
}

type Resolver struct {
	auth  *authservice.AuthService
	users *userservice.Service
	posts *postservice.Service
	bus   pubsub.Subscriber
	guard Authenticator
	log   *logger.Logger

	query        map[string]rootField
	mutation     map[string]rootField
	subscription map[string]subscriptionField
}

func NewResolver(deps Dependencies) *Resolver {
	r := &Resolver{
		auth:  deps.Auth,
		users: deps.Users,
		posts: deps.Posts,
		bus:   deps.Bus,
		guard: deps.Guard,
		log:   deps.Log,
	}

	r.query = map[string]rootField{
		"users": {resolve: r.resolveUsers},
		"user":  {resolve: r.resolveUser},
		"posts": {resolve: r.resolvePosts},
		"post":  {resolve: r.resolvePost},
	}
	r.mutation = map[string]rootField{
		"signup":     {public: true, resolve: r.resolveSignup},
		"login":      {public: true, resolve: r.resolveLogin},
		"createUser": {resolve: r.resolveCreateUser},
		"createPost": {resolve: r.resolveCreatePost},
		"deleteUser": {resolve: r.resolveDeleteUser},
	}
	r.subscription = map[string]subscriptionField{
		"postAdded": {subscribe: r.subscribePostAdded},
	}
	return r
}

func (r *Resolver) resolveUsers(ctx context.Context, _ map[string]any) (any, error) {
	return r.users.List(ctx)
}

func (r *Resolver) resolveUser(ctx context.Context, args map[string]any) (any, error) {
	id, err := idArg(args, "id")
	if err != nil {
		return nil, err
	}
	return r.users.Get(ctx, userdomain.ID(id))
}

func (r *Resolver) resolvePosts(ctx context.Context, args map[string]any) (any, error) {
	skip, err := optionalIntArg(args, "skip")
	if err != nil {
		return nil, err
	}
	take, err := optionalIntArg(args, "take")
	if err != nil {
		return nil, err
	}
	orderBy, err := optionalStringArg(args, "orderBy")
	if err != nil {
		return nil, err
	}
	return r.posts.List(ctx, postservice.ListInput{Skip: skip, Take: take, OrderBy: orderBy})
}

func (r *Resolver) resolvePost(ctx context.Context, args map[string]any) (any, error) {
	id, err := idArg(args, "id")
	if err != nil {
		return nil, err
	}
	return r.posts.Get(ctx, postdomain.ID(id))
}

func (r *Resolver) resolveSignup(ctx context.Context, args map[string]any) (any, error) {
	var (
		input authservice.SignupInput
		err   error
	)
	if input.Name, err = stringArg(args, "name"); err != nil {
		return nil, err
	}
	if input.Email, err = stringArg(args, "email"); err != nil {
		return nil, err
	}
	if input.Password, err = stringArg(args, "password"); err != nil {
		return nil, err
	}
	return r.auth.Signup(ctx, input)
}

func (r *Resolver) resolveLogin(ctx context.Context, args map[string]any) (any, error) {
	var (
		input authservice.LoginInput
		err   error
	)
	if input.Email, err = stringArg(args, "email"); err != nil {
		return nil, err
	}
	if input.Password, err = stringArg(args, "password"); err != nil {
		return nil, err
	}
	return r.auth.Login(ctx, input)
}

func (r *Resolver) resolveCreateUser(ctx context.Context, args map[string]any) (any, error) {
	var (
		input userservice.CreateUserInput
		err   error
	)
	if input.Name, err = stringArg(args, "name"); err != nil {
		return nil, err
	}
	if input.Email, err = stringArg(args, "email"); err != nil {
		return nil, err
	}
	return r.users.Create(ctx, input)
}

func (r *Resolver) resolveCreatePost(ctx context.Context, args map[string]any) (any, error) {
	authorID, err := idArg(args, "authorId")
	if err != nil {
		return nil, err
	}
	input := postservice.CreatePostInput{AuthorID: userdomain.ID(authorID)}
	if input.Title, err = stringArg(args, "title"); err != nil {
		return nil, err
	}
	if input.Content, err = optionalStringArg(args, "content"); err != nil {
		return nil, err
	}
	if input.Published, err = optionalBoolArg(args, "published"); err != nil {
		return nil, err
	}
	return r.posts.Create(ctx, input)
}

func (r *Resolver) resolveDeleteUser(ctx context.Context, args map[string]any) (any, error) {
	id, err := idArg(args, "id")
	if err != nil {
		return nil, err
	}
	if err := r.users.Delete(ctx, userdomain.ID(id)); err != nil {
		return nil, err
	}
	return true, nil
}

func (r *Resolver) subscribePostAdded(_ context.Context, _ map[string]any) (*pubsub.Subscription, error) {
	return r.bus.Subscribe(constants.TopicPostCreated), nil
}

// authenticate runs the guard for every non-public root field. The
// resulting identity is carried for audit logging only.
func (r *Resolver) authenticate(ctx context.Context, public bool) (context.Context, error) {
	if public {
		return ctx, nil
	}
	caller, err := r.guard.Authenticate(ctx)
	if err != nil {
		return ctx, err
	}
	return WithCaller(ctx, caller), nil
}

type callerKey struct{}

func WithCaller(ctx context.Context, id userdomain.ID) context.Context {
	return context.WithValue(ctx, callerKey{}, id)
}

// CallerFromContext returns the authenticated caller of the current root
// field, if any.
func CallerFromContext(ctx context.Context) (userdomain.ID, bool) {
	id, ok := ctx.Value(callerKey{}).(userdomain.ID)
	return id, ok
}
