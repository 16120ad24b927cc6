package graph_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/postgraph/internal/common/constants"
	"github.com/AlibekovAA/postgraph/internal/common/jwtverify"
	"github.com/AlibekovAA/postgraph/internal/graph"
	postdomain "github.com/AlibekovAA/postgraph/internal/post/domain"
	"github.com/AlibekovAA/postgraph/internal/testutil/gatewaytest"
)

type gqlError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path"`
	Extensions map[string]any `json:"extensions"`
}

type result struct {
	Data   map[string]any `json:"data"`
	Errors []gqlError     `json:"errors"`
	raw    string
}

func (r result) codes() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		code, _ := e.Extensions["code"].(string)
		out = append(out, code)
	}
	return out
}

func decode(t *testing.T, resp *graph.Response) result {
	t.Helper()
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	var r result
	require.NoError(t, json.Unmarshal(raw, &r))
	r.raw = string(raw)
	return r
}

func run(t *testing.T, env *gatewaytest.Env, ctx context.Context, query string, vars map[string]any) result {
	t.Helper()
	return decode(t, env.Executor.Do(ctx, graph.Request{Query: query, Variables: vars}))
}

func TestSignupThenQueryWithToken(t *testing.T) {
	env := gatewaytest.New(t)
	ctx := context.Background()

	signed := run(t, env, ctx, `mutation {
		signup(name: "Alice", email: "alice@x.io", password: "pw-123") { token user { id name email password } }
	}`, nil)
	require.Empty(t, signed.Errors)

	payload := signed.Data["signup"].(map[string]any)
	token := payload["token"].(string)
	user := payload["user"].(map[string]any)
	assert.Equal(t, "Alice", user["name"])
	assert.Nil(t, user["password"])

	listed := run(t, env, gatewaytest.Authorized(ctx, token), `{ users { id email } }`, nil)
	require.Empty(t, listed.Errors)
	users := listed.Data["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, user["id"], users[0].(map[string]any)["id"])

	logged := run(t, env, ctx, `mutation { login(email: "alice@x.io", password: "pw-123") { user { id } } }`, nil)
	require.Empty(t, logged.Errors)
	assert.Equal(t, user["id"], logged.Data["login"].(map[string]any)["user"].(map[string]any)["id"])
}

func TestProtectedFieldsRequireToken(t *testing.T) {
	env := gatewaytest.New(t)
	author, _ := env.User(t, "Bob", "bob@x.io")

	cases := []struct {
		name  string
		ctx   context.Context
		query string
	}{
		{"missing header", context.Background(), `{ users { id } }`},
		{"garbage token", gatewaytest.Authorized(context.Background(), "not-a-jwt"), `{ users { id } }`},
		{"wrong scheme", jwtContext("Basic abc"), `{ posts { id } }`},
		{"mutation", context.Background(), `mutation { createPost(authorId: "` + author.ID.String() + `", title: "x") { id } }`},
		{"delete", context.Background(), `mutation { deleteUser(id: "` + author.ID.String() + `") }`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := run(t, env, tc.ctx, tc.query, nil)
			assert.Nil(t, res.Data)
			assert.Equal(t, []string{"UNAUTHENTICATED"}, res.codes())
			assert.Contains(t, res.raw, `"data":null`)
		})
	}

	posts, err := env.Store.Posts().FindByAuthorID(context.Background(), author.ID)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, 1, env.Store.UserCount())
}

func TestUnauthenticatedCreatePostPublishesNothing(t *testing.T) {
	env := gatewaytest.New(t)
	author, _ := env.User(t, "Bob", "bob@x.io")
	sub := env.Bus.Subscribe(constants.TopicPostCreated)
	defer sub.Close()

	res := run(t, env, context.Background(),
		`mutation($a: ID!) { createPost(authorId: $a, title: "x") { id } }`,
		map[string]any{"a": author.ID.String()})
	assert.Equal(t, []string{"UNAUTHENTICATED"}, res.codes())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := sub.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAbsentEntitiesResolveToNull(t *testing.T) {
	env := gatewaytest.New(t)
	_, token := env.User(t, "Bob", "bob@x.io")
	ctx := gatewaytest.Authorized(context.Background(), token)

	res := run(t, env, ctx, `{ user(id: "999") { id } post(id: 999) { id } }`, nil)
	require.Empty(t, res.Errors)
	assert.Contains(t, res.Data, "user")
	assert.Nil(t, res.Data["user"])
	assert.Nil(t, res.Data["post"])
}

func TestCreatePostPublishesStoredPost(t *testing.T) {
	env := gatewaytest.New(t)
	author, token := env.User(t, "Bob", "bob@x.io")
	ctx := gatewaytest.Authorized(context.Background(), token)
	sub := env.Bus.Subscribe(constants.TopicPostCreated)
	defer sub.Close()

	res := run(t, env, ctx, `mutation($a: ID!, $t: String!) {
		createPost(authorId: $a, title: $t, content: "body") { id title content published author { id name } }
	}`, map[string]any{"a": author.ID.String(), "t": "Hello"})
	require.Empty(t, res.Errors)

	created := res.Data["createPost"].(map[string]any)
	assert.Equal(t, "Hello", created["title"])
	assert.Equal(t, false, created["published"])
	assert.Equal(t, "Bob", created["author"].(map[string]any)["name"])

	waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := sub.Next(waitCtx)
	require.NoError(t, err)
	post, ok := ev.Payload.(*postdomain.Post)
	require.True(t, ok)
	assert.Equal(t, created["id"], post.ID.String())
	require.NotNil(t, post.Author)
	assert.Equal(t, author.ID, post.Author.ID)
}

func TestMutationErrorsCarryStableCodes(t *testing.T) {
	env := gatewaytest.New(t)
	author, token := env.User(t, "Bob", "bob@x.io")
	ctx := gatewaytest.Authorized(context.Background(), token)

	require.Empty(t, run(t, env, ctx, `mutation { createPost(authorId: "`+author.ID.String()+`", title: "p") { id } }`, nil).Errors)

	cases := []struct {
		name  string
		ctx   context.Context
		query string
		code  string
	}{
		{"unknown author", ctx, `mutation { createPost(authorId: "999", title: "x") { id } }`, "AUTHOR_NOT_FOUND"},
		{"user has posts", ctx, `mutation { deleteUser(id: "` + author.ID.String() + `") }`, "USER_HAS_POSTS"},
		{"delete missing", ctx, `mutation { deleteUser(id: "12345") }`, "NOT_FOUND"},
		{"duplicate createUser", ctx, `mutation { createUser(name: "B", email: "bob@x.io") { id } }`, "DUPLICATE_EMAIL"},
		{"duplicate signup", context.Background(), `mutation { signup(name: "B", email: "bob@x.io", password: "pw") { token } }`, "DUPLICATE_EMAIL"},
		{"login unknown", context.Background(), `mutation { login(email: "nobody@x.io", password: "pw") { token } }`, "USER_NOT_FOUND"},
		{"login passwordless", context.Background(), `mutation { login(email: "bob@x.io", password: "pw") { token } }`, "INVALID_CREDENTIAL"},
		{"bad email", ctx, `mutation { createUser(name: "C", email: "nope") { id } }`, "VALIDATION_FAILED"},
		{"bad order", ctx, `{ posts(orderBy: "author") { id } }`, "INVALID_ORDER_BY"},
		{"take too large", ctx, `{ posts(take: 101) { id } }`, "VALIDATION_FAILED"},
		{"negative skip", ctx, `{ posts(skip: -1) { id } }`, "VALIDATION_FAILED"},
		{"non numeric id", ctx, `{ user(id: "abc") { id } }`, graph.CodeBadUserInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := run(t, env, tc.ctx, tc.query, nil)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tc.code, res.codes()[0])
			assert.NotEmpty(t, res.Errors[0].Path)
		})
	}
}

func TestDeleteUserWithoutPosts(t *testing.T) {
	env := gatewaytest.New(t)
	_, token := env.User(t, "Bob", "bob@x.io")
	victim, _ := env.User(t, "Eve", "eve@x.io")
	ctx := gatewaytest.Authorized(context.Background(), token)

	res := run(t, env, ctx, `mutation { deleteUser(id: "`+victim.ID.String()+`") }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, true, res.Data["deleteUser"])
	assert.Equal(t, 1, env.Store.UserCount())
}

func TestPostsPagination(t *testing.T) {
	env := gatewaytest.New(t)
	author, token := env.User(t, "Bob", "bob@x.io")
	ctx := gatewaytest.Authorized(context.Background(), token)

	for _, title := range []string{"e", "d", "c", "b", "a"} {
		res := run(t, env, ctx, `mutation($a: ID!, $t: String!) { createPost(authorId: $a, title: $t) { id } }`,
			map[string]any{"a": author.ID.String(), "t": title})
		require.Empty(t, res.Errors)
	}

	titles := func(r result) []string {
		var out []string
		for _, p := range r.Data["posts"].([]any) {
			out = append(out, p.(map[string]any)["title"].(string))
		}
		return out
	}

	res := run(t, env, ctx, `{ posts(skip: 1, take: 2) { title } }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, []string{"d", "c"}, titles(res))

	res = run(t, env, ctx, `query($o: String) { posts(orderBy: $o, take: 3) { title } }`, map[string]any{"o": "title"})
	require.Empty(t, res.Errors)
	assert.Equal(t, []string{"a", "b", "c"}, titles(res))

	res = run(t, env, ctx, `{ posts(take: 0) { title } }`, nil)
	require.Empty(t, res.Errors)
	assert.Empty(t, res.Data["posts"])

	res = run(t, env, ctx, `{ user(id: "`+author.ID.String()+`") { posts { title } } }`, nil)
	require.Empty(t, res.Errors)
	assert.Len(t, res.Data["user"].(map[string]any)["posts"], 5)
}

func TestRequestErrors(t *testing.T) {
	env := gatewaytest.New(t)

	cases := []struct {
		name string
		req  graph.Request
		code string
	}{
		{"empty", graph.Request{Query: "  "}, graph.CodeParseFailed},
		{"syntax", graph.Request{Query: "{ users { id "}, graph.CodeParseFailed},
		{"unknown field", graph.Request{Query: "{ nope }"}, graph.CodeValidationFailed},
		{"missing argument", graph.Request{Query: "{ user { id } }"}, graph.CodeValidationFailed},
		{"ambiguous operation", graph.Request{Query: "query A { users { id } } query B { users { id } }"}, graph.CodeValidationFailed},
		{"unknown operation", graph.Request{Query: "query A { users { id } }", OperationName: "B"}, graph.CodeValidationFailed},
		{"bad variable", graph.Request{Query: "query($t: Int) { posts(take: $t) { id } }", Variables: map[string]any{"t": "ten"}}, graph.CodeBadUserInput},
		{"subscription over http", graph.Request{Query: "subscription { postAdded { id } }"}, graph.CodeBadUserInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.Executor.Do(context.Background(), tc.req)
			assert.True(t, resp.IsRequestError())
			res := decode(t, resp)
			require.NotEmpty(t, res.Errors)
			assert.Equal(t, tc.code, res.codes()[0])
			assert.NotContains(t, res.raw, `"data"`)
		})
	}
}

func TestSelectionFeatures(t *testing.T) {
	env := gatewaytest.New(t)
	author, token := env.User(t, "Bob", "bob@x.io")
	ctx := gatewaytest.Authorized(context.Background(), token)
	require.Empty(t, run(t, env, ctx, `mutation { createPost(authorId: "`+author.ID.String()+`", title: "p", published: true) { id } }`, nil).Errors)

	res := run(t, env, ctx, `
		query Feed($withAuthor: Boolean!, $noTitle: Boolean!) {
			zeta: posts { ...postFields }
			alpha: posts {
				__typename
				title @skip(if: $noTitle)
				author @include(if: $withAuthor) { ... on User { name } }
			}
		}
		fragment postFields on Post { id published }
	`, map[string]any{"withAuthor": true, "noTitle": true})
	require.Empty(t, res.Errors)

	assert.True(t, strings.Index(res.raw, `"zeta"`) < strings.Index(res.raw, `"alpha"`), "keys keep selection order")

	zeta := res.Data["zeta"].([]any)[0].(map[string]any)
	assert.Equal(t, true, zeta["published"])

	alpha := res.Data["alpha"].([]any)[0].(map[string]any)
	assert.Equal(t, "Post", alpha["__typename"])
	assert.NotContains(t, alpha, "title")
	assert.Equal(t, "Bob", alpha["author"].(map[string]any)["name"])
}

func TestMutationsRunInDocumentOrder(t *testing.T) {
	env := gatewaytest.New(t)
	author, token := env.User(t, "Bob", "bob@x.io")
	ctx := gatewaytest.Authorized(context.Background(), token)

	res := run(t, env, ctx, `mutation($a: ID!) {
		second: createPost(authorId: $a, title: "one") { id }
		first: createPost(authorId: $a, title: "two") { id }
	}`, map[string]any{"a": author.ID.String()})
	require.Empty(t, res.Errors)

	assert.True(t, strings.Index(res.raw, `"second"`) < strings.Index(res.raw, `"first"`))
	assert.Equal(t, "1", res.Data["second"].(map[string]any)["id"])
	assert.Equal(t, "2", res.Data["first"].(map[string]any)["id"])
}

func TestIntrospection(t *testing.T) {
	env := gatewaytest.New(t)

	res := run(t, env, context.Background(), `{
		__schema { queryType { name } mutationType { name } subscriptionType { name } types { name kind } }
		__type(name: "User") { name kind fields(includeDeprecated: true) { name isDeprecated type { kind ofType { name } } } }
		missing: __type(name: "Nope") { name }
	}`, nil)
	require.Empty(t, res.Errors)

	schema := res.Data["__schema"].(map[string]any)
	assert.Equal(t, "Query", schema["queryType"].(map[string]any)["name"])
	assert.Equal(t, "Mutation", schema["mutationType"].(map[string]any)["name"])
	assert.Equal(t, "Subscription", schema["subscriptionType"].(map[string]any)["name"])

	var names []string
	for _, typ := range schema["types"].([]any) {
		names = append(names, typ.(map[string]any)["name"].(string))
	}
	assert.Contains(t, names, "Post")
	assert.Contains(t, names, "AuthPayload")
	assert.Contains(t, names, "DateTime")

	user := res.Data["__type"].(map[string]any)
	assert.Equal(t, "OBJECT", user["kind"])
	fields := map[string]map[string]any{}
	for _, f := range user["fields"].([]any) {
		fm := f.(map[string]any)
		fields[fm["name"].(string)] = fm
	}
	require.Contains(t, fields, "posts")
	assert.Equal(t, "NON_NULL", fields["posts"]["type"].(map[string]any)["kind"])
	require.Contains(t, fields, "password")
	assert.Equal(t, true, fields["password"]["isDeprecated"])

	assert.Nil(t, res.Data["missing"])
}

func TestSubscriptionStream(t *testing.T) {
	env := gatewaytest.New(t)
	author, token := env.User(t, "Bob", "bob@x.io")
	ctx := gatewaytest.Authorized(context.Background(), token)

	op, resp := env.Executor.Prepare(context.Background(), graph.Request{Query: `subscription { added: postAdded { title author { name } } }`})
	require.Nil(t, resp)

	_, denied := env.Executor.Subscribe(context.Background(), op)
	require.NotNil(t, denied)
	assert.Equal(t, []string{"UNAUTHENTICATED"}, decode(t, denied).codes())
	assert.Equal(t, 0, env.Bus.SubscriberCount(constants.TopicPostCreated))

	stream, resp := env.Executor.Subscribe(ctx, op)
	require.Nil(t, resp)
	defer stream.Close()
	assert.Equal(t, 1, env.Bus.SubscriberCount(constants.TopicPostCreated))

	require.Empty(t, run(t, env, ctx, `mutation { createPost(authorId: "`+author.ID.String()+`", title: "live") { id } }`, nil).Errors)

	waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	next, err := stream.Next(waitCtx)
	require.NoError(t, err)
	res := decode(t, next)
	require.Empty(t, res.Errors)
	added := res.Data["added"].(map[string]any)
	assert.Equal(t, "live", added["title"])
	assert.Equal(t, "Bob", added["author"].(map[string]any)["name"])

	stream.Close()
	assert.Equal(t, 0, env.Bus.SubscriberCount(constants.TopicPostCreated))
}

func TestSubscriptionStreamOverflow(t *testing.T) {
	env := gatewaytest.New(t, gatewaytest.WithQueueSize(1))
	author, token := env.User(t, "Bob", "bob@x.io")
	ctx := gatewaytest.Authorized(context.Background(), token)

	op, resp := env.Executor.Prepare(context.Background(), graph.Request{Query: `subscription { postAdded { title } }`})
	require.Nil(t, resp)
	stream, resp := env.Executor.Subscribe(ctx, op)
	require.Nil(t, resp)
	defer stream.Close()

	for _, title := range []string{"one", "two", "three"} {
		require.Empty(t, run(t, env, ctx, `mutation { createPost(authorId: "`+author.ID.String()+`", title: "`+title+`") { id } }`, nil).Errors)
	}
	assert.Equal(t, 0, env.Bus.SubscriberCount(constants.TopicPostCreated))

	waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	next, err := stream.Next(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, "one", decode(t, next).Data["postAdded"].(map[string]any)["title"])

	_, err = stream.Next(waitCtx)
	require.Error(t, err)
	gqlErr := graph.ToGraphQLError(waitCtx, env.Log, err, nil)
	assert.Equal(t, "SUBSCRIBER_OVERFLOW", gqlErr.Extensions["code"])
}

func jwtContext(header string) context.Context {
	return jwtverify.WithAuthorization(context.Background(), header)
}
