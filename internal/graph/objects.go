package graph

import (
	"context"
	"fmt"

	authservice "github.com/AlibekovAA/postgraph/internal/auth/service"
	postdomain "github.com/AlibekovAA/postgraph/internal/post/domain"
	userdomain "github.com/AlibekovAA/postgraph/internal/user/domain"
)

func (r *Resolver) resolveObjectField(ctx context.Context, typeName string, obj any, field string, args map[string]any) (any, error) {
	switch typeName {
	case "User":
		return r.resolveUserField(ctx, obj, field)
	case "Post":
		return r.resolvePostField(ctx, obj, field)
	case "AuthPayload":
		return resolveAuthPayloadField(obj, field)
	}
	return resolveIntrospectionField(typeName, obj, field, args)
}

func (r *Resolver) resolveUserField(ctx context.Context, obj any, field string) (any, error) {
	u, ok := asUser(obj)
	if !ok {
		return nil, fmt.Errorf("unexpected %T for User", obj)
	}
	switch field {
	case "id":
		return u.ID.String(), nil
	case "name":
		return u.Name, nil
	case "email":
		return u.Email, nil
	case "password":
		return nil, nil
	case "posts":
		return r.posts.ListByAuthor(ctx, u.ID)
	case "createdAt":
		return u.CreatedAt, nil
	}
	return nil, fmt.Errorf("unknown field User.%s", field)
}

func (r *Resolver) resolvePostField(ctx context.Context, obj any, field string) (any, error) {
	p, ok := asPost(obj)
	if !ok {
		return nil, fmt.Errorf("unexpected %T for Post", obj)
	}
	switch field {
	case "id":
		return p.ID.String(), nil
	case "title":
		return p.Title, nil
	case "content":
		return p.Content, nil
	case "published":
		return p.Published, nil
	case "author":
		if p.Author != nil {
			return p.Author, nil
		}
		return r.users.Get(ctx, p.AuthorID)
	case "createdAt":
		return p.CreatedAt, nil
	}
	return nil, fmt.Errorf("unknown field Post.%s", field)
}

func resolveAuthPayloadField(obj any, field string) (any, error) {
	var res authservice.AuthResult
	switch v := obj.(type) {
	case authservice.AuthResult:
		res = v
	case *authservice.AuthResult:
		res = *v
	default:
		return nil, fmt.Errorf("unexpected %T for AuthPayload", obj)
	}
	switch field {
	case "token":
		return res.Token, nil
	case "user":
		return res.User, nil
	}
	return nil, fmt.Errorf("unknown field AuthPayload.%s", field)
}

func asUser(obj any) (userdomain.User, bool) {
	switch v := obj.(type) {
	case userdomain.User:
		return v, true
	case *userdomain.User:
		if v != nil {
			return *v, true
		}
	}
	return userdomain.User{}, false
}

func asPost(obj any) (postdomain.Post, bool) {
	switch v := obj.(type) {
	case postdomain.Post:
		return v, true
	case *postdomain.Post:
		if v != nil {
			return *v, true
		}
	}
	return postdomain.Post{}, false
}
