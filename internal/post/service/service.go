package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlibekovAA/postgraph/internal/common/constants"
	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/common/validation"
	"github.com/AlibekovAA/postgraph/internal/post/domain"
	"github.com/AlibekovAA/postgraph/internal/post/repository"
	"github.com/AlibekovAA/postgraph/internal/pubsub"
	userdomain "github.com/AlibekovAA/postgraph/internal/user/domain"
)

type Service struct {
	repo repository.Repository
	bus  pubsub.Publisher
	log  *logger.Logger
}

func New(repo repository.Repository, bus pubsub.Publisher, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

type ListInput struct {
	Skip    *int
	Take    *int
	OrderBy *string
}

type CreatePostInput struct {
	AuthorID  userdomain.ID
	Title     string  `json:"title" validate:"required,max=255"`
	Content   *string `json:"content" validate:"omitempty,max=10000"`
	Published *bool
}

// List applies the defaults skip=0, take=10, orderBy=id.
func (s *Service) List(ctx context.Context, input ListInput) ([]domain.Post, error) {
	page := domain.Page{
		Skip:    constants.DefaultPostsSkip,
		Take:    constants.DefaultPostsTake,
		OrderBy: constants.DefaultPostsOrderBy,
	}
	if input.Skip != nil {
		page.Skip = *input.Skip
	}
	if input.Take != nil {
		page.Take = *input.Take
	}
	if input.OrderBy != nil {
		orderBy, err := domain.ParseOrderBy(*input.OrderBy)
		if err != nil {
			return nil, err
		}
		page.OrderBy = orderBy
	}

	if page.Skip < 0 {
		return nil, commonerrors.ErrValidation.WithCause(errors.New("skip must be greater than or equal to 0"))
	}
	if page.Take < 0 || page.Take > constants.MaxPostsTake {
		return nil, commonerrors.ErrValidation.WithCause(fmt.Errorf("take must be between 0 and %d", constants.MaxPostsTake))
	}

	return s.repo.FindMany(ctx, page)
}

// Get returns nil without error when the post does not exist.
func (s *Service) Get(ctx context.Context, id domain.ID) (*domain.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func (s *Service) ListByAuthor(ctx context.Context, authorID userdomain.ID) ([]domain.Post, error) {
	return s.repo.FindByAuthorID(ctx, authorID)
}

// Create publishes the stored row, author attached, once the insert has
// returned. Nothing is published when the insert fails.
func (s *Service) Create(ctx context.Context, input CreatePostInput) (domain.Post, error) {
	if err := validation.Struct(input); err != nil {
		return domain.Post{}, err
	}

	published := false
	if input.Published != nil {
		published = *input.Published
	}

	post, err := s.repo.Create(ctx, domain.NewPost{
		AuthorID:  input.AuthorID,
		Title:     input.Title,
		Content:   input.Content,
		Published: published,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAuthorNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"author_id": input.AuthorID.String(),
				"action":    "create_post_author_not_found",
			}).Warn("create post failed: author not found")
			return domain.Post{}, repository.ErrAuthorNotFound
		}
		s.log.WithFields(ctx, logger.Fields{
			"author_id": input.AuthorID.String(),
			"action":    "create_post_failed",
		}).Errorf("create post failed: %v", err)
		return domain.Post{}, err
	}

	stored := post
	delivered := s.bus.Publish(constants.TopicPostCreated, &stored)

	s.log.WithFields(ctx, logger.Fields{
		"post_id":     post.ID.String(),
		"author_id":   post.AuthorID.String(),
		"subscribers": delivered,
		"action":      "create_post_success",
	}).Info("post created")

	return post, nil
}
