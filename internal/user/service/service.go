package service

import (
	"context"
	"errors"

	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/common/validation"
	"github.com/AlibekovAA/postgraph/internal/user/domain"
	"github.com/AlibekovAA/postgraph/internal/user/repository"
)

type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

type CreateUserInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.FindAll(ctx)
}

// Get returns nil without error when the user does not exist.
func (s *Service) Get(ctx context.Context, id domain.ID) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create stores a user without a password. Such a user cannot log in:
// there is no operation that sets a password afterwards.
func (s *Service) Create(ctx context.Context, input CreateUserInput) (domain.User, error) {
	if err := validation.Struct(input); err != nil {
		return domain.User{}, err
	}

	_, err := s.repo.FindByEmail(ctx, input.Email)
	switch {
	case err == nil:
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "create_user_email_exists",
		}).Warn("create user failed: email already in use")
		return domain.User{}, repository.ErrDuplicateEmail
	case !errors.Is(err, repository.ErrUserNotFound):
		return domain.User{}, err
	}

	user, err := s.repo.Create(ctx, domain.NewUser{Name: input.Name, Email: input.Email})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return domain.User{}, repository.ErrDuplicateEmail
		}
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "create_user_failed",
		}).Errorf("create user failed: %v", err)
		return domain.User{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": user.ID.String(),
		"action":  "create_user_success",
	}).Info("user created without credential")
	return user, nil
}

// Delete fails with NOT_FOUND for unknown ids and USER_HAS_POSTS while the
// user still authors posts.
func (s *Service) Delete(ctx context.Context, id domain.ID) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, commonerrors.ErrNotFound) || errors.Is(err, repository.ErrUserHasPosts) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": id.String(),
				"action":  "delete_user_rejected",
			}).Warnf("delete user rejected: %v", err)
			return err
		}
		s.log.WithFields(ctx, logger.Fields{
			"user_id": id.String(),
			"action":  "delete_user_failed",
		}).Errorf("delete user failed: %v", err)
		return err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": id.String(),
		"action":  "delete_user_success",
	}).Info("user deleted")
	return nil
}
