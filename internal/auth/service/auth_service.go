package service

import (
	"context"
	"errors"

	"github.com/AlibekovAA/postgraph/internal/common/constants"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/common/validation"
	userdomain "github.com/AlibekovAA/postgraph/internal/user/domain"
	userrepo "github.com/AlibekovAA/postgraph/internal/user/repository"
)

type AuthService struct {
	repo        userrepo.Repository
	credentials *CredentialService
	log         *logger.Logger
}

func NewAuthService(repo userrepo.Repository, credentials *CredentialService, log *logger.Logger) *AuthService {
	return &AuthService{
		repo:        repo,
		credentials: credentials,
		log:         log,
	}
}

type SignupInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

// LoginInput is not validated up front: an unknown email reports
// USER_NOT_FOUND whatever the password looks like.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token string
	User  userdomain.User
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (AuthResult, error) {
	s.log.WithFields(ctx, logger.Fields{
		"email":  input.Email,
		"action": "signup_attempt",
	}).Info("signup attempt")

	if err := validation.Struct(input); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "signup_validation_failed",
		}).Warnf("signup validation failed: %v", err)
		recordAuthAttempt("signup", "invalid")
		return AuthResult{}, err
	}

	// Fast path only; the unique index decides under concurrent signups.
	_, err := s.repo.FindByEmail(ctx, input.Email)
	switch {
	case err == nil:
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "signup_email_exists",
		}).Warn("signup failed: email already in use")
		recordAuthAttempt("signup", "duplicate")
		return AuthResult{}, ErrDuplicateEmail
	case !errors.Is(err, userrepo.ErrUserNotFound):
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "signup_lookup_failed",
		}).Errorf("signup failed: %v", err)
		return AuthResult{}, err
	}

	hash, err := s.credentials.Hash(input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "signup_hash_failed",
		}).Errorf("signup failed: password hash error: %v", err)
		return AuthResult{}, err
	}

	user, err := s.repo.Create(ctx, userdomain.NewUser{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: &hash,
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrDuplicateEmail) {
			s.log.WithFields(ctx, logger.Fields{
				"email":  input.Email,
				"action": "signup_email_race_lost",
			}).Warn("signup failed: email taken by a concurrent signup")
			recordAuthAttempt("signup", "duplicate")
			return AuthResult{}, ErrDuplicateEmail
		}
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "signup_create_failed",
		}).Errorf("signup failed: %v", err)
		return AuthResult{}, err
	}

	token, err := s.credentials.IssueToken(user.ID)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": user.ID.String(),
			"action":  "signup_token_issue_failed",
		}).Errorf("signup failed: token issue error: %v", err)
		return AuthResult{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": user.ID.String(),
		"action":  "signup_success",
	}).Info("signup success")
	recordAuthAttempt("signup", "success")

	return AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	s.log.WithFields(ctx, logger.Fields{
		"email":  input.Email,
		"action": "login_attempt",
	}).Info("login attempt")

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"email":  input.Email,
				"action": "login_user_not_found",
			}).Warn("login failed: not found")
			recordAuthAttempt("login", "not_found")
			return AuthResult{}, ErrUserNotFound
		}
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		return AuthResult{}, err
	}

	if len(input.Password) > constants.PasswordMaxLength || !s.credentials.Verify(input.Password, user.PasswordHash) {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": user.ID.String(),
			"action":  "login_invalid_password",
		}).Warn("login failed: invalid password")
		recordAuthAttempt("login", "invalid_credential")
		return AuthResult{}, ErrInvalidCredential
	}

	token, err := s.credentials.IssueToken(user.ID)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": user.ID.String(),
			"action":  "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		return AuthResult{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": user.ID.String(),
		"action":  "login_success",
	}).Info("login success")
	recordAuthAttempt("login", "success")

	return AuthResult{Token: token, User: user}, nil
}
