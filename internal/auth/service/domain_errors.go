package service

import (
	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
)

var (
	ErrInvalidCredential  = commonerrors.ErrInvalidCredential
	ErrDuplicateEmail     = commonerrors.ErrDuplicateEmail
	ErrUserNotFound       = commonerrors.ErrUserNotFound
	ErrServiceUnavailable = commonerrors.ErrServiceUnavailable
)
