package validation

import (
	"errors"
	"strings"
	"testing"

	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
)

type signupArgs struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		args    signupArgs
		details string
	}{
		{name: "valid", args: signupArgs{Name: "Alice", Email: "a@x.io", Password: "pw"}},
		{name: "missing name", args: signupArgs{Email: "a@x.io", Password: "pw"}, details: "name is required"},
		{name: "bad email", args: signupArgs{Name: "A", Email: "nope", Password: "pw"}, details: "email must be a valid email address"},
		{name: "72 byte password", args: signupArgs{Name: "A", Email: "a@x.io", Password: strings.Repeat("é", 36)}},
		{name: "multibyte password over 72 bytes", args: signupArgs{Name: "A", Email: "a@x.io", Password: strings.Repeat("é", 40)}, details: "password must be at most 72 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.args)
			if tt.details == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, commonerrors.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := Details(err); got != tt.details {
				t.Errorf("expected %q, got %q", tt.details, got)
			}
		})
	}
}
