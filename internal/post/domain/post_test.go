package domain

import (
	"errors"
	"testing"

	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
)

func TestParseOrderBy(t *testing.T) {
	for _, in := range []string{"id", "title", "createdAt"} {
		got, err := ParseOrderBy(in)
		if err != nil || string(got) != in {
			t.Errorf("%s: got %q (%v)", in, got, err)
		}
	}

	if got, _ := ParseOrderBy(""); got != OrderByID {
		t.Errorf("expected default id, got %q", got)
	}

	for _, in := range []string{"created_at", "author", "id; DROP TABLE posts"} {
		if _, err := ParseOrderBy(in); !errors.Is(err, commonerrors.ErrInvalidOrderBy) {
			t.Errorf("%s: expected invalid order, got %v", in, err)
		}
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID("9")
	if err != nil || id != 9 || id.String() != "9" {
		t.Fatalf("unexpected id %v (%v)", id, err)
	}
	if _, err := ParseID("9.5"); err == nil {
		t.Fatal("expected error")
	}
}
