package errs

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestIsMatchesOnCode(t *testing.T) {
	err := ErrNotFound.WrapMsg("project not found", "projectID", "p1")
	if !ErrNotFound.Is(err) {
		t.Fatal("wrapped NotFound should match ErrNotFound")
	}
	if ErrForbidden.Is(err) {
		t.Fatal("NotFound must not match ErrForbidden")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("errors.Is should see through the stack wrapper")
	}
}

func TestUnpack(t *testing.T) {
	err := ErrConflict.WrapMsg("already a member")
	ce := Unpack(err)
	if ce.Code != ConflictCode {
		t.Fatalf("Unpack code = %d, want %d", ce.Code, ConflictCode)
	}
	if !strings.Contains(ce.Detail, "already a member") {
		t.Fatalf("detail lost: %q", ce.Detail)
	}

	// 非 CodeError 一律折叠为 Internal
	ce = Unpack(io.EOF)
	if ce.Code != InternalCode {
		t.Fatalf("Unpack(plain error) code = %d, want %d", ce.Code, InternalCode)
	}
}

func TestWrapMsgKV(t *testing.T) {
	err := ErrValidation.WrapMsg("bad field", "field", "email")
	ce := Unpack(err)
	if !strings.Contains(ce.Detail, "field=email") {
		t.Fatalf("kv missing from detail: %q", ce.Detail)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil) != nil {
		t.Fatal("Wrap(nil) must be nil")
	}
	if WrapMsg(nil, "ignored") != nil {
		t.Fatal("WrapMsg(nil) must be nil")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrValidation.Wrap(), http.StatusBadRequest},
		{ErrNotFound.Wrap(), http.StatusNotFound},
		{ErrForbidden.Wrap(), http.StatusForbidden},
		{ErrConflict.Wrap(), http.StatusConflict},
		{ErrUnauthenticated.Wrap(), http.StatusUnauthorized},
		{ErrInternal.Wrap(), http.StatusInternalServerError},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
