package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{BadRequest("x"), http.StatusBadRequest},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{NotFound("x"), http.StatusNotFound},
		{Conflict("x"), http.StatusConflict},
		{New(KindInternal, "x"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := Status(c.err); got != c.want {
			t.Errorf("Status(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestMessageMasksInternalErrors(t *testing.T) {
	if got := Message(errors.New("pq: connection refused")); got != "internal server error" {
		t.Errorf("Message = %q, want masked", got)
	}
	if got := Message(Wrap(KindInternal, "query users", errors.New("timeout"))); got != "internal server error" {
		t.Errorf("Message = %q, want masked", got)
	}
	if got := Message(Conflict("slug already exists")); got != "slug already exists" {
		t.Errorf("Message = %q", got)
	}
}

func TestKindOfUnwrapsNestedErrors(t *testing.T) {
	inner := NotFound("tenant not found")
	wrapped := fmt.Errorf("loading tenant: %w", inner)
	if got := KindOf(wrapped); got != KindNotFound {
		t.Errorf("KindOf = %v, want not found", got)
	}
}

func TestFromPGTranslatesUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "tenants_slug_key"}
	err := FromPG(fmt.Errorf("insert tenant: %w", pgErr), "slug already exists", "tenant not found")

	if KindOf(err) != KindConflict {
		t.Fatalf("kind = %v, want conflict", KindOf(err))
	}
	if Message(err) != "slug already exists" {
		t.Errorf("message = %q", Message(err))
	}
	// The original driver error stays reachable for logs.
	var got *pgconn.PgError
	if !errors.As(err, &got) {
		t.Error("driver error lost in translation")
	}
}

func TestFromPGTranslatesNoRows(t *testing.T) {
	err := FromPG(fmt.Errorf("get tenant: %w", pgx.ErrNoRows), "conflict", "tenant not found")
	if KindOf(err) != KindNotFound {
		t.Fatalf("kind = %v, want not found", KindOf(err))
	}
	if Message(err) != "tenant not found" {
		t.Errorf("message = %q", Message(err))
	}
}

func TestFromPGPassesThroughOtherErrors(t *testing.T) {
	orig := errors.New("connection reset")
	if got := FromPG(orig, "c", "n"); !errors.Is(got, orig) {
		t.Error("unrelated error was rewritten")
	}
	if FromPG(nil, "c", "n") != nil {
		t.Error("nil error was rewritten")
	}
}
