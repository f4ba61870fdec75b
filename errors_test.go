package othello

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindAuth, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, c := range cases {
		if got := c.kind.HTTPStatus(); got != c.want {
			t.Errorf("%s: expected status %d, got %d", c.kind, c.want, got)
		}
	}
}

func TestKindOfWrappedError(t *testing.T) {
	err := NotFoundf("game %d not found", 42)
	wrapped := fmt.Errorf("loading game: %w", err)

	if KindOf(wrapped) != KindNotFound {
		t.Errorf("expected KindNotFound through wrapping, got %s", KindOf(wrapped))
	}

	if MessageOf(wrapped) != "game 42 not found" {
		t.Errorf("unexpected message: %q", MessageOf(wrapped))
	}
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("disk on fire")

	if KindOf(err) != KindInternal {
		t.Errorf("expected KindInternal for plain error, got %s", KindOf(err))
	}

	// Plain errors must never leak their text to clients.
	if MessageOf(err) == err.Error() {
		t.Error("internal error text leaked into client message")
	}
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("database unavailable", cause)

	if !errors.Is(err, cause) {
		t.Error("Internal should wrap its cause")
	}

	if MessageOf(err) != "database unavailable" {
		t.Errorf("unexpected message: %q", MessageOf(err))
	}
}

func TestValidRole(t *testing.T) {
	if !ValidRole(RoleAdmin) || !ValidRole(RolePlayer) {
		t.Error("known roles should validate")
	}
	if ValidRole("SuperUser") {
		t.Error("unknown role should not validate")
	}
}

func TestTerminalStatus(t *testing.T) {
	if TerminalStatus(StatusOngoing) {
		t.Error("ongoing is not terminal")
	}
	if !TerminalStatus(StatusFinished) || !TerminalStatus(StatusCancelled) {
		t.Error("finished and cancelled are terminal")
	}
}
