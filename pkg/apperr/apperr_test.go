package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestResponseMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		label  string
	}{
		{Unauthenticated("invalid or expired token"), http.StatusUnauthorized, "fail"},
		{NotFound("task not found"), http.StatusNotFound, "fail"},
		{Validation("invalid input"), http.StatusBadRequest, "fail"},
		{Conflict("email taken"), http.StatusBadRequest, "fail"},
		{RateLimited("slow down"), http.StatusTooManyRequests, "fail"},
		{errors.New("boom"), http.StatusInternalServerError, "error"},
	}
	for _, tc := range cases {
		status, body := Response(tc.err, false)
		if status != tc.status || body.Status != tc.label {
			t.Fatalf("%v: got %d/%s want %d/%s", tc.err, status, body.Status, tc.status, tc.label)
		}
	}
}

func TestResponseHidesInternalDetailUnlessVerbose(t *testing.T) {
	err := fmt.Errorf("list tasks: %w", errors.New("connection refused"))
	_, quiet := Response(err, false)
	if quiet.Message != "internal server error" || quiet.Detail != "" {
		t.Fatalf("leaked detail: %+v", quiet)
	}
	_, loud := Response(err, true)
	if loud.Detail == "" {
		t.Fatalf("expected detail in verbose mode")
	}
}

func TestFromUnwrapsWrappedAppErrors(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("account not found"))
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not_found, got %s", KindOf(err))
	}
	_, body := Response(Validation("bad", FieldError{Field: "title", Message: "required"}), false)
	if len(body.Errors) != 1 || body.Errors[0].Field != "title" {
		t.Fatalf("field errors not carried: %+v", body)
	}
}

func TestErrorTextListsFields(t *testing.T) {
	err := Validation("invalid input", FieldError{Field: "name", Message: "name is required"}, FieldError{Field: "email", Message: "please provide a valid email"})
	want := "validation: invalid input (name: name is required; email: please provide a valid email)"
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
	if got := Conflict("taken").Error(); got != "conflict: taken" {
		t.Fatalf("got %q", got)
	}
}
