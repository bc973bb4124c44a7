package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessagePriority(t *testing.T) {
	e := &Error{Kind: KindValidation, Msg: "bad input", Err: errors.New("cause")}
	if e.Error() != "bad input" {
		t.Fatalf("expected msg, got %s", e.Error())
	}

	e = &Error{Kind: KindConflict, Err: errors.New("cause")}
	if e.Error() != "cause" {
		t.Fatalf("expected wrapped error text, got %s", e.Error())
	}

	e = &Error{Kind: KindNotFound}
	if e.Error() != string(KindNotFound) {
		t.Fatalf("expected kind text, got %s", e.Error())
	}
}

func TestIsAndUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := fmt.Errorf("wrapped: %w", NotFound("missing", cause))

	if !Is(err, KindNotFound) {
		t.Fatalf("expected KindNotFound match")
	}
	if Is(err, KindConflict) {
		t.Fatalf("unexpected KindConflict match")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if Is(errors.New("plain"), KindNotFound) {
		t.Fatalf("plain error should not match")
	}
}

func TestCodeOf(t *testing.T) {
	err := WithCode(KindConflict, "USAGE_LIMIT_REACHED", "promo code usage limit reached", nil)
	if CodeOf(err) != "USAGE_LIMIT_REACHED" {
		t.Fatalf("expected reason code, got %q", CodeOf(err))
	}
	if CodeOf(Conflict("no code", nil)) != "" {
		t.Fatalf("expected empty code")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("expected empty code for plain error")
	}
}
