package errs

import (
	"errors"
	"strings"
	"testing"
)

type kindedErr struct{}

func (kindedErr) Error() string     { return "kinded" }
func (kindedErr) ErrorKind() string { return "not_found" }

func TestWrapKeepsChain(t *testing.T) {
	base := errors.New("base")
	err := Wrapf(Wrap(base, "load record"), "apply %s", "approve")

	if !errors.Is(err, base) {
		t.Fatalf("errors.Is() = false, want true")
	}
	if got := err.Error(); got != "apply approve: load record: base" {
		t.Fatalf("Error() = %q", got)
	}
	if Wrap(nil, "x") != nil || Wrapf(nil, "x %d", 1) != nil {
		t.Fatalf("wrapping nil should stay nil")
	}
}

func TestKindStringFindsWrappedKind(t *testing.T) {
	err := Wrap(kindedErr{}, "get record")
	if got := KindString(err); got != "not_found" {
		t.Fatalf("KindString() = %q, want not_found", got)
	}
	if got := KindString(errors.New("plain")); got != "" {
		t.Fatalf("KindString(plain) = %q, want empty", got)
	}
}

func TestWithStackCapturesOnce(t *testing.T) {
	err := WithStack(errors.New("root"))
	again := WithStack(Wrap(err, "outer"))

	var se *StackError
	if !errors.As(again, &se) {
		t.Fatalf("errors.As(StackError) = false")
	}
	if se != err {
		t.Fatalf("WithStack() captured a second stack")
	}
	if !strings.Contains(string(se.Stack()), "TestWithStackCapturesOnce") {
		t.Fatalf("stack does not include caller")
	}
}

func TestErrorChainStrings(t *testing.T) {
	chain := ErrorChainStrings(Wrap(errors.New("inner"), "outer"))
	if len(chain) != 2 || chain[0] != "outer: inner" || chain[1] != "inner" {
		t.Fatalf("ErrorChainStrings() = %#v", chain)
	}
}
