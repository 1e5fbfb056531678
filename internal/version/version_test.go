package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	if got := Get(); got == "" || strings.ContainsAny(got, " \n") {
		t.Errorf("Get() = %q, want trimmed non-empty version", got)
	}
}

func TestString_Commit(t *testing.T) {
	old := Commit
	t.Cleanup(func() { Commit = old })

	Commit = "0123456789abcdef"
	want := "fixit version " + Get() + " (0123456)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
