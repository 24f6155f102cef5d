// Package testutil holds assertion helpers shared by the package tests.
package testutil

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// AssertEqual compares got and want with cmp.Diff.
func AssertEqual(t testing.TB, got, want any, msgAndArgs ...any) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("%smismatch (-want +got):\n%s", prefix(msgAndArgs...), diff)
	}
}

// RequireNoError stops the test when err is not nil.
func RequireNoError(t testing.TB, err error, msgAndArgs ...any) {
	t.Helper()
	if err != nil {
		t.Fatalf("%sunexpected error: %v", prefix(msgAndArgs...), err)
	}
}

// AssertNoError reports a non-nil err and lets the test continue.
func AssertNoError(t testing.TB, err error, msgAndArgs ...any) {
	t.Helper()
	if err != nil {
		t.Errorf("%sunexpected error: %v", prefix(msgAndArgs...), err)
	}
}

// AssertErrorIs fails unless errors.Is(err, target).
func AssertErrorIs(t testing.TB, err, target error, msgAndArgs ...any) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("%sgot error %v, want %v", prefix(msgAndArgs...), err, target)
	}
}

func AssertTrue(t testing.TB, cond bool, msgAndArgs ...any) {
	t.Helper()
	if !cond {
		t.Errorf("%sexpected true", prefix(msgAndArgs...))
	}
}

func AssertFalse(t testing.TB, cond bool, msgAndArgs ...any) {
	t.Helper()
	if cond {
		t.Errorf("%sexpected false", prefix(msgAndArgs...))
	}
}

// AssertContains fails if substr is not found in got.
func AssertContains(t testing.TB, got, substr string, msgAndArgs ...any) {
	t.Helper()
	if !strings.Contains(got, substr) {
		t.Errorf("%s%q does not contain %q", prefix(msgAndArgs...), got, substr)
	}
}

// prefix formats the optional message. The first element is the format
// string; a non-string first element is printed with %v.
func prefix(msgAndArgs ...any) string {
	if len(msgAndArgs) == 0 {
		return ""
	}
	format, ok := msgAndArgs[0].(string)
	if !ok {
		format = fmt.Sprintf("%v", msgAndArgs[0])
	}
	return fmt.Sprintf(format, msgAndArgs[1:]...) + ": "
}
