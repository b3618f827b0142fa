package testutil

import (
	"testing"
)

// SkipIfShort skips container-backed tests under `go test -short`.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in -short mode")
	}
}

// requireContainer skips the test when the shared container could not be
// started, typically because no Docker daemon is reachable.
func requireContainer(t *testing.T, name string, err error) {
	t.Helper()
	if err != nil {
		t.Skipf("%s container unavailable: %v", name, err)
	}
}
