// Package testing puts the binaries into test mode and, unless REDIS_ADDR is
// already set, disables redis so tests run against in-process stores only.
// Import it for side effects from test files.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("BACKOFFICE_TEST_MODE", "1")
		if _, ok := os.LookupEnv("REDIS_ADDR"); !ok {
			_ = os.Setenv("REDIS_ADDR", "")
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain runs m in test mode.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
