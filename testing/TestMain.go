// Package testing prepares the process environment shared by portal tests.
// Importing it for side effects puts the binary in test mode and points
// configuration at values that never reach a real backend.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var defaults = map[string]string{
	"PORTAL_TEST_MODE": "1",
	"API_URL":          "http://127.0.0.1:0/api/v1",
	"SESSION_SECRET":   "test-session-secret",
	"CSRF_SECRET":      "test-csrf-secret",
}

var once sync.Once

func applyDefaults() {
	once.Do(func() {
		for key, value := range defaults {
			if _, ok := os.LookupEnv(key); !ok {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	applyDefaults()
}

// TestMain lets packages that declare no TestMain of their own reuse this one.
func TestMain(m *stdtesting.M) {
	applyDefaults()
	os.Exit(m.Run())
}
