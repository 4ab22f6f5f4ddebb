package placement

import (
	"testing"

	"go.uber.org/goleak"
)

// Scoring and scenario goroutines must all be joined before a run returns.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
