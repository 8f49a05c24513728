package sender

import (
	"context"
	"testing"
)

// testContext stands in for testing.T.Context (Go 1.24+): the context is canceled when the test ends.
func testContext(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
