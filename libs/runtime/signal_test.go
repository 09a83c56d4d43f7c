package runtime

import (
	"context"
	"testing"
	"time"
)

func TestShutdownWithinBoundsContext(t *testing.T) {
	err := ShutdownWithin(50*time.Millisecond, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatal("expected deadline")
		}
		<-ctx.Done()
		return ctx.Err()
	})
	if err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
