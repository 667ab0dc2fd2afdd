package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// RasterizeTimeout bounds one rasterizer run; large documents at high DPI are slow
const RasterizeTimeout = 120 * time.Second

// execCommandWithTimeout executes a command with a timeout derived from ctx
func execCommandWithTimeout(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("command timed out after %v", timeout)
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("command cancelled: %w", ctx.Err())
	}

	if err != nil {
		return output, fmt.Errorf("command failed: %w", err)
	}

	return output, nil
}
